package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/spin-wager-platform/pkg/contracts/events"
)

// RedisBroadcaster publica alterações da tabela no canal Redis,
// repassadas aos clientes WebSocket por todas as instâncias do outcome-service
type RedisBroadcaster struct {
	r       *redis.Client
	channel string
}

func NewRedisBroadcaster(r *redis.Client, channel string) *RedisBroadcaster {
	return &RedisBroadcaster{r: r, channel: channel}
}

func (b *RedisBroadcaster) PublishTableUpdated(ctx context.Context, ev events.OutcomeTableUpdated) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.r.Publish(ctx, b.channel, payload).Err()
}
