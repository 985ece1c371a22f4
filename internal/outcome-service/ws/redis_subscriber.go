package ws

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/pkg/contracts/events"
)

// StartRedisSubscriber escuta o canal de alterações da tabela e repassa
// cada evento para os clientes do Hub. Retorna quando ctx é cancelado.
func StartRedisSubscriber(ctx context.Context, log *zap.Logger, r *redis.Client, channel string, hub *Hub) <-chan struct{} {
	sub := r.Subscribe(ctx, channel)
	ch := sub.Channel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close() // encerra a inscrição ao finalizar o contexto
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev events.OutcomeTableUpdated
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn("ws subscriber unmarshal", zap.Error(err))
					continue
				}
				hub.Broadcast(ev)
			}
		}
	}()
	return done
}
