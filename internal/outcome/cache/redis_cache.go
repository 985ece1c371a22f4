package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/spin-wager-platform/internal/outcome"
)

// KeyVisible guarda o snapshot JSON dos resultados visíveis
const KeyVisible = "outcomes:visible"

// RedisCache é um outcome.Reader read-through sobre o Redis.
// Serve apenas leituras de exibição; a liquidação lê direto do banco.
type RedisCache struct {
	Client *redis.Client
	Inner  outcome.Reader
	TTL    time.Duration

	OnHit  func() // métricas
	OnMiss func() // métricas
}

func NewRedisCache(c *redis.Client, inner outcome.Reader, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, Inner: inner, TTL: ttl}
}

// Visible tenta o cache; em miss ou falha do Redis cai no repositório
func (r *RedisCache) Visible(ctx context.Context) ([]outcome.Outcome, error) {
	b, err := r.Client.Get(ctx, KeyVisible).Bytes()
	if err == nil {
		var rows []outcome.Outcome
		if jerr := json.Unmarshal(b, &rows); jerr == nil {
			if r.OnHit != nil {
				r.OnHit()
			}
			return rows, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Redis fora não derruba a leitura
		rows, ierr := r.Inner.Visible(ctx)
		return rows, ierr
	}

	if r.OnMiss != nil {
		r.OnMiss()
	}
	rows, err := r.Inner.Visible(ctx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(rows); err == nil {
		_ = r.Client.Set(ctx, KeyVisible, b, r.TTL).Err()
	}
	return rows, nil
}

// Invalidate remove o snapshot; chamado após update/seed da tabela
func (r *RedisCache) Invalidate(ctx context.Context) error {
	return r.Client.Del(ctx, KeyVisible).Err()
}

var _ outcome.Reader = (*RedisCache)(nil)
