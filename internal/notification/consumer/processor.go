package consumer

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/notification"
	"github.com/radieske/spin-wager-platform/internal/shared/kafka"
	"github.com/radieske/spin-wager-platform/pkg/contracts/events"
)

// MessageReader é o subconjunto de *kafka.Reader usado aqui (commit manual)
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Store persiste a notificação consumida
type Store interface {
	Insert(ctx context.Context, n notification.Notification) error
}

// Processor consome spin_notifications e grava no Postgres.
// Mensagem inválida ou que falhou todas as tentativas vai para a DLQ.
type Processor struct {
	Log    *zap.Logger
	Reader MessageReader
	Store  Store
	DLQ    kafka.MessageWriter // opcional

	Retries      int           // tentativas extras de persistência
	RetryBackoff time.Duration // linear: backoff * tentativa

	OnConsumed func()       // métricas (counter++)
	OnPersist  func()       // métricas
	OnDLQ      func()       // métricas
	OnError    func(string) // métricas por fase
}

// Run inicia o loop de consumo; retorna quando o contexto é cancelado
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka fetch failed", zap.Error(err))
			p.onError("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		p.handle(ctx, m)

		// commit mesmo após DLQ: a mensagem já foi tratada
		if err := p.Reader.CommitMessages(ctx, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.Log.Warn("kafka commit failed", zap.Error(err))
			p.onError("commit")
		}
	}
}

func (p *Processor) handle(ctx context.Context, m kafka.Message) {
	var ev events.NotificationRequested
	if err := json.Unmarshal(m.Value, &ev); err != nil {
		p.Log.Warn("invalid message", zap.Error(err))
		p.onError("decode")
		p.toDLQ(ctx, m)
		return
	}
	n, err := notification.FromEvent(ev)
	if err != nil {
		p.Log.Warn("invalid notification", zap.Error(err))
		p.onError("validate")
		p.toDLQ(ctx, m)
		return
	}

	err = p.Store.Insert(ctx, n)
	for i := 0; err != nil && i < p.Retries; i++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.RetryBackoff * time.Duration(i+1)):
		}
		err = p.Store.Insert(ctx, n)
	}
	if err != nil {
		p.Log.Error("persist notification failed",
			zap.String("notificationId", n.ID), zap.String("accountId", n.AccountID), zap.Error(err))
		p.onError("db_insert")
		p.toDLQ(ctx, m)
		return
	}

	if p.OnPersist != nil {
		p.OnPersist()
	}
}

func (p *Processor) toDLQ(ctx context.Context, m kafka.Message) {
	if p.DLQ == nil {
		return
	}
	dlq := kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}
	if err := p.DLQ.WriteMessages(ctx, dlq); err != nil {
		p.Log.Error("dlq write failed", zap.Error(err))
		p.onError("dlq")
		return
	}
	if p.OnDLQ != nil {
		p.OnDLQ()
	}
}

func (p *Processor) onError(phase string) {
	if p.OnError != nil {
		p.OnError(phase)
	}
}
