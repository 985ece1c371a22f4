package producer

import (
	"context"

	"github.com/radieske/spin-wager-platform/internal/notification"
	"github.com/radieske/spin-wager-platform/internal/shared/kafka"
)

// KafkaSink publica notificações no tópico spin_notifications.
// A chave da mensagem é a conta, então a ordem por conta é preservada.
type KafkaSink struct {
	Writer kafka.MessageWriter
}

func NewKafkaSink(w kafka.MessageWriter) *KafkaSink {
	return &KafkaSink{Writer: w}
}

func (s *KafkaSink) Notify(ctx context.Context, n notification.Notification) error {
	return kafka.WriteJSON(ctx, s.Writer, n.AccountID, notification.ToEvent(n))
}

var _ notification.Sink = (*KafkaSink)(nil)
