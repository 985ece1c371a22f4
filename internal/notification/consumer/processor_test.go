package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/notification"
	"github.com/radieske/spin-wager-platform/internal/shared/kafka"
)

// fakeReader entrega as mensagens da fila e depois bloqueia até o cancelamento
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed int
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	r.cancel()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed += len(msgs)
	return nil
}

type fakeStore struct {
	fails int
	calls int
	saved []notification.Notification
}

func (s *fakeStore) Insert(_ context.Context, n notification.Notification) error {
	s.calls++
	if s.calls <= s.fails {
		return errors.New("db down")
	}
	s.saved = append(s.saved, n)
	return nil
}

type fakeWriter struct{ msgs []kafka.Message }

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func encoded(t *testing.T, n notification.Notification) kafka.Message {
	t.Helper()
	b, err := json.Marshal(notification.ToEvent(n))
	require.NoError(t, err)
	return kafka.Message{Key: []byte(n.AccountID), Value: b}
}

func run(t *testing.T, p *Processor, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.cancel = cancel
	p.Reader = r
	err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessorPersistsAndCommits(t *testing.T) {
	n := notification.ForSettlement("acc-1", "2x", decimal.NewFromInt(5), decimal.NewFromInt(10), time.Now())
	store := &fakeStore{}
	dlq := &fakeWriter{}
	var persisted int

	p := &Processor{Log: zap.NewNop(), Store: store, DLQ: dlq, OnPersist: func() { persisted++ }}
	r := &fakeReader{queue: []kafka.Message{encoded(t, n)}}
	run(t, p, r)

	require.Len(t, store.saved, 1)
	assert.Equal(t, n.ID, store.saved[0].ID)
	assert.Equal(t, 1, persisted)
	assert.Equal(t, 1, r.committed)
	assert.Empty(t, dlq.msgs)
}

func TestProcessorSendsPoisonMessageToDLQ(t *testing.T) {
	store := &fakeStore{}
	dlq := &fakeWriter{}
	var phases []string

	p := &Processor{Log: zap.NewNop(), Store: store, DLQ: dlq, OnError: func(s string) { phases = append(phases, s) }}
	r := &fakeReader{queue: []kafka.Message{{Key: []byte("acc-1"), Value: []byte("{not json")}}}
	run(t, p, r)

	assert.Empty(t, store.saved)
	require.Len(t, dlq.msgs, 1)
	assert.Equal(t, "{not json", string(dlq.msgs[0].Value))
	assert.Contains(t, phases, "decode")
	assert.Equal(t, 1, r.committed)
}

func TestProcessorRetriesThenDLQ(t *testing.T) {
	n := notification.ForSettlement("acc-1", "0x", decimal.NewFromInt(5), decimal.Zero, time.Now())
	store := &fakeStore{fails: 10}
	dlq := &fakeWriter{}

	p := &Processor{Log: zap.NewNop(), Store: store, DLQ: dlq, Retries: 2, RetryBackoff: time.Millisecond}
	r := &fakeReader{queue: []kafka.Message{encoded(t, n)}}
	run(t, p, r)

	assert.Equal(t, 3, store.calls)
	assert.Len(t, dlq.msgs, 1)
}

func TestProcessorRecoversWithinRetries(t *testing.T) {
	n := notification.ForSettlement("acc-1", "0x", decimal.NewFromInt(5), decimal.Zero, time.Now())
	store := &fakeStore{fails: 1}
	dlq := &fakeWriter{}

	p := &Processor{Log: zap.NewNop(), Store: store, DLQ: dlq, Retries: 2, RetryBackoff: time.Millisecond}
	r := &fakeReader{queue: []kafka.Message{encoded(t, n)}}
	run(t, p, r)

	assert.Len(t, store.saved, 1)
	assert.Empty(t, dlq.msgs)
}
