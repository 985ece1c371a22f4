package outcome

import (
	"context"
	"slices"
	"sync"
)

// MemoryTable é uma Table em memória (testes e execução local).
// Leituras devolvem cópias, então um snapshot nunca muda depois de lido.
type MemoryTable struct {
	mu     sync.RWMutex
	rows   []Outcome
	nextID int64
}

func NewMemoryTable(rows ...Outcome) *MemoryTable {
	t := &MemoryTable{nextID: 1}
	for _, o := range rows {
		if o.ID == 0 {
			o.ID = t.nextID
		}
		if o.ID >= t.nextID {
			t.nextID = o.ID + 1
		}
		t.rows = append(t.rows, o)
	}
	sortByID(t.rows)
	return t
}

func sortByID(rows []Outcome) {
	slices.SortFunc(rows, func(a, b Outcome) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

func (t *MemoryTable) Visible(ctx context.Context) ([]Outcome, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Outcome, 0, len(t.rows))
	for _, o := range t.rows {
		if o.Visible {
			out = append(out, o)
		}
	}
	return out, nil
}

func (t *MemoryTable) List(ctx context.Context) ([]Outcome, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.rows), nil
}

func (t *MemoryTable) Update(ctx context.Context, batch []Outcome) error {
	if err := ValidateBatch(batch); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// aplica numa cópia e só troca no final: tudo ou nada
	next := slices.Clone(t.rows)
	for _, upd := range batch {
		idx := slices.IndexFunc(next, func(o Outcome) bool { return o.ID == upd.ID })
		if idx < 0 {
			return ErrOutcomeNotFound
		}
		next[idx] = upd
	}
	t.rows = next
	return nil
}

func (t *MemoryTable) Seed(ctx context.Context, defaults []Outcome) (bool, error) {
	for _, o := range defaults {
		if err := o.Validate(); err != nil {
			return false, err
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.rows) > 0 {
		return false, nil
	}
	for _, o := range defaults {
		o.ID = t.nextID
		t.nextID++
		t.rows = append(t.rows, o)
	}
	return true, nil
}

var _ Table = (*MemoryTable)(nil)
