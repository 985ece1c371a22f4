package memory

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/spin-wager-platform/internal/ledger"
)

type account struct {
	balance decimal.Decimal
	version uint64
}

// Store é uma implementação em memória de ledger.Store.
// Concorrência otimista: cada transação guarda a versão das contas lidas e o
// commit falha com ErrSerialization se alguma delas mudou, como um
// SERIALIZABLE do Postgres. Contas diferentes nunca conflitam.
type Store struct {
	mu       sync.Mutex
	accounts map[string]*account
	entries  []ledger.Entry
	seq      int64
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account),
		now:      time.Now,
	}
}

type tx struct {
	s       *Store
	reads   map[string]uint64
	writes  map[string]decimal.Decimal
	pending []ledger.Entry
}

func (t *tx) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if bal, ok := t.writes[accountID]; ok {
		return bal, nil
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	acc, ok := t.s.accounts[accountID]
	if !ok {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	if _, seen := t.reads[accountID]; !seen {
		t.reads[accountID] = acc.version
	}
	return acc.balance, nil
}

func (t *tx) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ledger.ErrNegativeBalance
	}
	// garante que a versão da conta entre no conjunto de leitura
	if _, err := t.Balance(ctx, accountID); err != nil {
		return err
	}
	t.writes[accountID] = balance
	return nil
}

func (t *tx) AppendEntry(ctx context.Context, e ledger.Entry) error {
	if !e.Kind.Valid() {
		return ledger.ErrInvalidKind
	}
	t.pending = append(t.pending, e)
	return nil
}

func (t *tx) commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, ver := range t.reads {
		acc, ok := t.s.accounts[id]
		if !ok || acc.version != ver {
			return ledger.ErrSerialization
		}
	}
	for _, e := range t.pending {
		if _, ok := t.s.accounts[e.AccountID]; !ok {
			return ledger.ErrAccountNotFound
		}
	}

	for id, bal := range t.writes {
		acc := t.s.accounts[id]
		acc.balance = bal
		acc.version++
	}
	for _, e := range t.pending {
		t.s.seq++
		e.Seq = t.s.seq
		if e.CreatedAt.IsZero() {
			e.CreatedAt = t.s.now().UTC()
		}
		t.s.entries = append(t.s.entries, e)
	}
	return nil
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	t := &tx{
		s:      s,
		reads:  make(map[string]uint64),
		writes: make(map[string]decimal.Decimal),
	}
	if err := fn(ctx, t); err != nil {
		return err // rollback: nada foi aplicado
	}
	return t.commit(ctx)
}

func (s *Store) OpenAccount(ctx context.Context, accountID string, initial decimal.Decimal) (ledger.Account, error) {
	if initial.IsNegative() {
		return ledger.Account{}, ledger.ErrNegativeBalance
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; ok {
		return ledger.Account{}, ledger.ErrAccountExists
	}
	s.accounts[accountID] = &account{balance: initial, version: 1}
	if initial.IsPositive() {
		s.appendLocked(ledger.NewEntry(accountID, ledger.KindDeposit, initial, s.now()))
	}
	return ledger.Account{ID: accountID, Balance: initial}, nil
}

func (s *Store) appendLocked(e ledger.Entry) ledger.Entry {
	s.seq++
	e.Seq = s.seq
	s.entries = append(s.entries, e)
	return e
}

func (s *Store) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	return acc.balance, nil
}

func (s *Store) Entries(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[accountID]; !ok {
		return nil, ledger.ErrAccountNotFound
	}

	var result []ledger.Entry
	for _, e := range s.entries {
		if e.AccountID == accountID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *Store) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (ledger.Account, ledger.Entry, error) {
	if !amount.IsPositive() {
		return ledger.Account{}, ledger.Entry{}, ledger.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[accountID]
	if !ok {
		acc = &account{balance: decimal.Zero}
		s.accounts[accountID] = acc
	}
	acc.balance = acc.balance.Add(amount)
	acc.version++

	e := s.appendLocked(ledger.NewEntry(accountID, ledger.KindDeposit, amount, s.now()))
	return ledger.Account{ID: accountID, Balance: acc.balance}, e, nil
}

// Compile-time check: Store implementa ledger.Store
var _ ledger.Store = (*Store)(nil)
