// Package ledger define o armazenamento de saldos e o histórico append-only
// de lançamentos. Toda mutação de saldo acontece dentro de WithinTx, que tem
// semântica serializável.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
	ErrNegativeBalance = errors.New("balance cannot be negative")
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidKind     = errors.New("invalid ledger entry kind")
	// ErrSerialization indica conflito de concorrência no commit; a unidade
	// de trabalho inteira pode ser repetida
	ErrSerialization = errors.New("serialization failure")
)

// Kind é o tipo do lançamento no ledger
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdrawal Kind = "withdrawal"
	KindWagerWin   Kind = "wager_win"
	KindWagerLoss  Kind = "wager_loss"
)

func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindWagerWin, KindWagerLoss:
		return true
	}
	return false
}

// Account é a conta com saldo autoritativo
type Account struct {
	ID      string          `json:"id"`
	Balance decimal.Decimal `json:"balance"`
}

// Entry é um lançamento imutável; Amount é assinado (negativo = débito)
type Entry struct {
	ID        string          `json:"id"`
	Seq       int64           `json:"seq"`
	AccountID string          `json:"accountId"`
	Kind      Kind            `json:"kind"`
	Amount    decimal.Decimal `json:"amount"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEntry cria um lançamento com id novo; Seq é atribuído pelo store no commit
func NewEntry(accountID string, kind Kind, amount decimal.Decimal, at time.Time) Entry {
	return Entry{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Kind:      kind,
		Amount:    amount,
		CreatedAt: at.UTC(),
	}
}

// Tx são as operações disponíveis dentro de uma unidade de trabalho
type Tx interface {
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) error
	AppendEntry(ctx context.Context, e Entry) error
}

// Store é o ledger autoritativo
type Store interface {
	// WithinTx executa fn numa transação serializável: commit se fn retornar
	// nil, rollback caso contrário. Conflitos retornam ErrSerialization.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	OpenAccount(ctx context.Context, accountID string, initial decimal.Decimal) (Account, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	// Entries retorna os lançamentos da conta em ordem de commit
	Entries(ctx context.Context, accountID string) ([]Entry, error)
	// Deposit credita e registra o lançamento "deposit" atomicamente;
	// cria a conta no primeiro depósito
	Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (Account, Entry, error)
}
