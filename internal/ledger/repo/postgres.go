package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/spin-wager-platform/internal/ledger"
)

// Postgres implementa o ledger em banco; WithinTx roda em SERIALIZABLE
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db, now: time.Now} }

// códigos SQLSTATE que indicam que a transação pode ser repetida
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

// classify converte falhas de serialização/deadlock em ledger.ErrSerialization
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case sqlStateSerializationFailure, sqlStateDeadlockDetected:
			return fmt.Errorf("%w: %s", ledger.ErrSerialization, pqErr.Message)
		}
	}
	return err
}

type pgTx struct{ tx *sql.Tx }

// Balance lê o saldo com lock pessimista na linha da conta
func (t *pgTx) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := t.tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`, accountID).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	return bal, err
}

func (t *pgTx) SetBalance(ctx context.Context, accountID string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return ledger.ErrNegativeBalance
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE accounts SET balance=$1, version=version+1, updated_at=NOW() WHERE id=$2`,
		balance, accountID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrAccountNotFound
	}
	return nil
}

func (t *pgTx) AppendEntry(ctx context.Context, e ledger.Entry) error {
	if !e.Kind.Valid() {
		return ledger.ErrInvalidKind
	}
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO ledger_entries (id, account_id, kind, amount, created_at) VALUES ($1,$2,$3,$4,$5)`,
		e.ID, e.AccountID, string(e.Kind), e.Amount, e.CreatedAt)
	return err
}

// WithinTx abre uma transação SERIALIZABLE; rollback sempre que fn falhar
func (p *Postgres) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ledger.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classify(err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &pgTx{tx: tx}); err != nil {
		return classify(err)
	}
	return classify(tx.Commit())
}

// OpenAccount cria a conta; saldo inicial positivo vira lançamento "deposit"
func (p *Postgres) OpenAccount(ctx context.Context, accountID string, initial decimal.Decimal) (ledger.Account, error) {
	if initial.IsNegative() {
		return ledger.Account{}, ledger.ErrNegativeBalance
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Account{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO accounts (id, balance, version) VALUES ($1,$2,1) ON CONFLICT (id) DO NOTHING`,
		accountID, initial)
	if err != nil {
		return ledger.Account{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return ledger.Account{}, err
	}
	if n == 0 {
		return ledger.Account{}, ledger.ErrAccountExists
	}

	if initial.IsPositive() {
		e := ledger.NewEntry(accountID, ledger.KindDeposit, initial, p.now())
		if err := (&pgTx{tx: tx}).AppendEntry(ctx, e); err != nil {
			return ledger.Account{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return ledger.Account{}, err
	}
	return ledger.Account{ID: accountID, Balance: initial}, nil
}

func (p *Postgres) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id=$1`, accountID).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, ledger.ErrAccountNotFound
	}
	return bal, err
}

// Entries retorna o histórico da conta em ordem de commit (seq)
func (p *Postgres) Entries(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	var exists int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE id=$1`, accountID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT seq, id, account_id, kind, amount, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY seq`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var e ledger.Entry
		var kind string
		if err := rows.Scan(&e.Seq, &e.ID, &e.AccountID, &kind, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Kind = ledger.Kind(kind)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Deposit incrementa o saldo e registra o lançamento na mesma transação.
// Cria a conta no primeiro depósito; lock pessimista na linha da conta.
func (p *Postgres) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (ledger.Account, ledger.Entry, error) {
	if !amount.IsPositive() {
		return ledger.Account{}, ledger.Entry{}, ledger.ErrInvalidAmount
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Account{}, ledger.Entry{}, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, balance, version) VALUES ($1,0,1) ON CONFLICT (id) DO NOTHING`,
		accountID); err != nil {
		return ledger.Account{}, ledger.Entry{}, err
	}

	var newBalance decimal.Decimal
	if err = tx.QueryRowContext(ctx, `
		UPDATE accounts SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id=$2
		RETURNING balance`, amount, accountID).Scan(&newBalance); err != nil {
		return ledger.Account{}, ledger.Entry{}, err
	}

	e := ledger.NewEntry(accountID, ledger.KindDeposit, amount, p.now())
	if err = tx.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (id, account_id, kind, amount, created_at)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING seq`, e.ID, e.AccountID, string(e.Kind), e.Amount, e.CreatedAt).Scan(&e.Seq); err != nil {
		return ledger.Account{}, ledger.Entry{}, err
	}

	if err = tx.Commit(); err != nil {
		return ledger.Account{}, ledger.Entry{}, err
	}
	return ledger.Account{ID: accountID, Balance: newBalance}, e, nil
}

var _ ledger.Store = (*Postgres)(nil)
