package repo

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"

	"github.com/radieske/spin-wager-platform/internal/outcome"
)

// Postgres implementa a tabela de resultados em banco Postgres
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de resultados
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const selectColumns = `SELECT id, label, multiplier, weight, visible, color, text_color FROM outcomes`

type rowQuerier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryOutcomes(ctx context.Context, q rowQuerier, query string) ([]outcome.Outcome, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []outcome.Outcome{}
	for rows.Next() {
		var o outcome.Outcome
		if err := rows.Scan(&o.ID, &o.Label, &o.Multiplier, &o.Weight, &o.Visible, &o.Color, &o.TextColor); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Visible retorna os resultados visíveis em ordem de id (snapshot para o sorteio)
func (p *Postgres) Visible(ctx context.Context) ([]outcome.Outcome, error) {
	return queryOutcomes(ctx, p.db, selectColumns+` WHERE visible ORDER BY id`)
}

// List retorna a tabela completa para o admin
func (p *Postgres) List(ctx context.Context) ([]outcome.Outcome, error) {
	return queryOutcomes(ctx, p.db, selectColumns+` ORDER BY id`)
}

// Update aplica o lote numa única transação; qualquer id inexistente desfaz tudo.
// Read committed basta: cada UPDATE trava a própria linha, e a ordem por id
// evita deadlock entre dois lotes concorrentes.
func (p *Postgres) Update(ctx context.Context, batch []outcome.Outcome) error {
	if err := outcome.ValidateBatch(batch); err != nil {
		return err
	}

	ordered := slices.Clone(batch)
	slices.SortFunc(ordered, func(a, b outcome.Outcome) int { return cmp.Compare(a.ID, b.ID) })

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range ordered {
		res, err := tx.ExecContext(ctx, `
			UPDATE outcomes
			SET label=$1, multiplier=$2, weight=$3, visible=$4, color=$5, text_color=$6, updated_at=NOW()
			WHERE id=$7`,
			o.Label, o.Multiplier, o.Weight, o.Visible, o.Color, o.TextColor, o.ID)
		if err != nil {
			return fmt.Errorf("update outcome %d: %w", o.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: id %d", outcome.ErrOutcomeNotFound, o.ID)
		}
	}

	return tx.Commit()
}

// Seed insere a roleta padrão somente se a tabela estiver vazia.
// LOCK evita dois seeds concorrentes duplicando os segmentos.
func (p *Postgres) Seed(ctx context.Context, defaults []outcome.Outcome) (bool, error) {
	for _, o := range defaults {
		if err := o.Validate(); err != nil {
			return false, err
		}
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `LOCK TABLE outcomes IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return false, err
	}

	var count int
	if err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM outcomes`).Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	for _, o := range defaults {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO outcomes (label, multiplier, weight, visible, color, text_color)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.Label, o.Multiplier, o.Weight, o.Visible, o.Color, o.TextColor); err != nil {
			return false, fmt.Errorf("seed outcome %q: %w", o.Label, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

var _ outcome.Table = (*Postgres)(nil)
