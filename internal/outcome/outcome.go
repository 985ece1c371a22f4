// Package outcome modela a tabela de resultados da roleta (segmentos com
// multiplicador e peso) e o sorteio ponderado sobre um snapshot dela.
package outcome

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrNoOutcomesAvailable = errors.New("no outcomes available")
	ErrInvalidWeights      = errors.New("invalid outcome weights")
	ErrOutcomeNotFound     = errors.New("outcome not found")
	ErrInvalidOutcome      = errors.New("invalid outcome")
)

// Outcome é um segmento configurável pelo admin.
// Color/TextColor são apenas de exibição e não afetam a liquidação.
type Outcome struct {
	ID         int64           `json:"id"`
	Label      string          `json:"label"`
	Multiplier decimal.Decimal `json:"multiplier"`
	Weight     int64           `json:"weight"`
	Visible    bool            `json:"visible"`
	Color      string          `json:"color,omitempty"`
	TextColor  string          `json:"textColor,omitempty"`
}

// Validate checa uma linha enviada pelo admin
func (o Outcome) Validate() error {
	if strings.TrimSpace(o.Label) == "" {
		return fmt.Errorf("%w: outcome %d: label required", ErrInvalidOutcome, o.ID)
	}
	if o.Multiplier.IsNegative() {
		return fmt.Errorf("%w: outcome %d: negative multiplier", ErrInvalidOutcome, o.ID)
	}
	if o.Weight < 0 {
		return fmt.Errorf("%w: outcome %d: negative weight", ErrInvalidOutcome, o.ID)
	}
	return nil
}

// Reader expõe a tabela para o motor de liquidação (somente leitura)
type Reader interface {
	// Visible retorna os resultados visíveis ordenados por id; pode ser vazio
	Visible(ctx context.Context) ([]Outcome, error)
}

// Table é a visão administrativa da tabela
type Table interface {
	Reader
	List(ctx context.Context) ([]Outcome, error)
	// Update aplica o lote inteiro ou nada
	Update(ctx context.Context, batch []Outcome) error
	// Seed insere os defaults apenas se a tabela estiver vazia
	Seed(ctx context.Context, defaults []Outcome) (bool, error)
}

// DefaultWheel é a roleta padrão, usada somente pela ação explícita de seed
func DefaultWheel() []Outcome {
	seg := func(label, mult, color string) Outcome {
		return Outcome{
			Label:      label,
			Multiplier: decimal.RequireFromString(mult),
			Weight:     10,
			Visible:    true,
			Color:      color,
			TextColor:  "#000000",
		}
	}
	return []Outcome{
		seg("2x", "2", "#00ff9d"),
		seg("0x", "0", "#ef4444"),
		seg("1.5x", "1.5", "#00e5ff"),
		seg("0x", "0", "#ef4444"),
		seg("3x", "3", "#f59e0b"),
		seg("0x", "0", "#ef4444"),
		seg("1.2x", "1.2", "#a855f7"),
		seg("0.5x", "0.5", "#ef4444"),
	}
}

// ValidateBatch garante ids únicos e linhas válidas antes de qualquer escrita
func ValidateBatch(batch []Outcome) error {
	seen := make(map[int64]struct{}, len(batch))
	for _, o := range batch {
		if err := o.Validate(); err != nil {
			return err
		}
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("%w: duplicated id %d", ErrInvalidOutcome, o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	return nil
}
