// Package notification cobre o aviso ao usuário depois de um spin liquidado.
// A emissão é efeito colateral: falhar aqui nunca desfaz o commit financeiro.
package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/spin-wager-platform/pkg/contracts/events"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeveritySuccess, SeverityWarning, SeverityError:
		return true
	}
	return false
}

type Notification struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Title     string    `json:"title"`
	Body      string    `json:"message"`
	Severity  Severity  `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sink entrega a notificação (Kafka em produção)
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// SinkFunc adapta uma função para Sink
type SinkFunc func(ctx context.Context, n Notification) error

func (f SinkFunc) Notify(ctx context.Context, n Notification) error { return f(ctx, n) }

// ForSettlement monta a mensagem de um spin. Título e severidade seguem o
// resultado líquido: multiplicador abaixo de 1 devolve parte da aposta, mas o
// saldo ainda cai.
func ForSettlement(accountID, label string, stake, winAmount decimal.Decimal, at time.Time) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CreatedAt: at.UTC(),
	}
	net := winAmount.Sub(stake)
	switch {
	case net.IsPositive():
		n.Title = "You won!"
		n.Body = fmt.Sprintf("Spin landed on %s: you won %s (stake %s).",
			label, winAmount.StringFixed(2), stake.StringFixed(2))
		n.Severity = SeveritySuccess
	case net.IsZero():
		n.Title = "Stake returned"
		n.Body = fmt.Sprintf("Spin landed on %s: your stake of %s was returned.", label, stake.StringFixed(2))
		n.Severity = SeverityInfo
	case winAmount.IsPositive():
		n.Title = "Partial return"
		n.Body = fmt.Sprintf("Spin landed on %s: %s of your %s stake was returned (net %s).",
			label, winAmount.StringFixed(2), stake.StringFixed(2), net.StringFixed(2))
		n.Severity = SeverityInfo
	default:
		n.Title = "No luck this time"
		n.Body = fmt.Sprintf("Spin landed on %s: you lost %s.", label, stake.StringFixed(2))
		n.Severity = SeverityInfo
	}
	return n
}

// ToEvent converte para o contrato publicado no Kafka
func ToEvent(n Notification) events.NotificationRequested {
	return events.NotificationRequested{
		NotificationID: n.ID,
		AccountID:      n.AccountID,
		Title:          n.Title,
		Body:           n.Body,
		Severity:       string(n.Severity),
		CreatedAt:      n.CreatedAt,
		TsUnixMs:       time.Now().UnixMilli(),
	}
}

// FromEvent valida o evento consumido e devolve o modelo
func FromEvent(ev events.NotificationRequested) (Notification, error) {
	if ev.NotificationID == "" || ev.AccountID == "" {
		return Notification{}, fmt.Errorf("notification event missing ids")
	}
	sev := Severity(ev.Severity)
	if !sev.Valid() {
		return Notification{}, fmt.Errorf("notification event: invalid severity %q", ev.Severity)
	}
	return Notification{
		ID:        ev.NotificationID,
		AccountID: ev.AccountID,
		Title:     ev.Title,
		Body:      ev.Body,
		Severity:  sev,
		CreatedAt: ev.CreatedAt,
	}, nil
}
