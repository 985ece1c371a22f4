package dto

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/spin-wager-platform/internal/notification"
	"github.com/radieske/spin-wager-platform/internal/outcome"
)

type SpinResponse struct {
	NewBalance   decimal.Decimal `json:"newBalance"`
	OutcomeIndex int             `json:"outcomeIndex"`
	Multiplier   decimal.Decimal `json:"multiplier"`
	WinAmount    decimal.Decimal `json:"winAmount"`
	Label        string          `json:"label"`
}

// OutcomesResponse alimenta a roleta do front
type OutcomesResponse struct {
	Outcomes []outcome.Outcome `json:"outcomes"`
}

type NotificationsResponse struct {
	AccountID     string                      `json:"accountId"`
	Notifications []notification.Notification `json:"notifications"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
