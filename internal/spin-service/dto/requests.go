package dto

import "github.com/shopspring/decimal"

type SpinRequest struct {
	AccountID string          `json:"accountId"`
	Stake     decimal.Decimal `json:"stake"` // aceita número ou string JSON
}
