package dto

import "github.com/shopspring/decimal"

type OpenAccountRequest struct {
	AccountID      string          `json:"accountId"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

type DepositRequest struct {
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
}
