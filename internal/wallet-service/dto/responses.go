package dto

import (
	"github.com/shopspring/decimal"

	"github.com/radieske/spin-wager-platform/internal/ledger"
)

type WalletResponse struct {
	AccountID string          `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
}

type DepositResponse struct {
	AccountID  string          `json:"accountId"`
	NewBalance decimal.Decimal `json:"newBalance"`
	EntryID    string          `json:"entryId"`
}

// LedgerResponse lista os lançamentos do mais novo para o mais antigo
type LedgerResponse struct {
	AccountID string         `json:"accountId"`
	Entries   []ledger.Entry `json:"entries"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
