package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/ledger"
	"github.com/radieske/spin-wager-platform/internal/wallet-service/dto"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 500
)

// Server expõe saldo, depósitos e histórico do ledger
type Server struct {
	log   *zap.Logger
	store ledger.Store

	OnDeposit func() // métricas
}

// NewServer instancia o servidor HTTP de wallet
func NewServer(log *zap.Logger, store ledger.Store) *Server { return &Server{log: log, store: store} }

// Router retorna o mux HTTP com as rotas da API de wallet
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/wallet", s.getWallet)         // GET ?accountId=...
	mux.HandleFunc("/wallet/accounts", s.open)     // POST
	mux.HandleFunc("/wallet/deposit", s.deposit)   // POST
	mux.HandleFunc("/wallet/ledger", s.ledgerList) // GET ?accountId=...&limit=...
	return mux
}

// getWallet retorna o saldo autoritativo da conta
func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "accountId required")
		return
	}
	bal, err := s.store.Balance(r.Context(), accountID)
	if err != nil {
		s.fail(w, "balance", err)
		return
	}
	writeJSON(w, http.StatusOK, dto.WalletResponse{AccountID: accountID, Balance: bal})
}

// open cria a conta; saldo inicial opcional vira depósito no ledger
func (s *Server) open(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "accountId required")
		return
	}
	acc, err := s.store.OpenAccount(r.Context(), req.AccountID, req.InitialBalance)
	if err != nil {
		s.fail(w, "open account", err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.WalletResponse{AccountID: acc.ID, Balance: acc.Balance})
}

// deposit credita a conta (cria no primeiro depósito)
func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "accountId required")
		return
	}
	acc, entry, err := s.store.Deposit(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		s.fail(w, "deposit", err)
		return
	}
	if s.OnDeposit != nil {
		s.OnDeposit()
	}
	s.log.Info("deposit",
		zap.String("accountId", acc.ID),
		zap.String("amount", req.Amount.String()),
		zap.String("entryId", entry.ID))
	writeJSON(w, http.StatusOK, dto.DepositResponse{AccountID: acc.ID, NewBalance: acc.Balance, EntryID: entry.ID})
}

// ledgerList devolve o histórico paginado, mais novo primeiro
func (s *Server) ledgerList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "accountId required")
		return
	}
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLedgerLimit
	}
	limit = min(limit, maxLedgerLimit)

	entries, err := s.store.Entries(r.Context(), accountID)
	if err != nil {
		s.fail(w, "ledger", err)
		return
	}

	out := make([]ledger.Entry, 0, min(limit, len(entries)))
	for i := len(entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, entries[i])
	}
	writeJSON(w, http.StatusOK, dto.LedgerResponse{AccountID: accountID, Entries: out})
}

func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, ledger.ErrAccountExists):
		writeError(w, http.StatusConflict, "account already exists")
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrNegativeBalance):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error(op, zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeJSON serializa e envia resposta JSON
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
