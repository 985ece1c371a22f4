package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/notification"
	"github.com/radieske/spin-wager-platform/internal/outcome"
	"github.com/radieske/spin-wager-platform/internal/settlement"
	"github.com/radieske/spin-wager-platform/internal/spin-service/dto"
)

// Settler é o motor de liquidação visto pelo handler
type Settler interface {
	Settle(ctx context.Context, accountID string, stake decimal.Decimal) (settlement.Result, error)
}

// Inbox lista as notificações persistidas pelo notification-worker
type Inbox interface {
	ListRecent(ctx context.Context, accountID string, limit int) ([]notification.Notification, error)
}

type Server struct {
	log      *zap.Logger
	engine   Settler
	outcomes outcome.Reader
	inbox    Inbox
}

func NewServer(log *zap.Logger, engine Settler, outcomes outcome.Reader, inbox Inbox) *Server {
	return &Server{log: log, engine: engine, outcomes: outcomes, inbox: inbox}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/spins", s.spin)                      // POST
	mux.HandleFunc("/spins/outcomes", s.listOutcomes)     // GET
	mux.HandleFunc("/notifications", s.listNotifications) // GET ?accountId=...
	return mux
}

func (s *Server) spin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dto.SpinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.AccountID == "" {
		writeError(w, http.StatusBadRequest, "accountId required")
		return
	}

	res, err := s.engine.Settle(r.Context(), req.AccountID, req.Stake)
	if err != nil {
		status, msg := StatusFor(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, dto.SpinResponse{
		NewBalance:   res.NewBalance,
		OutcomeIndex: res.OutcomeIndex,
		Multiplier:   res.Multiplier,
		WinAmount:    res.WinAmount,
		Label:        res.Label,
	})
}

// StatusFor mapeia erros da liquidação para HTTP.
// Erro de configuração da tabela vira 500 genérico: o cliente não precisa saber.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, settlement.ErrInvalidStake):
		return http.StatusBadRequest, "invalid stake"
	case errors.Is(err, settlement.ErrStakeTooLarge):
		return http.StatusBadRequest, "stake exceeds maximum"
	case errors.Is(err, settlement.ErrAccountNotFound):
		return http.StatusNotFound, "account not found"
	case errors.Is(err, settlement.ErrInsufficientFunds):
		return http.StatusBadRequest, "insufficient balance"
	case errors.Is(err, settlement.ErrSettlementConflict):
		return http.StatusConflict, "concurrent update, try again"
	case errors.Is(err, settlement.ErrSettlementTimeout):
		return http.StatusServiceUnavailable, "timeout, try again"
	}
	return http.StatusInternalServerError, "internal error"
}

func (s *Server) listOutcomes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rows, err := s.outcomes.Visible(r.Context())
	if err != nil {
		s.log.Error("read outcomes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []outcome.Outcome{}
	}
	writeJSON(w, http.StatusOK, dto.OutcomesResponse{Outcomes: rows})
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "accountId required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := s.inbox.ListRecent(r.Context(), accountID, limit)
	if err != nil {
		s.log.Error("list notifications", zap.String("accountId", accountID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if list == nil {
		list = []notification.Notification{}
	}
	writeJSON(w, http.StatusOK, dto.NotificationsResponse{AccountID: accountID, Notifications: list})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}
