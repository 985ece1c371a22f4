package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/outcome"
	"github.com/radieske/spin-wager-platform/pkg/contracts/events"
)

// AdminHeader carrega o token do administrador
const AdminHeader = "X-Admin-Token"

// Publisher avisa as demais instâncias que a tabela mudou
type Publisher interface {
	PublishTableUpdated(ctx context.Context, ev events.OutcomeTableUpdated) error
}

// Invalidator descarta o snapshot em cache
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// API expõe a tabela de resultados: leitura pública e escrita do admin
type API struct {
	Log        *zap.Logger
	Table      outcome.Table  // fonte autoritativa (Postgres)
	Visible    outcome.Reader // leitura pública, normalmente via cache Redis
	Cache      Invalidator    // opcional
	Publisher  Publisher      // opcional
	AdminToken string         // vazio desliga as rotas de admin
	WS         http.HandlerFunc

	OnUpdated func(reason string) // métricas
}

type updateRequest struct {
	Outcomes []outcome.Outcome `json:"outcomes"`
}

type listResponse struct {
	Outcomes []outcome.Outcome `json:"outcomes"`
}

type seedResponse struct {
	Seeded bool `json:"seeded"`
}

// Router retorna o roteador HTTP com os endpoints REST
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/v1/outcomes/visible", a.listVisible) // público (roleta)
	r.Group(func(r chi.Router) {
		r.Use(a.requireAdmin)
		r.Get("/v1/outcomes", a.listAll)
		r.Put("/v1/outcomes", a.update)
		r.Post("/v1/outcomes/seed", a.seed)
	})
	if a.WS != nil {
		r.Get("/ws", a.WS)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (a *API) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.AdminToken == "" {
			writeError(w, http.StatusForbidden, "admin disabled")
			return
		}
		got := r.Header.Get(AdminHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.AdminToken)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) listVisible(w http.ResponseWriter, r *http.Request) {
	rows, err := a.Visible.Visible(r.Context())
	if err != nil {
		a.Log.Error("list visible outcomes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []outcome.Outcome{}
	}
	writeJSON(w, http.StatusOK, listResponse{Outcomes: rows})
}

func (a *API) listAll(w http.ResponseWriter, r *http.Request) {
	rows, err := a.Table.List(r.Context())
	if err != nil {
		a.Log.Error("list outcomes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []outcome.Outcome{}
	}
	writeJSON(w, http.StatusOK, listResponse{Outcomes: rows})
}

// update aplica o lote inteiro ou nada
func (a *API) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if len(req.Outcomes) == 0 {
		writeError(w, http.StatusBadRequest, "outcomes required")
		return
	}

	if err := a.Table.Update(r.Context(), req.Outcomes); err != nil {
		switch {
		case errors.Is(err, outcome.ErrInvalidOutcome):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, outcome.ErrOutcomeNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			a.Log.Error("update outcomes", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	a.changed(r.Context(), "update", len(req.Outcomes))
	a.listAll(w, r)
}

// seed insere a roleta padrão somente com a tabela vazia
func (a *API) seed(w http.ResponseWriter, r *http.Request) {
	defaults := outcome.DefaultWheel()
	seeded, err := a.Table.Seed(r.Context(), defaults)
	if err != nil {
		a.Log.Error("seed outcomes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if seeded {
		a.changed(r.Context(), "seed", len(defaults))
	}
	writeJSON(w, http.StatusOK, seedResponse{Seeded: seeded})
}

// changed invalida o cache e publica o evento; falhas aqui só são logadas
func (a *API) changed(ctx context.Context, reason string, count int) {
	a.Log.Info("outcome table changed", zap.String("reason", reason), zap.Int("count", count))
	if a.OnUpdated != nil {
		a.OnUpdated(reason)
	}
	if a.Cache != nil {
		if err := a.Cache.Invalidate(ctx); err != nil {
			a.Log.Warn("invalidate outcome cache", zap.Error(err))
		}
	}
	if a.Publisher != nil {
		ev := events.OutcomeTableUpdated{Reason: reason, Count: count, UpdatedAt: time.Now().UTC()}
		if err := a.Publisher.PublishTableUpdated(ctx, ev); err != nil {
			a.Log.Warn("publish outcome table update", zap.Error(err))
		}
	}
}
