package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echo responde com o nome do serviço e o path recebido
func echo(name string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, name+" "+r.URL.Path)
	}))
}

func TestRouterForwardsByPrefix(t *testing.T) {
	spin, wallet, outcomes := echo("spin"), echo("wallet"), echo("outcome")
	defer spin.Close()
	defer wallet.Close()
	defer outcomes.Close()

	h, err := newRouter(spin.URL, wallet.URL, outcomes.URL)
	require.NoError(t, err)

	cases := map[string]string{
		"/api/spin/spins":           "spin /spins",
		"/api/spin/notifications":   "spin /notifications",
		"/api/wallet":               "wallet /wallet",
		"/api/wallet/ledger":        "wallet /wallet/ledger",
		"/api/outcomes/v1/outcomes": "outcome /v1/outcomes",
		"/api/outcomes/ws":          "outcome /ws",
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, rec.Body.String(), path)
	}
}

func TestCORSPreflight(t *testing.T) {
	h, err := newRouter("http://127.0.0.1:1", "http://127.0.0.1:1", "http://127.0.0.1:1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/spin/spins", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Admin-Token")
}
