package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/shared/config"
	"github.com/radieske/spin-wager-platform/internal/shared/logger"
	"github.com/radieske/spin-wager-platform/internal/shared/metrics"
)

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil {
		return nil, err
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// newRouter monta o roteamento do gateway:
//
//	/api/spin/*     -> spin-service     (/spins, /notifications)
//	/api/wallet*    -> wallet-service   (/wallet/...)
//	/api/outcomes/* -> outcome-service  (/v1/outcomes/..., /ws)
func newRouter(spinURL, walletURL, outcomeURL string) (http.Handler, error) {
	spin, err := rp(spinURL)
	if err != nil {
		return nil, err
	}
	wallet, err := rp(walletURL)
	if err != nil {
		return nil, err
	}
	outcomes, err := rp(outcomeURL)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/spin/", http.StripPrefix("/api/spin", spin))
	mux.Handle("/api/wallet", http.StripPrefix("/api", wallet))
	mux.Handle("/api/wallet/", http.StripPrefix("/api", wallet))
	mux.Handle("/api/outcomes/", http.StripPrefix("/api/outcomes", outcomes))
	return withCORS(mux), nil
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	handler, err := newRouter(cfg.SpinURL, cfg.WalletURL, cfg.OutcomeURL)
	if err != nil {
		log.Fatal("gateway targets", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, nil)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("api-gateway listening", zap.String("addr", srv.Addr),
			zap.String("spin", cfg.SpinURL), zap.String("wallet", cfg.WalletURL), zap.String("outcome", cfg.OutcomeURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("gateway failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Admin-Token")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
