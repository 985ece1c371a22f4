package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	ledgerrepo "github.com/radieske/spin-wager-platform/internal/ledger/repo"
	"github.com/radieske/spin-wager-platform/internal/shared/config"
	"github.com/radieske/spin-wager-platform/internal/shared/db"
	"github.com/radieske/spin-wager-platform/internal/shared/logger"
	"github.com/radieske/spin-wager-platform/internal/shared/metrics"
	whttp "github.com/radieske/spin-wager-platform/internal/wallet-service/http"
)

func main() {
	cfg := config.Load()

	// Inicializa logger estruturado
	log, err := logger.New("wallet-service", cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("service", "wallet-service"), zap.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Conexão com Postgres para saldo e ledger
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	deposits := prometheus.NewCounter(prometheus.CounterOpts{Name: "wallet_deposits_total", Help: "depósitos confirmados"})
	prometheus.MustRegister(deposits)

	// Instancia ledger e servidor HTTP da wallet
	api := whttp.NewServer(log, ledgerrepo.NewPostgres(pg))
	api.OnDeposit = deposits.Inc

	// Servidor HTTP público (API de wallet)
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort, // ex: 8082
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Servidor de métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.HealthChecks{"pg": pg.PingContext}) // ex: 9098

	// Inicia servidor principal da API de wallet
	go func() {
		log.Info("api listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api srv", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("wallet-service stopped")
}
