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
	"github.com/radieske/spin-wager-platform/internal/notification/producer"
	notifrepo "github.com/radieske/spin-wager-platform/internal/notification/repo"
	"github.com/radieske/spin-wager-platform/internal/outcome"
	outcomecache "github.com/radieske/spin-wager-platform/internal/outcome/cache"
	outcomerepo "github.com/radieske/spin-wager-platform/internal/outcome/repo"
	"github.com/radieske/spin-wager-platform/internal/settlement"
	shttp "github.com/radieske/spin-wager-platform/internal/spin-service/http"
	sharedcache "github.com/radieske/spin-wager-platform/internal/shared/cache"
	"github.com/radieske/spin-wager-platform/internal/shared/config"
	"github.com/radieske/spin-wager-platform/internal/shared/db"
	"github.com/radieske/spin-wager-platform/internal/shared/kafka"
	"github.com/radieske/spin-wager-platform/internal/shared/logger"
	"github.com/radieske/spin-wager-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: ledger, tabela de resultados e caixa de notificações
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("pg migrate", zap.Error(err))
	}

	// Redis: somente cache da tabela para exibição
	rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic spin_notifications)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNotifications)
	defer writer.Close()

	// Métricas Prometheus da liquidação
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "spin_settled_total", Help: "spins liquidados por tipo de lançamento"}, []string{"kind"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "spin_failed_total", Help: "spins não liquidados por motivo"}, []string{"reason"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{Name: "spin_retries_total", Help: "tentativas repetidas por conflito de serialização"})
	notifyErrors := prometheus.NewCounter(prometheus.CounterOpts{Name: "spin_notify_errors_total", Help: "falhas ao emitir notificação"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "spin_outcome_cache_hits_total", Help: "leituras da tabela servidas pelo Redis"})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "spin_outcome_cache_misses_total", Help: "leituras da tabela que foram ao banco"})
	prometheus.MustRegister(settled, failed, retries, notifyErrors, cacheHits, cacheMisses)

	// deps
	ledgerStore := ledgerrepo.NewPostgres(pg)
	outcomes := outcomerepo.NewPostgres(pg)
	display := outcomecache.NewRedisCache(rdb, outcomes, cfg.OutcomeCacheTTL)
	display.OnHit = cacheHits.Inc
	display.OnMiss = cacheMisses.Inc

	engine := settlement.New(log, ledgerStore, outcomes, outcome.CryptoSource{}, producer.NewKafkaSink(writer), settlement.Config{
		MaxAttempts:    cfg.SpinMaxAttempts,
		AttemptTimeout: cfg.SpinAttemptTimeout,
		NotifyTimeout:  cfg.SpinNotifyTimeout,
		RetryBackoff:   20 * time.Millisecond,
		MaxStake:       cfg.SpinMaxStake,
	})
	engine.OnSettled = func(kind string) { settled.WithLabelValues(kind).Inc() }
	engine.OnFailed = func(reason string) { failed.WithLabelValues(reason).Inc() }
	engine.OnRetry = retries.Inc
	engine.OnNotifyError = notifyErrors.Inc

	// HTTP público
	api := shttp.NewServer(log, engine, display, notifrepo.NewPostgresRepo(pg))
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// metrics/health
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.HealthChecks{
		"pg":    pg.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	go func() {
		log.Info("spin-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	// aguarda notificações em voo antes de fechar o writer
	engine.Wait()
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("spin-service stopped")
}
