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

	httpapi "github.com/radieske/spin-wager-platform/internal/outcome-service/http"
	"github.com/radieske/spin-wager-platform/internal/outcome-service/pubsub"
	"github.com/radieske/spin-wager-platform/internal/outcome-service/ws"
	outcomecache "github.com/radieske/spin-wager-platform/internal/outcome/cache"
	outcomerepo "github.com/radieske/spin-wager-platform/internal/outcome/repo"
	sharedcache "github.com/radieske/spin-wager-platform/internal/shared/cache"
	"github.com/radieske/spin-wager-platform/internal/shared/config"
	"github.com/radieske/spin-wager-platform/internal/shared/db"
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

	// Inicializa dependências: Postgres e Redis
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	rdb, err := sharedcache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	if cfg.AdminToken == "" {
		log.Warn("ADMIN_TOKEN not set: admin routes disabled")
	}

	updates := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "outcome_table_updates_total", Help: "alterações da tabela por motivo"}, []string{"reason"})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{Name: "outcome_cache_hits_total", Help: "leituras servidas pelo Redis"})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{Name: "outcome_cache_misses_total", Help: "leituras que foram ao banco"})
	prometheus.MustRegister(updates, cacheHits, cacheMisses)

	table := outcomerepo.NewPostgres(pg)
	rcache := outcomecache.NewRedisCache(rdb, table, cfg.OutcomeCacheTTL)
	rcache.OnHit = cacheHits.Inc
	rcache.OnMiss = cacheMisses.Inc

	// WebSocket: alterações chegam pelo Redis Pub/Sub, vindas de qualquer instância
	hub := ws.NewHub(log, func(r *http.Request) bool { return true })
	subDone := ws.StartRedisSubscriber(ctx, log, rdb, cfg.RedisOutcomeChannel, hub)

	api := &httpapi.API{
		Log:        log,
		Table:      table,
		Visible:    rcache,
		Cache:      rcache,
		Publisher:  pubsub.NewRedisBroadcaster(rdb, cfg.RedisOutcomeChannel),
		AdminToken: cfg.AdminToken,
		WS:         hub.HandleWS,
		OnUpdated:  func(reason string) { updates.WithLabelValues(reason).Inc() },
	}
	apiSrv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.HealthChecks{
		"pg":    pg.PingContext,
		"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})

	go func() {
		log.Info("outcome-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutdownCtx)
	<-subDone
	_ = metricsSrv.Shutdown(shutdownCtx)
	log.Info("outcome-service stopped")
}
