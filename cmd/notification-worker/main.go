package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/radieske/spin-wager-platform/internal/notification/consumer"
	notifrepo "github.com/radieske/spin-wager-platform/internal/notification/repo"
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

	// Sinalização para shutdown gracioso (SIGINT/SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Conexão com Postgres para a caixa de notificações
	pg, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()
	if err := db.Migrate(ctx, pg); err != nil {
		log.Fatal("postgres migrate", zap.Error(err))
	}

	// Kafka consumer (consumer group notification-worker) e DLQ opcional
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicNotifications, "notification-worker")
	defer reader.Close()

	var dlq kafka.MessageWriter
	if cfg.TopicNotificationsDLQ != "" {
		w := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicNotificationsDLQ)
		defer w.Close()
		dlq = w
	}

	// Métricas Prometheus para monitoramento do processamento
	consumed := prometheus.NewCounter(prometheus.CounterOpts{Name: "notif_messages_consumed_total", Help: "mensagens consumidas"})
	persisted := prometheus.NewCounter(prometheus.CounterOpts{Name: "notif_db_writes_total", Help: "notificações gravadas"})
	dlqSent := prometheus.NewCounter(prometheus.CounterOpts{Name: "notif_dlq_total", Help: "mensagens enviadas para a DLQ"})
	errorsBy := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "notif_errors_total", Help: "erros por estágio"}, []string{"stage"})
	prometheus.MustRegister(consumed, persisted, dlqSent, errorsBy)

	proc := &consumer.Processor{
		Log:          log,
		Reader:       reader,
		Store:        notifrepo.NewPostgresRepo(pg),
		DLQ:          dlq,
		Retries:      3,
		RetryBackoff: 300 * time.Millisecond,
		OnConsumed:   consumed.Inc,
		OnPersist:    persisted.Inc,
		OnDLQ:        dlqSent.Inc,
		OnError:      func(stage string) { errorsBy.WithLabelValues(stage).Inc() },
	}

	// Servidor HTTP para métricas e health check
	metricsSrv := metrics.StartMetricsServer(log, cfg.MetricsPort, metrics.HealthChecks{"pg": pg.PingContext})
	defer metricsSrv.Close()

	log.Info("notification-worker started",
		zap.String("consume", cfg.TopicNotifications),
		zap.String("dlq", cfg.TopicNotificationsDLQ),
	)
	if err := proc.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("processor stopped with error", zap.Error(err))
	}
	log.Info("notification-worker stopped")
}
