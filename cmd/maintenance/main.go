// Command maintenance replays dead-lettered outbox events and runs the
// scheduled orphan audit.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"example.com/genid/internal/config"
	"example.com/genid/internal/eradication"
	"example.com/genid/internal/identity"
	"example.com/genid/internal/logging"
	"example.com/genid/internal/outbox"
	persistence "example.com/genid/internal/persistence/postgres"
	httptransport "example.com/genid/internal/transport/http"
)

const defaultDLQBatchSize = 50

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay, logger)
	eradicator := eradication.NewService(
		persistence.NewRepository(pool),
		identity.NewAdminClient(cfg.IdentityURL, cfg.IdentityServiceKey, cfg.IdentityTimeout),
		eradication.WithLogger(logger),
	)

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := scheduler.AddFunc(cfg.DLQSchedule, func() { replayDLQ(ctx, manager, logger) }); err != nil {
		logger.WithError(err).Fatal("invalid DLQ_SCHEDULE")
	}
	if _, err := scheduler.AddFunc(cfg.AuditSchedule, func() { audit(ctx, eradicator, logger) }); err != nil {
		logger.WithError(err).Fatal("invalid AUDIT_SCHEDULE")
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := httptransport.Run(ctx, httptransport.DefaultServerConfig(cfg.MetricsAddress), mux, logger); err != nil {
			logger.WithError(err).Error("metrics server error")
		}
	}()

	logger.WithFields(logrus.Fields{
		"dlq_schedule":   cfg.DLQSchedule,
		"audit_schedule": cfg.AuditSchedule,
		"max_retries":    cfg.DLQMaxRetries,
	}).Info("maintenance scheduler started")
	scheduler.Start()

	<-ctx.Done()
	logger.Info("maintenance shutdown requested")
	<-scheduler.Stop().Done()
}

func replayDLQ(ctx context.Context, manager *outbox.DLQManager, logger logrus.FieldLogger) {
	if _, err := manager.RunOnce(ctx, defaultDLQBatchSize); err != nil {
		logger.WithError(err).Error("dlq replay failed")
	}
}

func audit(ctx context.Context, eradicator *eradication.Service, logger logrus.FieldLogger) {
	entries, err := eradicator.Audit(ctx)
	if err != nil {
		logger.WithError(err).Error("orphan audit failed")
		return
	}
	for _, entry := range entries {
		logger.WithFields(logrus.Fields{
			"account_id":  entry.AccountID,
			"activities":  entry.Remnants.Activities,
			"identifiers": entry.Remnants.Identifiers,
			"user_rows":   entry.Remnants.UserRows,
		}).Warn("identity account has local data")
	}
	logger.WithField("findings", len(entries)).Info("orphan audit finished")
}
