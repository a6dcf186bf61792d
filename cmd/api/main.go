package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"example.com/genid/internal/api"
	"example.com/genid/internal/auth"
	"example.com/genid/internal/cache"
	"example.com/genid/internal/config"
	"example.com/genid/internal/domain"
	"example.com/genid/internal/eradication"
	"example.com/genid/internal/identifier"
	"example.com/genid/internal/identity"
	"example.com/genid/internal/logging"
	"example.com/genid/internal/membercard"
	"example.com/genid/internal/outbox"
	"example.com/genid/internal/persistence/memory"
	persistence "example.com/genid/internal/persistence/postgres"
	httptransport "example.com/genid/internal/transport/http"
)

// backend is everything the API needs from a store driver.
type backend interface {
	domain.UserRepository
	domain.ActivityRepository
	domain.IdentifierRepository
	identifier.Store
	identifier.Generator
	eradication.Store
	membercard.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store backend
	var dispatcher *outbox.Dispatcher
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on restart and no events are published")
		store = memory.NewStore()
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to postgres")
		}
		defer pool.Close()
		store = persistence.NewRepository(pool)

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers, outbox.WithClientID("genid-api"), outbox.WithProducerLogger(logger))
		defer producer.Close()
		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize, logger)
		go dispatcher.Start(ctx)
	}

	var profileCache domain.ProfileCache = cache.NoopProfileCache{}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, profile cache disabled")
		} else {
			defer client.Close()
			profileCache = cache.NewRedisProfileCache(client, cfg.ProfileCacheTTL)
		}
	}

	calendar := domain.Calendar{Location: cfg.Location}
	accounts := identity.NewAdminClient(cfg.IdentityURL, cfg.IdentityServiceKey, cfg.IdentityTimeout)
	if !accounts.Configured() {
		logger.Warn("IDENTITY_SERVICE_KEY not set; identity accounts will not be removed during eradication")
	}

	handler := api.NewHandler(api.Dependencies{
		Users:       domain.NewUserService(store, profileCache, calendar),
		Activities:  domain.NewActivityService(store, store, profileCache, calendar),
		Profiles:    domain.NewProfileService(store, store, store, profileCache, calendar),
		Identifiers: domain.NewIdentifierService(store, profileCache),
		Issuer:      identifier.NewIssuer(store, store, cfg.GenIDMaxAttempts,
			identifier.WithLogger(logger),
			identifier.WithProfileCache(profileCache),
		),
		Eradicator: eradication.NewService(store, accounts,
			eradication.WithLogger(logger),
			eradication.WithProfileCache(profileCache),
		),
		Members: membercard.NewService(store, logger),
		Admins:  auth.NewAdminPolicy(cfg.AdminEmails),
		Logger:  logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})
	root := api.CORS(cfg.CORSOrigin)(api.RequestLogger(logger)(authMiddleware.Wrap(mux)))

	go serveMetrics(ctx, cfg.MetricsAddress, logger)

	if err := httptransport.Run(ctx, httptransport.DefaultServerConfig(cfg.HTTPAddress), root, logger); err != nil {
		logger.WithError(err).Error("server error")
	}
	stop()

	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Info("genid api stopped")
}

func serveMetrics(ctx context.Context, address string, logger logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := httptransport.Run(ctx, httptransport.DefaultServerConfig(address), mux, logger.WithField("server", "metrics")); err != nil {
		logger.WithError(err).Error("metrics server error")
	}
}
