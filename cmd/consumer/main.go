package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"example.com/genid/internal/cache"
	"example.com/genid/internal/config"
	"example.com/genid/internal/consumer"
	"example.com/genid/internal/logging"
	httptransport "example.com/genid/internal/transport/http"
)

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

	handlers := []consumer.Handler{consumer.NewPersistenceHandler(pool)}
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.WithError(err).Warn("redis unavailable, cache invalidation disabled")
		} else {
			defer client.Close()
			handlers = append(handlers, consumer.NewCacheInvalidationHandler(cache.NewRedisProfileCache(client, cfg.ProfileCacheTTL)))
		}
	}
	handler := consumer.Chain(handlers...)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := httptransport.Run(ctx, httptransport.DefaultServerConfig(cfg.MetricsAddress), mux, logger); err != nil {
			logger.WithError(err).Error("metrics server error")
		}
	}()

	var wg sync.WaitGroup
	for _, topic := range cfg.ConsumerTopics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:         cfg.KafkaBrokers,
			GroupID:         cfg.ConsumerGroupID,
			Topic:           topic,
			MinBytes:        1e3,
			MaxBytes:        10e6,
			CommitInterval:  time.Second,
			RetentionTime:   24 * time.Hour,
			ReadLagInterval: -1,
		})

		log := logger.WithFields(logrus.Fields{"topic": topic, "group": cfg.ConsumerGroupID})
		proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(log))

		wg.Add(1)
		go func(r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()

			log.Info("consumer started")
			if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("consumer stopped")
			}
		}(reader)
	}

	<-ctx.Done()
	logger.Info("consumer shutdown requested")
	wg.Wait()
}
