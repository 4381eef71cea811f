package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/angelmondragon/scanpay-backend/internal/analytics/router"
	"github.com/angelmondragon/scanpay-backend/internal/analytics/worker"
	"github.com/angelmondragon/scanpay-backend/internal/analytics/writer"
	"github.com/angelmondragon/scanpay-backend/pkg/bigquery"
	"github.com/angelmondragon/scanpay-backend/pkg/config"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/idempotency"
	"github.com/angelmondragon/scanpay-backend/pkg/pubsub"
	"github.com/angelmondragon/scanpay-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "analytics-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "analytics-worker"

	logg = logger.New(logger.Options{
		ServiceName: "analytics-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)

	bqClient, err := bigquery.NewClient(ctx, cfg.GCP, cfg.BigQuery, logg)
	requireResource(ctx, logg, "bigquery client", err)

	defer func() {
		if err := multierr.Combine(bqClient.Close(), pubsubClient.Close(), redisClient.Close()); err != nil {
			logg.Error(ctx, "failed to close analytics worker clients", err)
		}
	}()

	subscription := pubsubClient.AnalyticsSubscription()
	if subscription == nil {
		requireResource(ctx, logg, "analytics subscription", errors.New("subscription not configured"))
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Eventing.OutboxIdempotencyTTL)
	requireResource(ctx, logg, "idempotency manager", err)

	// Rows are written before the message is acked, so no batching.
	factsWriter, err := writer.New(bqClient, writer.Config{
		OrderFactsTable: cfg.BigQuery.OrderFactsTable,
		BatchSize:       1,
		RetryPolicy: writer.RetryPolicy{
			MaxAttempts:    cfg.BigQuery.MaxInsertRetries,
			InitialBackoff: 200 * time.Millisecond,
			MaximumBackoff: 5 * time.Second,
		},
	})
	requireResource(ctx, logg, "order facts writer", err)

	routingHandler, err := router.NewRouter(factsWriter, logg, nil)
	requireResource(ctx, logg, "analytics router", err)

	service, err := worker.NewService(subscription, routingHandler, manager, factsWriter, logg)
	requireResource(ctx, logg, "analytics worker service", err)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "analytics worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "analytics worker failed", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
