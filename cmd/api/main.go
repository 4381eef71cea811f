package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/angelmondragon/scanpay-backend/api/controllers"
	"github.com/angelmondragon/scanpay-backend/api/routes"
	"github.com/angelmondragon/scanpay-backend/internal/bundles"
	"github.com/angelmondragon/scanpay-backend/internal/cart"
	"github.com/angelmondragon/scanpay-backend/internal/checkout"
	"github.com/angelmondragon/scanpay-backend/internal/loyalty"
	"github.com/angelmondragon/scanpay-backend/internal/orders"
	"github.com/angelmondragon/scanpay-backend/internal/products"
	"github.com/angelmondragon/scanpay-backend/internal/risk"
	"github.com/angelmondragon/scanpay-backend/internal/spinner"
	"github.com/angelmondragon/scanpay-backend/pkg/config"
	"github.com/angelmondragon/scanpay-backend/pkg/db"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/metrics"
	"github.com/angelmondragon/scanpay-backend/pkg/migrate"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox"
	"github.com/angelmondragon/scanpay-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	requireResource(ctx, logg, "database", err)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	productRepo := products.NewRepository(dbClient.DB())
	if cfg.App.IsDev() {
		requireResource(ctx, logg, "product seed", products.SeedIfEmpty(ctx, productRepo, logg))
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	pointValue, err := cfg.Pricing.PointValue()
	requireResource(ctx, logg, "pricing config", err)
	rates := loyalty.Rates{PointValue: pointValue, EarnRatePercent: cfg.Pricing.EarnRatePercent}

	loc, err := cfg.Risk.Location()
	requireResource(ctx, logg, "risk timezone", err)
	scorer := risk.NewScorer(loc, cfg.Risk.Threshold)

	catalog, err := products.NewService(productRepo, cfg.Cart.CatalogCacheTTL)
	requireResource(ctx, logg, "product catalog", err)
	bundleCatalog := bundles.DefaultCatalog()

	loyaltyService, err := loyalty.NewService(loyalty.NewRepository(dbClient.DB()), dbClient, rates, cfg.Pricing.DefaultPointsBalance, logg)
	requireResource(ctx, logg, "loyalty service", err)

	cartStore, err := cart.NewRedisStore(redisClient, cfg.Cart.SessionTTL)
	requireResource(ctx, logg, "cart store", err)

	cartService, err := cart.NewService(cart.ServiceParams{
		Store:            cartStore,
		Catalog:          catalog,
		Bundles:          bundleCatalog,
		Balances:         loyaltyService,
		Rates:            rates,
		SpinnerThreshold: decimal.NewFromInt(int64(cfg.Pricing.SpinnerThreshold)),
		Wheel:            spinner.Wheel{},
		Logger:           logg,
	})
	requireResource(ctx, logg, "cart service", err)

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	ordersRepo := orders.NewRepository(dbClient.DB())

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, logg)
	requireResource(ctx, logg, "orders service", err)

	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		Tx:      dbClient,
		Carts:   cartService,
		Orders:  ordersRepo,
		Loyalty: loyaltyService,
		Scorer:  scorer,
		Outbox:  outboxService,
		Metrics: metrics.NewCheckoutMetrics(reg),
		Logger:  logg,
	})
	requireResource(ctx, logg, "checkout service", err)

	handler := routes.NewRouter(cfg, logg, routes.Dependencies{
		Readiness:   map[string]controllers.Pinger{"db": dbClient, "redis": redisClient},
		Idempotency: redisClient,
		HTTPMetrics: metrics.NewHTTPMetrics(reg),
		Gatherer:    reg,
		Catalog:     catalog,
		Bundles:     bundleCatalog,
		Cart:        cartService,
		Checkout:    checkoutService,
		Loyalty:     loyaltyService,
		Orders:      ordersService,
		Scorer:      scorer,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(runCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		logg.Info(runCtx, "api server shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), shutdownTimeout)
	defer cancel()
	err = multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if err != nil {
		logg.Error(shutdownCtx, "api shutdown incomplete", err)
		os.Exit(1)
	}
	logg.Info(shutdownCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
