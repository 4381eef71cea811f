package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/scanpay-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/scanpay-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/scanpay-backend/api/controllers/orders"
	"github.com/angelmondragon/scanpay-backend/api/middleware"
	"github.com/angelmondragon/scanpay-backend/internal/bundles"
	"github.com/angelmondragon/scanpay-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/scanpay-backend/internal/checkout"
	"github.com/angelmondragon/scanpay-backend/internal/orders"
	"github.com/angelmondragon/scanpay-backend/internal/products"
	"github.com/angelmondragon/scanpay-backend/internal/risk"
	"github.com/angelmondragon/scanpay-backend/pkg/config"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/metrics"
	"github.com/angelmondragon/scanpay-backend/pkg/redis"
)

// Dependencies are the services the API routes to. Nil services answer 500.
type Dependencies struct {
	Readiness   map[string]controllers.Pinger
	Idempotency redis.IdempotencyStore
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Catalog  products.Catalog
	Bundles  *bundles.Catalog
	Cart     cart.Service
	Checkout checkoutsvc.Service
	Loyalty  controllers.LoyaltyReader
	Orders   orders.Service
	Scorer   *risk.Scorer
	Now      func() time.Time
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.Readiness, logg))
	})

	idempotent := middleware.Idempotency(deps.Idempotency, cfg.Eventing.CheckoutIdemTTL, logg)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductsList(deps.Catalog, logg))
		r.Get("/products/{productId}", controllers.ProductGet(deps.Catalog, logg))
		r.Get("/products/scan/{qrCode}", controllers.ProductScan(deps.Catalog, logg))
		r.Get("/bundles", controllers.BundlesList(deps.Bundles, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.CartOwner(logg))

			r.Get("/", cartcontrollers.Get(deps.Cart, logg))
			r.Delete("/", cartcontrollers.Clear(deps.Cart, logg))
			r.Post("/items", cartcontrollers.AddItem(deps.Cart, logg))
			r.Patch("/items/{productId}", cartcontrollers.UpdateQuantity(deps.Cart, logg))
			r.Delete("/items/{productId}", cartcontrollers.RemoveItem(deps.Cart, logg))
			r.Post("/points", cartcontrollers.RedeemPoints(deps.Cart, logg))
			r.Delete("/points", cartcontrollers.ClearPoints(deps.Cart, logg))
			r.Post("/spin", cartcontrollers.Spin(deps.Cart, logg))
			r.Post("/bundle", cartcontrollers.AcceptBundle(deps.Cart, logg))
			r.Delete("/bundle", cartcontrollers.ClearBundle(deps.Cart, logg))
			r.Delete("/bundle/offer", cartcontrollers.DismissBundleOffer(deps.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Get("/loyalty/balance", controllers.LoyaltyBalance(deps.Loyalty, logg))
			r.Get("/loyalty/history", controllers.LoyaltyHistory(deps.Loyalty, logg))
			r.With(idempotent).Post("/checkout", controllers.Checkout(deps.Checkout, logg))
			r.Get("/orders", ordercontrollers.Mine(deps.Orders, logg))
		})

		r.Route("/staff/orders", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.RequireRole(enums.RoleStaff, logg))

			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/stats", ordercontrollers.Stats(deps.Orders, logg))
			if cfg.FeatureFlags.DemoRoutes {
				r.Get("/demo", ordercontrollers.Demo(deps.Scorer, deps.Now, logg))
			}
			r.With(idempotent).Post("/verify", ordercontrollers.Verify(deps.Orders, logg))
			r.Get("/{orderNumber}", ordercontrollers.Get(deps.Orders, logg))
			r.Delete("/{orderNumber}", ordercontrollers.Delete(deps.Orders, logg))
		})
	})

	return r
}
