package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/internal/bundles"
	"github.com/angelmondragon/scanpay-backend/internal/cart"
	"github.com/angelmondragon/scanpay-backend/internal/loyalty"
	"github.com/angelmondragon/scanpay-backend/internal/orders"
	"github.com/angelmondragon/scanpay-backend/internal/products"
	"github.com/angelmondragon/scanpay-backend/internal/risk"
	"github.com/angelmondragon/scanpay-backend/pkg/db"
	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/metrics"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox"
)

const checkoutDDL = `
CREATE TABLE orders (
	id TEXT PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	exit_qr_code TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	shipping_name TEXT NOT NULL,
	shipping_email TEXT NOT NULL,
	shipping_address TEXT NOT NULL,
	items TEXT NOT NULL,
	item_count INTEGER NOT NULL,
	total_amount NUMERIC NOT NULL,
	final_amount NUMERIC NOT NULL,
	points_redeemed INTEGER NOT NULL DEFAULT 0,
	discount_from_points NUMERIC NOT NULL DEFAULT 0,
	spinner_discount_amount NUMERIC NOT NULL DEFAULT 0,
	applied_spinner_reward TEXT,
	bundle_discount_amount NUMERIC NOT NULL DEFAULT 0,
	applied_bundle TEXT,
	points_earned INTEGER NOT NULL DEFAULT 0,
	suspicion_score INTEGER NOT NULL DEFAULT 0,
	needs_manual_verification INTEGER NOT NULL DEFAULT 0,
	triggered_rules TEXT NOT NULL,
	status TEXT NOT NULL,
	verified_at DATETIME,
	verified_by TEXT,
	cart_created_at DATETIME NOT NULL,
	cart_updated_at DATETIME NOT NULL,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE loyalty_accounts (
	user_id TEXT PRIMARY KEY,
	balance INTEGER NOT NULL CHECK (balance >= 0),
	version INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME,
	updated_at DATETIME
);
CREATE TABLE loyalty_events (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	order_id TEXT,
	type TEXT NOT NULL,
	points INTEGER NOT NULL,
	balance_after INTEGER NOT NULL,
	created_at DATETIME
);
CREATE TABLE outbox_events (
	id TEXT PRIMARY KEY,
	event_type TEXT NOT NULL,
	aggregate_type TEXT NOT NULL,
	aggregate_id TEXT NOT NULL,
	payload BLOB NOT NULL,
	created_at DATETIME,
	published_at DATETIME,
	attempt_count INTEGER NOT NULL DEFAULT 0,
	last_error TEXT,
	terminal_at DATETIME
);`

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type staticCatalog []products.Product

func (c staticCatalog) GetProductByID(ctx context.Context, id string) (*products.Product, error) {
	for _, p := range c {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (c staticCatalog) GetProductByQRCode(ctx context.Context, qr string) (*products.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (c staticCatalog) FetchProducts(ctx context.Context) ([]products.Product, error) {
	return c, nil
}

type failingOutbox struct{}

func (failingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	return errors.New("outbox unavailable")
}

type harness struct {
	conn     *gorm.DB
	carts    cart.Service
	loyalty  loyalty.Service
	checkout Service
	clock    *clock
	registry *prometheus.Registry
}

func newHarness(t *testing.T, publisher outboxPublisher) *harness {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec(checkoutDDL).Error; err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	catalog := make(staticCatalog, 0)
	for _, rec := range products.DemoCatalog() {
		p, err := products.Normalize(rec)
		require.NoError(t, err)
		catalog = append(catalog, p)
	}

	client := db.Wrap(conn)
	clk := &clock{now: time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)}
	logg := logger.Nop()

	ledger, err := loyalty.NewService(loyalty.NewRepository(conn), client, loyalty.DefaultRates(), 250, logg)
	require.NoError(t, err)
	carts, err := cart.NewService(cart.ServiceParams{
		Store:    cart.NewMemoryStore(),
		Catalog:  catalog,
		Bundles:  bundles.DefaultCatalog(),
		Balances: ledger,
		Rates:    loyalty.DefaultRates(),
		Logger:   logg,
		Now:      clk.Now,
	})
	require.NoError(t, err)

	if publisher == nil {
		publisher = outbox.NewService(outbox.NewRepository(conn), logg)
	}
	reg := prometheus.NewRegistry()
	svc, err := NewService(ServiceParams{
		Tx:      client,
		Carts:   carts,
		Orders:  orders.NewRepository(conn),
		Loyalty: ledger,
		Scorer:  risk.NewScorer(time.UTC, risk.DefaultThreshold),
		Outbox:  publisher,
		Metrics: metrics.NewCheckoutMetrics(reg),
		Logger:  logg,
		Now:     clk.Now,
	})
	require.NoError(t, err)
	return &harness{conn: conn, carts: carts, loyalty: ledger, checkout: svc, clock: clk, registry: reg}
}

var shipping = Request{Name: "Asha Rao", Email: "asha@example.com", Address: "12 MG Road, Bengaluru"}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabel(m, label, value) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func TestExecutePlacesPendingOrderAndSettlesPoints(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	owner := cart.UserOwner("u1")

	_, err := h.carts.AddItem(ctx, owner, "2", 1, false)
	require.NoError(t, err)
	h.clock.advance(2 * time.Minute)
	_, err = h.carts.AddItem(ctx, owner, "1", 1, false)
	require.NoError(t, err)
	_, err = h.carts.RedeemPoints(ctx, owner, 100)
	require.NoError(t, err)
	h.clock.advance(time.Minute)

	res, err := h.checkout.Execute(ctx, owner, shipping)
	require.NoError(t, err)

	order := res.Order
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Zero(t, order.SuspicionScore)
	require.Empty(t, order.TriggeredRules)
	require.Equal(t, OrderNumber(h.clock.Now()), order.OrderNumber)
	require.Equal(t, ExitCode(order.OrderNumber, h.clock.Now()), order.ExitQRCode)
	require.True(t, order.TotalAmount.Equal(decimal.NewFromInt(3067)))
	require.True(t, order.FinalAmount.Equal(decimal.NewFromInt(3057)))
	require.Equal(t, 100, order.PointsRedeemed)
	require.Equal(t, 305, order.PointsEarned)
	require.Equal(t, 455, res.LoyaltyBalance)
	require.Equal(t, "Asha Rao", order.ShippingInfo.Name)

	balance, err := h.loyalty.Balance(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 455, balance)

	var events []models.OutboxEvent
	require.NoError(t, h.conn.Find(&events).Error)
	require.Len(t, events, 1)
	require.Equal(t, enums.EventOrderCreated, events[0].EventType)

	sum, err := h.carts.Get(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, sum.Items)

	require.Equal(t, 1.0, counterValue(t, h.registry, "checkout_orders_total", "status", "pending"))
	require.Equal(t, 10.0, counterValue(t, h.registry, "checkout_discount_amount_total", "source", "points"))
}

func TestExecuteFlagsRiskyCart(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	owner := cart.UserOwner("u2")

	_, err := h.carts.AddItem(ctx, owner, "prod-003", 1, true)
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, owner, "prod-004", 4, true)
	require.NoError(t, err)

	res, err := h.checkout.Execute(ctx, owner, shipping)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusFlagged, res.Order.Status)
	require.True(t, res.Order.NeedsManualVerification)
	require.Equal(t, 9, res.Order.SuspicionScore)
	require.Equal(t, []string{risk.RuleRapidScanning, risk.RuleHighValueOnly, risk.RuleAbnormalQty, risk.RuleHighTotalValue}, res.Order.TriggeredRules)
	require.True(t, res.Analysis.IsFlaggedForReview)

	var events []models.OutboxEvent
	require.NoError(t, h.conn.Order("event_type").Find(&events).Error)
	require.Len(t, events, 2)
	require.Equal(t, enums.EventOrderCreated, events[0].EventType)
	require.Equal(t, enums.EventOrderFlagged, events[1].EventType)
	require.Equal(t, 1.0, counterValue(t, h.registry, "checkout_orders_total", "status", "flagged"))
}

func TestExecuteRejectsBadInput(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	guest, err := cart.GuestOwner("tab-1")
	require.NoError(t, err)
	_, err = h.checkout.Execute(ctx, guest, shipping)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	_, err = h.checkout.Execute(ctx, cart.UserOwner("u3"), Request{Name: "A"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "Shipping Information Required", pkgerrors.As(err).Message())

	_, err = h.checkout.Execute(ctx, cart.UserOwner("u3"), Request{Name: "A", Email: "nope", Address: "x"})
	require.Equal(t, "Invalid Email", pkgerrors.As(err).Message())

	_, err = h.checkout.Execute(ctx, cart.UserOwner("u3"), shipping)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "Cart Is Empty", pkgerrors.As(err).Message())

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestExecuteRollsBackWhenOutboxFails(t *testing.T) {
	h := newHarness(t, failingOutbox{})
	ctx := context.Background()
	owner := cart.UserOwner("u4")

	_, err := h.carts.AddItem(ctx, owner, "2", 1, true)
	require.NoError(t, err)
	_, err = h.carts.RedeemPoints(ctx, owner, 50)
	require.NoError(t, err)

	_, err = h.checkout.Execute(ctx, owner, shipping)
	require.ErrorContains(t, err, "outbox unavailable")

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)

	balance, err := h.loyalty.Balance(ctx, "u4")
	require.NoError(t, err)
	require.Equal(t, 250, balance)

	sum, err := h.carts.Get(ctx, owner)
	require.NoError(t, err)
	require.Equal(t, 1, sum.ItemCount)
	require.Equal(t, 50, sum.PointsRedeemed)
}

func TestOrderNumberFormats(t *testing.T) {
	at := time.UnixMilli(1710417600123).UTC()
	require.Equal(t, "SP-1710417600123", OrderNumber(at))
	require.Equal(t, "EXIT-SP-1710417600123-1710417600123", ExitCode("SP-1710417600123", at))
}
