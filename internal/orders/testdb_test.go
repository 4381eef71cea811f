package orders

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

const ordersDDL = `
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

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.Exec(ordersDDL).Error; err != nil {
		t.Fatalf("create tables: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

func newOrderModel(number, userID string, status enums.OrderStatus, createdAt time.Time) *models.Order {
	flagged := status == enums.OrderStatusFlagged
	rules := pq.StringArray{}
	if flagged {
		rules = pq.StringArray{"High-Value Items Only", "High Total Cart Value"}
	}
	return &models.Order{
		ID:              uuid.New(),
		OrderNumber:     number,
		ExitQRCode:      ExitCodePrefix + number + "-1",
		UserID:          userID,
		ShippingName:    "Asha",
		ShippingEmail:   "asha@example.com",
		ShippingAddress: "12 MG Road",
		Items: models.OrderItems{{
			ProductID: "2",
			Name:      "Wireless Bluetooth Headphones",
			Price:     decimal.NewFromInt(2999),
			Quantity:  1,
			ItemPrice: decimal.NewFromInt(2999),
		}},
		ItemCount:               1,
		TotalAmount:             decimal.NewFromInt(2999),
		FinalAmount:             decimal.NewFromInt(2999),
		DiscountFromPoints:      decimal.Zero,
		SpinnerDiscountAmount:   decimal.Zero,
		BundleDiscountAmount:    decimal.Zero,
		PointsEarned:            299,
		NeedsManualVerification: flagged,
		TriggeredRules:          rules,
		Status:                  status,
		CartCreatedAt:           createdAt.Add(-5 * time.Minute),
		CartUpdatedAt:           createdAt,
		CreatedAt:               createdAt,
	}
}
