package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// Order is the persisted checkout record together with its risk verdict.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex"`
	ExitQRCode  string    `gorm:"column:exit_qr_code;not null;uniqueIndex"`
	UserID      string    `gorm:"column:user_id;not null;index"`

	ShippingName    string `gorm:"column:shipping_name;not null"`
	ShippingEmail   string `gorm:"column:shipping_email;not null"`
	ShippingAddress string `gorm:"column:shipping_address;not null"`

	Items       OrderItems      `gorm:"column:items;type:jsonb;serializer:json;not null"`
	ItemCount   int             `gorm:"column:item_count;not null"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(12,2);not null"`
	FinalAmount decimal.Decimal `gorm:"column:final_amount;type:numeric(12,2);not null"`

	PointsRedeemed        int                  `gorm:"column:points_redeemed;not null;default:0"`
	DiscountFromPoints    decimal.Decimal      `gorm:"column:discount_from_points;type:numeric(12,2);not null"`
	SpinnerDiscountAmount decimal.Decimal      `gorm:"column:spinner_discount_amount;type:numeric(12,2);not null"`
	AppliedSpinnerReward  *OrderSpinnerReward  `gorm:"column:applied_spinner_reward;type:jsonb;serializer:json"`
	BundleDiscountAmount  decimal.Decimal      `gorm:"column:bundle_discount_amount;type:numeric(12,2);not null"`
	AppliedBundle         *OrderAppliedBundle  `gorm:"column:applied_bundle;type:jsonb;serializer:json"`
	PointsEarned          int                  `gorm:"column:points_earned;not null;default:0"`

	SuspicionScore          int            `gorm:"column:suspicion_score;not null;default:0"`
	NeedsManualVerification bool           `gorm:"column:needs_manual_verification;not null;default:false"`
	TriggeredRules          pq.StringArray `gorm:"column:triggered_rules;type:text[]"`

	Status     enums.OrderStatus `gorm:"column:status;type:order_status;not null;index"`
	VerifiedAt *time.Time        `gorm:"column:verified_at"`
	VerifiedBy *string           `gorm:"column:verified_by"`

	CartCreatedAt time.Time `gorm:"column:cart_created_at;not null"`
	CartUpdatedAt time.Time `gorm:"column:cart_updated_at;not null"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItems is stored as a JSON document on the order row.
type OrderItems []OrderItem

// OrderItem snapshots one cart line at checkout.
type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	QRCodeID  string          `json:"qrCodeId,omitempty"`
	Category  string          `json:"category,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ItemPrice decimal.Decimal `json:"itemPrice"`
}

type OrderSpinnerReward struct {
	Code        string                  `json:"code"`
	Type        enums.SpinnerRewardType `json:"type"`
	Value       decimal.Decimal         `json:"value"`
	Description string                  `json:"description"`
	VoucherCode string                  `json:"voucherCode,omitempty"`
	ProductID   string                  `json:"productId,omitempty"`
}

type OrderAppliedBundle struct {
	BundleID           string           `json:"bundleId"`
	BundleName         string           `json:"bundleName"`
	BundlePrice        *decimal.Decimal `json:"bundlePrice,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discountAmount,omitempty"`
	SavedAmount        decimal.Decimal  `json:"savedAmount"`
}
