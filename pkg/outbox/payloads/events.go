package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// OrderCreatedEvent carries the facts of a placed order.
type OrderCreatedEvent struct {
	OrderID                 uuid.UUID         `json:"order_id"`
	OrderNumber             string            `json:"order_number"`
	UserID                  string            `json:"user_id"`
	Status                  enums.OrderStatus `json:"status"`
	ItemCount               int               `json:"item_count"`
	TotalAmount             decimal.Decimal   `json:"total_amount"`
	FinalAmount             decimal.Decimal   `json:"final_amount"`
	DiscountFromPoints      decimal.Decimal   `json:"discount_from_points"`
	SpinnerDiscountAmount   decimal.Decimal   `json:"spinner_discount_amount"`
	BundleDiscountAmount    decimal.Decimal   `json:"bundle_discount_amount"`
	PointsRedeemed          int               `json:"points_redeemed"`
	PointsEarned            int               `json:"points_earned"`
	BundleID                *string           `json:"bundle_id,omitempty"`
	SpinnerRewardCode       *string           `json:"spinner_reward_code,omitempty"`
	SuspicionScore          int               `json:"suspicion_score"`
	NeedsManualVerification bool              `json:"needs_manual_verification"`
	TriggeredRules          []string          `json:"triggered_rules"`
	PlacedAt                time.Time         `json:"placed_at"`
}

// OrderFlaggedEvent is emitted alongside order_created when the risk score
// crosses the review threshold.
type OrderFlaggedEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderNumber    string    `json:"order_number"`
	UserID         string    `json:"user_id"`
	SuspicionScore int       `json:"suspicion_score"`
	TriggeredRules []string  `json:"triggered_rules"`
	FlaggedAt      time.Time `json:"flagged_at"`
}

// OrderVerifiedEvent records a staff exit verification.
type OrderVerifiedEvent struct {
	OrderID        uuid.UUID         `json:"order_id"`
	OrderNumber    string            `json:"order_number"`
	PreviousStatus enums.OrderStatus `json:"previous_status"`
	VerifiedBy     string            `json:"verified_by"`
	VerifiedAt     time.Time         `json:"verified_at"`
}

// OrderDeletedEvent records a staff removal.
type OrderDeletedEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	DeletedBy   string    `json:"deleted_by"`
	DeletedAt   time.Time `json:"deleted_at"`
}
