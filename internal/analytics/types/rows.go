package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// OrderFactRow mirrors the order_facts BigQuery schema. Every order event
// appends one row; amounts use bigquery NUMERIC strings to keep decimals exact.
type OrderFactRow struct {
	EventID                 string             `bigquery:"event_id"`
	EventType               string             `bigquery:"event_type"`
	OccurredAt              time.Time          `bigquery:"occurred_at"`
	OrderID                 string             `bigquery:"order_id"`
	OrderNumber             string             `bigquery:"order_number"`
	UserID                  *string            `bigquery:"user_id"`
	Status                  *string            `bigquery:"status"`
	ItemCount               *int64             `bigquery:"item_count"`
	TotalAmount             *string            `bigquery:"total_amount"`
	FinalAmount             *string            `bigquery:"final_amount"`
	DiscountFromPoints      *string            `bigquery:"discount_from_points"`
	SpinnerDiscountAmount   *string            `bigquery:"spinner_discount_amount"`
	BundleDiscountAmount    *string            `bigquery:"bundle_discount_amount"`
	PointsRedeemed          *int64             `bigquery:"points_redeemed"`
	PointsEarned            *int64             `bigquery:"points_earned"`
	BundleID                *string            `bigquery:"bundle_id"`
	SpinnerRewardCode       *string            `bigquery:"spinner_reward_code"`
	SuspicionScore          *int64             `bigquery:"suspicion_score"`
	NeedsManualVerification *bool              `bigquery:"needs_manual_verification"`
	TriggeredRules          []string           `bigquery:"triggered_rules"`
	Actor                   *string            `bigquery:"actor"`
	Payload                 cbigquery.NullJSON `bigquery:"payload"`
}
