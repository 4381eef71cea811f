package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// ShippingInfo is the contact block captured at checkout.
type ShippingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID                      string                     `json:"id"`
	OrderNumber             string                     `json:"orderNumber"`
	ExitQRCode              string                     `json:"exitQrCode"`
	UserID                  string                     `json:"userId"`
	ShippingInfo            ShippingInfo               `json:"shippingInfo"`
	Items                   []models.OrderItem         `json:"items"`
	ItemCount               int                        `json:"itemCount"`
	TotalAmount             decimal.Decimal            `json:"totalAmount"`
	FinalAmount             decimal.Decimal            `json:"finalAmount"`
	PointsRedeemed          int                        `json:"pointsRedeemed"`
	DiscountFromPoints      decimal.Decimal            `json:"discountFromPoints"`
	SpinnerDiscountAmount   decimal.Decimal            `json:"spinnerDiscountAmount"`
	AppliedSpinnerReward    *models.OrderSpinnerReward `json:"appliedSpinnerReward"`
	BundleDiscountAmount    decimal.Decimal            `json:"bundleDiscountAmount"`
	AppliedBundle           *models.OrderAppliedBundle `json:"appliedBundle"`
	PointsEarned            int                        `json:"pointsEarned"`
	SuspicionScore          int                        `json:"suspicionScore"`
	NeedsManualVerification bool                       `json:"needsManualVerification"`
	TriggeredRules          []string                   `json:"triggeredRules"`
	Status                  enums.OrderStatus          `json:"status"`
	VerifiedAt              *time.Time                 `json:"verifiedAt,omitempty"`
	VerifiedBy              *string                    `json:"verifiedBy,omitempty"`
	Timestamp               time.Time                  `json:"timestamp"`
}

// Stats counts orders per status.
type Stats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Flagged  int64 `json:"flagged"`
	Verified int64 `json:"verified"`
}

// FromModel maps a persisted order to its API view.
func FromModel(m models.Order) OrderDTO {
	items := []models.OrderItem(m.Items)
	if items == nil {
		items = []models.OrderItem{}
	}
	rules := []string(m.TriggeredRules)
	if rules == nil {
		rules = []string{}
	}
	return OrderDTO{
		ID:          m.ID.String(),
		OrderNumber: m.OrderNumber,
		ExitQRCode:  m.ExitQRCode,
		UserID:      m.UserID,
		ShippingInfo: ShippingInfo{
			Name:    m.ShippingName,
			Email:   m.ShippingEmail,
			Address: m.ShippingAddress,
		},
		Items:                   items,
		ItemCount:               m.ItemCount,
		TotalAmount:             m.TotalAmount,
		FinalAmount:             m.FinalAmount,
		PointsRedeemed:          m.PointsRedeemed,
		DiscountFromPoints:      m.DiscountFromPoints,
		SpinnerDiscountAmount:   m.SpinnerDiscountAmount,
		AppliedSpinnerReward:    m.AppliedSpinnerReward,
		BundleDiscountAmount:    m.BundleDiscountAmount,
		AppliedBundle:           m.AppliedBundle,
		PointsEarned:            m.PointsEarned,
		SuspicionScore:          m.SuspicionScore,
		NeedsManualVerification: m.NeedsManualVerification,
		TriggeredRules:          rules,
		Status:                  m.Status,
		VerifiedAt:              m.VerifiedAt,
		VerifiedBy:              m.VerifiedBy,
		Timestamp:               m.CreatedAt,
	}
}

func fromModels(in []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(in))
	for _, m := range in {
		out = append(out, FromModel(m))
	}
	return out
}
