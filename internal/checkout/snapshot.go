package checkout

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/scanpay-backend/internal/cart"
	"github.com/angelmondragon/scanpay-backend/internal/risk"
	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// OrderNumber formats the customer facing order number.
func OrderNumber(at time.Time) string {
	return fmt.Sprintf("SP-%d", at.UnixMilli())
}

// ExitCode formats the payload encoded in the exit QR code.
func ExitCode(orderNumber string, at time.Time) string {
	return fmt.Sprintf("EXIT-%s-%d", orderNumber, at.UnixMilli())
}

func riskSnapshot(s *cart.Session) risk.Snapshot {
	lines := s.Items()
	items := make([]risk.Item, 0, len(lines))
	for _, it := range lines {
		items = append(items, risk.Item{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			ItemPrice: it.ItemPrice,
		})
	}
	return risk.Snapshot{
		Items:      items,
		TotalPrice: s.TotalPrice(),
		CreatedAt:  s.CreatedAt(),
		UpdatedAt:  s.UpdatedAt(),
	}
}

func orderItems(s *cart.Session) models.OrderItems {
	lines := s.Items()
	out := make(models.OrderItems, 0, len(lines))
	for _, it := range lines {
		out = append(out, models.OrderItem{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			QRCodeID:  it.Product.QRCodeID,
			Category:  it.Product.Category,
			Price:     it.Product.Price,
			Quantity:  it.Quantity,
			ItemPrice: it.ItemPrice,
		})
	}
	return out
}

func spinnerSnapshot(s *cart.Session) *models.OrderSpinnerReward {
	r := s.AppliedSpinnerReward()
	if r == nil {
		return nil
	}
	out := &models.OrderSpinnerReward{
		Code:        r.Code,
		Type:        r.Type,
		Value:       r.Value,
		Description: r.Description,
	}
	if r.VoucherCode != nil {
		out.VoucherCode = *r.VoucherCode
	}
	if r.ProductID != nil {
		out.ProductID = *r.ProductID
	}
	return out
}

func bundleSnapshot(s *cart.Session) *models.OrderAppliedBundle {
	b := s.AppliedBundle()
	if b == nil {
		return nil
	}
	return &models.OrderAppliedBundle{
		BundleID:           b.BundleID,
		BundleName:         b.BundleName,
		BundlePrice:        b.BundlePrice,
		DiscountPercentage: b.DiscountPercentage,
		DiscountAmount:     b.DiscountAmount,
		SavedAmount:        b.SavedAmount,
	}
}

type orderDraft struct {
	userID   string
	shipping Request
	analysis risk.Analysis
	earned   int
	at       time.Time
}

func buildOrder(s *cart.Session, d orderDraft) *models.Order {
	number := OrderNumber(d.at)
	status := enums.OrderStatusPending
	if d.analysis.IsFlaggedForReview {
		status = enums.OrderStatusFlagged
	}
	rules := pq.StringArray(append([]string{}, d.analysis.TriggeredRules...))
	return &models.Order{
		ID:                      uuid.New(),
		OrderNumber:             number,
		ExitQRCode:              ExitCode(number, d.at),
		UserID:                  d.userID,
		ShippingName:            d.shipping.Name,
		ShippingEmail:           d.shipping.Email,
		ShippingAddress:         d.shipping.Address,
		Items:                   orderItems(s),
		ItemCount:               s.ItemCount(),
		TotalAmount:             s.TotalPrice(),
		FinalAmount:             s.FinalTotal(),
		PointsRedeemed:          s.PointsRedeemed(),
		DiscountFromPoints:      s.DiscountFromPoints(),
		SpinnerDiscountAmount:   s.SpinnerDiscountAmount(),
		AppliedSpinnerReward:    spinnerSnapshot(s),
		BundleDiscountAmount:    s.BundleDiscountAmount(),
		AppliedBundle:           bundleSnapshot(s),
		PointsEarned:            d.earned,
		SuspicionScore:          d.analysis.SuspicionScore,
		NeedsManualVerification: d.analysis.IsFlaggedForReview,
		TriggeredRules:          rules,
		Status:                  status,
		CartCreatedAt:           s.CreatedAt(),
		CartUpdatedAt:           s.UpdatedAt(),
		CreatedAt:               d.at,
	}
}
