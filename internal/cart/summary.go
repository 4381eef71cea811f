package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/internal/bundles"
	"github.com/angelmondragon/scanpay-backend/internal/spinner"
)

// Summary is the read model returned for every cart operation.
type Summary struct {
	Items                 []Item                 `json:"items"`
	ItemCount             int                    `json:"itemCount"`
	TotalPrice            decimal.Decimal        `json:"totalPrice"`
	PointsRedeemed        int                    `json:"pointsRedeemed"`
	DiscountFromPoints    decimal.Decimal        `json:"discountFromPoints"`
	SpinnerDiscountAmount decimal.Decimal        `json:"spinnerDiscountAmount"`
	AppliedSpinnerReward  *spinner.Reward        `json:"appliedSpinnerReward"`
	BundleDiscountAmount  decimal.Decimal        `json:"bundleDiscountAmount"`
	AppliedBundle         *bundles.Applied       `json:"appliedBundle"`
	DetectedBundleOffer   *bundles.DetectedOffer `json:"detectedBundleOffer"`
	FinalTotal            decimal.Decimal        `json:"finalTotal"`
	SpinnerEligible       bool                   `json:"spinnerEligible"`
	Version               int64                  `json:"version"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
	Warnings              []string               `json:"warnings,omitempty"`
}

// Summarize derives the read model of s.
func Summarize(s *Session, spinnerThreshold decimal.Decimal) *Summary {
	return &Summary{
		Items:                 s.Items(),
		ItemCount:             s.ItemCount(),
		TotalPrice:            s.TotalPrice(),
		PointsRedeemed:        s.st.PointsRedeemed,
		DiscountFromPoints:    s.st.DiscountFromPoints,
		SpinnerDiscountAmount: s.st.SpinnerDiscountAmount,
		AppliedSpinnerReward:  s.st.AppliedSpinnerReward,
		BundleDiscountAmount:  s.st.BundleDiscountAmount,
		AppliedBundle:         s.st.AppliedBundle,
		DetectedBundleOffer:   s.st.DetectedBundleOffer,
		FinalTotal:            s.FinalTotal(),
		SpinnerEligible:       s.SpinnerEligible(spinnerThreshold),
		Version:               s.st.Version,
		CreatedAt:             s.st.CreatedAt,
		UpdatedAt:             s.st.UpdatedAt,
	}
}
