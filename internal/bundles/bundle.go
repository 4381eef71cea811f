package bundles

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is one required line of a bundle.
type Item struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Bundle is a multi-product offer. Exactly one of BundlePrice, DiscountPercentage
// and DiscountAmount is set.
type Bundle struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	Items              []Item           `json:"items"`
	BundlePrice        *decimal.Decimal `json:"bundlePrice,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discountAmount,omitempty"`
	Priority           int              `json:"priority"`
	IsActive           bool             `json:"isActive"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}

func (b Bundle) pricingRules() int {
	n := 0
	for _, v := range []*decimal.Decimal{b.BundlePrice, b.DiscountPercentage, b.DiscountAmount} {
		if v != nil {
			n++
		}
	}
	return n
}

// DetectedOffer is the best bundle the detector found for a cart.
type DetectedOffer struct {
	Bundle          Bundle          `json:"bundle"`
	PotentialSaving decimal.Decimal `json:"potentialSaving"`
	IsComplete      bool            `json:"isComplete"`
	MissingItems    []Item          `json:"missingItems"`
}

// Applied is the snapshot stored on the cart once a bundle is accepted.
type Applied struct {
	BundleID           string           `json:"bundleId"`
	BundleName         string           `json:"bundleName"`
	BundlePrice        *decimal.Decimal `json:"bundlePrice,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discountAmount,omitempty"`
	SavedAmount        decimal.Decimal  `json:"savedAmount"`
}

// Snapshot freezes b with the discount computed at acceptance time.
func Snapshot(b Bundle, saved decimal.Decimal) Applied {
	return Applied{
		BundleID:           b.ID,
		BundleName:         b.Name,
		BundlePrice:        copyDec(b.BundlePrice),
		DiscountPercentage: copyDec(b.DiscountPercentage),
		DiscountAmount:     copyDec(b.DiscountAmount),
		SavedAmount:        saved,
	}
}

func copyDec(v *decimal.Decimal) *decimal.Decimal {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
