package bundles

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
)

var hundred = decimal.NewFromInt(100)

// Catalog is an immutable registry of bundle definitions.
type Catalog struct {
	bundles []Bundle
	byID    map[string]int
}

// NewCatalog validates defs and builds a catalog. All validation failures are
// reported together.
func NewCatalog(defs []Bundle) (*Catalog, error) {
	var errs error
	byID := make(map[string]int, len(defs))
	for i, b := range defs {
		errs = multierr.Append(errs, validateBundle(b))
		id := strings.TrimSpace(b.ID)
		if id == "" {
			continue
		}
		if _, dup := byID[id]; dup {
			errs = multierr.Append(errs, fmt.Errorf("bundle %q: duplicate id", id))
			continue
		}
		byID[id] = i
	}
	if errs != nil {
		return nil, errs
	}

	stored := make([]Bundle, len(defs))
	for i, b := range defs {
		b.Items = append([]Item(nil), b.Items...)
		stored[i] = b
	}
	return &Catalog{bundles: stored, byID: byID}, nil
}

func validateBundle(b Bundle) error {
	var errs error
	id := strings.TrimSpace(b.ID)
	if id == "" {
		errs = multierr.Append(errs, fmt.Errorf("bundle %q: id is required", b.Name))
	}
	if n := b.pricingRules(); n != 1 {
		errs = multierr.Append(errs, fmt.Errorf("bundle %q: exactly one pricing rule required, got %d", id, n))
	}
	if len(b.Items) == 0 {
		errs = multierr.Append(errs, fmt.Errorf("bundle %q: at least one item required", id))
	}
	for _, item := range b.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("bundle %q: item product id is required", id))
		}
		if item.Quantity <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("bundle %q: item %q quantity must be positive", id, item.ProductID))
		}
	}
	for name, v := range map[string]*decimal.Decimal{
		"bundlePrice":        b.BundlePrice,
		"discountPercentage": b.DiscountPercentage,
		"discountAmount":     b.DiscountAmount,
	} {
		if v != nil && v.IsNegative() {
			errs = multierr.Append(errs, fmt.Errorf("bundle %q: %s must be non-negative", id, name))
		}
	}
	if b.DiscountPercentage != nil && b.DiscountPercentage.GreaterThan(hundred) {
		errs = multierr.Append(errs, fmt.Errorf("bundle %q: discountPercentage must not exceed 100", id))
	}
	return errs
}

// All returns the active bundles in definition order.
func (c *Catalog) All() []Bundle {
	out := make([]Bundle, 0, len(c.bundles))
	for _, b := range c.bundles {
		if b.IsActive {
			out = append(out, b)
		}
	}
	return out
}

// ByID returns the active bundle with id.
func (c *Catalog) ByID(id string) (Bundle, bool) {
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok || !c.bundles[i].IsActive {
		return Bundle{}, false
	}
	return c.bundles[i], true
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var demoEpoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// DefaultBundles returns the demo storefront bundles.
func DefaultBundles() []Bundle {
	defs := []Bundle{
		{ID: "bundle-1", Name: "Snack Time Combo", Description: "Get organic basmati rice and green tea bags for a special price!", Items: []Item{{"3", 1}, {"6", 1}}, DiscountAmount: dec(50), Priority: 1},
		{ID: "bundle-2", Name: "Coffee Lover's Deal", Description: "Premium coffee beans with honey at an amazing price!", Items: []Item{{"9", 1}, {"21", 1}}, DiscountPercentage: dec(15), Priority: 2},
		{ID: "bundle-3", Name: "Complete Breakfast Bundle", Description: "Everything you need for a perfect morning!", Items: []Item{{"9", 1}, {"21", 1}, {"22", 1}}, BundlePrice: dec(1200), Priority: 3},
		{ID: "bundle-4", Name: "Cooking Essentials", Description: "Complete cooking oil collection for your kitchen!", Items: []Item{{"23", 1}, {"24", 1}, {"25", 1}}, DiscountPercentage: dec(20), Priority: 4},
		{ID: "bundle-5", Name: "Baker's Delight", Description: "Perfect flour combo for all your baking needs!", Items: []Item{{"26", 1}, {"27", 1}}, DiscountAmount: dec(75), Priority: 5},
		{ID: "bundle-6", Name: "Tech Starter Pack", Description: "Essential electronics bundle for your daily needs!", Items: []Item{{"2", 1}, {"20", 1}}, DiscountPercentage: dec(10), Priority: 6},
		{ID: "bundle-7", Name: "Gaming Setup", Description: "Perfect gaming accessories combo!", Items: []Item{{"16", 1}, {"12", 1}}, DiscountAmount: dec(500), Priority: 7},
		{ID: "bundle-8", Name: "Fitness Warrior", Description: "Complete fitness package for your workout routine!", Items: []Item{{"8", 1}, {"11", 1}, {"15", 1}}, DiscountPercentage: dec(12), Priority: 8},
		{ID: "bundle-9", Name: "Beauty Essentials", Description: "Natural beauty care combo for glowing skin!", Items: []Item{{"13", 1}, {"17", 1}}, DiscountAmount: dec(200), Priority: 9},
		{ID: "bundle-10", Name: "Kitchen Master", Description: "Professional kitchen essentials for home chefs!", Items: []Item{{"19", 1}, {"15", 1}}, DiscountPercentage: dec(8), Priority: 10},
		{ID: "bundle-11", Name: "Work From Home Pro", Description: "Everything you need for productive remote work!", Items: []Item{{"5", 1}, {"10", 1}, {"14", 1}}, BundlePrice: dec(4500), Priority: 11},
		{ID: "bundle-12", Name: "Family Fun Pack", Description: "Perfect entertainment bundle for family time!", Items: []Item{{"18", 1}, {"4", 2}}, DiscountAmount: dec(300), Priority: 12},
	}
	for i := range defs {
		defs[i].IsActive = true
		defs[i].CreatedAt = demoEpoch
		defs[i].UpdatedAt = demoEpoch
	}
	return defs
}

// DefaultCatalog builds the catalog of demo bundles.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultBundles())
	if err != nil {
		panic(fmt.Sprintf("default bundle catalog invalid: %v", err))
	}
	return c
}
