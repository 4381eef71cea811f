package bundles

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/scanpay-backend/internal/products"
)

func demoPriceBook(t *testing.T) products.PriceBook {
	t.Helper()
	list := make([]products.Product, 0)
	for _, rec := range products.DemoCatalog() {
		p, err := products.Normalize(rec)
		require.NoError(t, err)
		list = append(list, p)
	}
	return products.NewPriceBook(list)
}

func TestDetectCompleteBundle(t *testing.T) {
	d := NewDetector(DefaultCatalog())
	offer := d.Detect(map[string]int{"3": 1, "6": 1}, demoPriceBook(t), false)
	require.NotNil(t, offer)
	require.Equal(t, "bundle-1", offer.Bundle.ID)
	require.True(t, offer.IsComplete)
	require.Empty(t, offer.MissingItems)
	require.True(t, offer.PotentialSaving.Equal(decimal.NewFromInt(50)))
}

func TestDetectPartialBundleReportsShortfall(t *testing.T) {
	d := NewDetector(DefaultCatalog())
	offer := d.Detect(map[string]int{"18": 1, "4": 1}, demoPriceBook(t), false)
	require.NotNil(t, offer)
	require.Equal(t, "bundle-12", offer.Bundle.ID)
	require.False(t, offer.IsComplete)
	require.Equal(t, []Item{{ProductID: "4", Quantity: 1}}, offer.MissingItems)
}

func TestDetectSkipsZeroMatchBundles(t *testing.T) {
	d := NewDetector(DefaultCatalog())
	require.Nil(t, d.Detect(map[string]int{"1": 3}, demoPriceBook(t), false))
}

func TestDetectRanksByPriorityThenSaving(t *testing.T) {
	// Cart touches bundle-2 (priority 2) and bundle-3 (priority 3).
	d := NewDetector(DefaultCatalog())
	offer := d.Detect(map[string]int{"9": 1, "21": 1}, demoPriceBook(t), false)
	require.NotNil(t, offer)
	require.Equal(t, "bundle-3", offer.Bundle.ID)
	require.False(t, offer.IsComplete)
	require.Equal(t, []Item{{ProductID: "22", Quantity: 1}}, offer.MissingItems)

	c, err := NewCatalog([]Bundle{
		{ID: "small", Items: []Item{{"a", 1}}, DiscountAmount: dec(10), Priority: 1, IsActive: true},
		{ID: "big", Items: []Item{{"a", 1}}, DiscountAmount: dec(40), Priority: 1, IsActive: true},
	})
	require.NoError(t, err)
	offer = NewDetector(c).Detect(map[string]int{"a": 1}, prices(map[string]int64{"a": 100}), false)
	require.NotNil(t, offer)
	require.Equal(t, "big", offer.Bundle.ID)
}

func TestDetectExcludesNonPositiveSaving(t *testing.T) {
	c, err := NewCatalog([]Bundle{
		{ID: "pricey", Items: []Item{{"a", 1}, {"b", 1}}, BundlePrice: dec(1000), Priority: 5, IsActive: true},
	})
	require.NoError(t, err)
	d := NewDetector(c)
	require.Nil(t, d.Detect(map[string]int{"a": 1, "b": 1}, prices(map[string]int64{"a": 300, "b": 300}), false))
}

func TestDetectGuards(t *testing.T) {
	d := NewDetector(DefaultCatalog())
	book := demoPriceBook(t)
	require.Nil(t, d.Detect(map[string]int{"3": 1, "6": 1}, book, true), "applied bundle blocks detection")
	require.Nil(t, d.Detect(map[string]int{}, book, false), "empty cart")
	require.Nil(t, d.Detect(map[string]int{"3": 1, "6": 1}, products.PriceBook{}, false), "empty price book")

	var nilDetector *Detector
	require.Nil(t, nilDetector.Detect(map[string]int{"3": 1}, book, false))
}

func TestShortfallCountsPartialQuantities(t *testing.T) {
	b := Bundle{ID: "pair", Items: []Item{{"a", 2}, {"b", 1}}}
	require.Equal(t, []Item{{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 1}}, Shortfall(b, map[string]int{"a": 1}))
	require.Empty(t, Shortfall(b, map[string]int{"a": 3, "b": 1}))
}
