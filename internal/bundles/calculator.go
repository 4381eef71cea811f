package bundles

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/internal/products"
)

// TotalIndividualPrice sums catalog price x required quantity. Products missing
// from prices contribute zero.
func TotalIndividualPrice(b Bundle, prices products.PriceBook) decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		price, ok := prices.Price(item.ProductID)
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// saving applies the bundle's pricing rule without clamping.
func saving(b Bundle, total decimal.Decimal) decimal.Decimal {
	switch {
	case b.BundlePrice != nil:
		return total.Sub(*b.BundlePrice)
	case b.DiscountPercentage != nil:
		return total.Mul(*b.DiscountPercentage).Div(hundred).Round(2)
	case b.DiscountAmount != nil:
		return *b.DiscountAmount
	default:
		return decimal.Zero
	}
}

// Discount is the monetary discount b grants at the given prices.
func Discount(b Bundle, prices products.PriceBook) decimal.Decimal {
	d := saving(b, TotalIndividualPrice(b, prices))
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// DiscountByID is Discount for a catalog bundle. Unknown ids yield zero.
func (c *Catalog) DiscountByID(id string, prices products.PriceBook) decimal.Decimal {
	b, ok := c.ByID(id)
	if !ok {
		return decimal.Zero
	}
	return Discount(b, prices)
}
