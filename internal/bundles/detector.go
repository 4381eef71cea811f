package bundles

import (
	"sort"

	"github.com/angelmondragon/scanpay-backend/internal/products"
)

// Detector ranks catalog bundles against cart contents.
type Detector struct {
	catalog *Catalog
}

func NewDetector(catalog *Catalog) *Detector {
	return &Detector{catalog: catalog}
}

// Shortfall lists the quantity of each bundle item the cart still lacks.
// It is empty when the cart holds the whole bundle.
func Shortfall(b Bundle, quantities map[string]int) []Item {
	var missing []Item
	for _, item := range b.Items {
		if short := item.Quantity - quantities[item.ProductID]; short > 0 {
			missing = append(missing, Item{ProductID: item.ProductID, Quantity: short})
		}
	}
	return missing
}

// Detect returns the single best offer for a cart, or nil.
//
// quantities maps product id to the quantity in the cart. Nothing is offered when a
// bundle is already applied, the cart is empty, or no prices are known.
func (d *Detector) Detect(quantities map[string]int, prices products.PriceBook, applied bool) *DetectedOffer {
	if d == nil || d.catalog == nil || applied || len(quantities) == 0 || len(prices) == 0 {
		return nil
	}

	var offers []DetectedOffer
	for _, b := range d.catalog.All() {
		missing := Shortfall(b, quantities)
		complete := len(missing) == 0
		if !complete && len(missing) >= len(b.Items) {
			continue
		}

		potential := saving(b, TotalIndividualPrice(b, prices))
		if !potential.IsPositive() {
			continue
		}
		if missing == nil {
			missing = []Item{}
		}
		offers = append(offers, DetectedOffer{
			Bundle:          b,
			PotentialSaving: potential,
			IsComplete:      complete,
			MissingItems:    missing,
		})
	}
	if len(offers) == 0 {
		return nil
	}

	sort.SliceStable(offers, func(i, j int) bool {
		if offers[i].Bundle.Priority != offers[j].Bundle.Priority {
			return offers[i].Bundle.Priority > offers[j].Bundle.Priority
		}
		return offers[i].PotentialSaving.GreaterThan(offers[j].PotentialSaving)
	})
	best := offers[0]
	return &best
}
