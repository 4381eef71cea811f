package products

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestDemoCatalogNormalizes(t *testing.T) {
	seenID := map[string]bool{}
	seenQR := map[string]bool{}
	for _, rec := range DemoCatalog() {
		p, err := Normalize(rec)
		if err != nil {
			t.Fatalf("normalize %s: %v", rec.ID, err)
		}
		if seenID[p.ID] {
			t.Fatalf("duplicate product id %s", p.ID)
		}
		if seenQR[p.QRCodeID] {
			t.Fatalf("duplicate qr code %s", p.QRCodeID)
		}
		seenID[p.ID], seenQR[p.QRCodeID] = true, true
		if p.Stock <= 0 {
			t.Fatalf("product %s has no stock", p.ID)
		}
	}
}

func TestDemoCatalogFreeProductPrices(t *testing.T) {
	want := map[string]int64{"prod-001": 50, "prod-002": 899}
	for _, rec := range DemoCatalog() {
		if price, ok := want[rec.ID]; ok && !rec.Price.Equal(decimal.NewFromInt(price)) {
			t.Fatalf("%s price = %s, want %d", rec.ID, rec.Price, price)
		}
	}
}

func TestSeedRejectsInvalidRecord(t *testing.T) {
	repo := &stubRepo{}
	_, err := Seed(context.Background(), repo, []Record{{ID: "bad"}})
	if err == nil {
		t.Fatal("expected normalize error")
	}
	if len(repo.upserted) != 0 {
		t.Fatalf("expected nothing written, got %d rows", len(repo.upserted))
	}
}
