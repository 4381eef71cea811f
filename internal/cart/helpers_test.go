package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/scanpay-backend/internal/products"
	"github.com/angelmondragon/scanpay-backend/internal/spinner"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

var testNow = time.Date(2025, 3, 14, 15, 0, 0, 0, time.UTC)

func demoProducts(t *testing.T) []products.Product {
	t.Helper()
	out := make([]products.Product, 0)
	for _, rec := range products.DemoCatalog() {
		p, err := products.Normalize(rec)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func demoProduct(t *testing.T, id string) products.Product {
	t.Helper()
	for _, p := range demoProducts(t) {
		if p.ID == id {
			return p
		}
	}
	t.Fatalf("demo product %s not found", id)
	return products.Product{}
}

type stubCatalog struct {
	mu      sync.Mutex
	items   []products.Product
	listErr error
}

func (s *stubCatalog) GetProductByID(ctx context.Context, id string) (*products.Product, error) {
	for _, p := range s.items {
		if p.ID == id {
			c := p
			return &c, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) GetProductByQRCode(ctx context.Context, qr string) (*products.Product, error) {
	for _, p := range s.items {
		if p.QRCodeID == qr {
			c := p
			return &c, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s *stubCatalog) FetchProducts(ctx context.Context) ([]products.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.items, nil
}

type stubBalances map[string]int

func (s stubBalances) Balance(ctx context.Context, userID string) (int, error) {
	b, ok := s[userID]
	if !ok {
		return 0, errors.New("no account")
	}
	return b, nil
}

type fixedWheel struct {
	segment int
	spins   int
}

func (w *fixedWheel) Spin() spinner.Result {
	w.spins++
	reward, _ := spinner.RewardAt(w.segment)
	return spinner.Result{Segment: w.segment, Reward: reward}
}
