package products

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

// Catalog is the read surface the cart and checkout depend on.
type Catalog interface {
	GetProductByID(ctx context.Context, id string) (*Product, error)
	GetProductByQRCode(ctx context.Context, qrCodeID string) (*Product, error)
	FetchProducts(ctx context.Context) ([]Product, error)
}

type service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time

	mu       sync.RWMutex
	cached   []Product
	byID     map[string]Product
	cachedAt time.Time
}

// NewService builds a catalog over repo. The full product list is cached for ttl;
// a zero ttl disables caching.
func NewService(repo Repository, ttl time.Duration) (Catalog, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("catalog cache ttl must be non-negative")
	}
	return &service{repo: repo, ttl: ttl, now: time.Now}, nil
}

func (s *service) GetProductByID(ctx context.Context, id string) (*Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if p, ok := s.cachedByID(id); ok {
		return &p, nil
	}

	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupErr(err, "load product")
	}
	p := FromModel(*row)
	return &p, nil
}

func (s *service) GetProductByQRCode(ctx context.Context, qrCodeID string) (*Product, error) {
	qrCodeID = strings.TrimSpace(qrCodeID)
	if qrCodeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "qr code is required")
	}
	row, err := s.repo.FindByQRCode(ctx, qrCodeID)
	if err != nil {
		return nil, mapLookupErr(err, "load product by qr code")
	}
	p := FromModel(*row)
	return &p, nil
}

func (s *service) FetchProducts(ctx context.Context) ([]Product, error) {
	if list, ok := s.cachedList(); ok {
		return list, nil
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	list := make([]Product, 0, len(rows))
	for _, row := range rows {
		list = append(list, FromModel(row))
	}

	if s.ttl > 0 {
		s.mu.Lock()
		s.cached = list
		s.byID = make(map[string]Product, len(list))
		for _, p := range list {
			s.byID[p.ID] = p
		}
		s.cachedAt = s.now()
		s.mu.Unlock()
	}
	return copyProducts(list), nil
}

func (s *service) fresh() bool {
	return s.ttl > 0 && s.cached != nil && s.now().Sub(s.cachedAt) < s.ttl
}

func (s *service) cachedList() ([]Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fresh() {
		return nil, false
	}
	return copyProducts(s.cached), true
}

func (s *service) cachedByID(id string) (Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fresh() {
		return Product{}, false
	}
	p, ok := s.byID[id]
	return p, ok
}

func copyProducts(in []Product) []Product {
	out := make([]Product, len(in))
	copy(out, in)
	return out
}

func mapLookupErr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}
