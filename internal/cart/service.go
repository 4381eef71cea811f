package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/internal/bundles"
	"github.com/angelmondragon/scanpay-backend/internal/loyalty"
	"github.com/angelmondragon/scanpay-backend/internal/products"
	"github.com/angelmondragon/scanpay-backend/internal/spinner"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

const warnBundleDetection = "bundle offers are temporarily unavailable"

type balanceReader interface {
	Balance(ctx context.Context, userID string) (int, error)
}

type spinDrawer interface {
	Spin() spinner.Result
}

// Service serializes every mutation of an owner's cart.
type Service interface {
	Get(ctx context.Context, owner Owner) (*Summary, error)
	AddItem(ctx context.Context, owner Owner, productID string, qty int, skipBundleCheck bool) (*Summary, error)
	RemoveItem(ctx context.Context, owner Owner, productID string) (*Summary, error)
	UpdateQuantity(ctx context.Context, owner Owner, productID string, qty int) (*Summary, error)
	Clear(ctx context.Context, owner Owner) (*Summary, error)
	RedeemPoints(ctx context.Context, owner Owner, points int) (*Summary, error)
	ClearPoints(ctx context.Context, owner Owner) (*Summary, error)
	Spin(ctx context.Context, owner Owner) (*SpinOutcome, error)
	AcceptBundle(ctx context.Context, owner Owner, bundleID string, addMissingItems bool) (*Summary, error)
	ClearBundle(ctx context.Context, owner Owner) (*Summary, error)
	DismissBundleOffer(ctx context.Context, owner Owner) (*Summary, error)
	Checkout(ctx context.Context, owner Owner, fn func(s *Session) error) error
}

// SpinOutcome is a spin result plus the cart after the reward was applied.
type SpinOutcome struct {
	Spin     spinner.Result  `json:"spin"`
	Discount decimal.Decimal `json:"discount"`
	Cart     *Summary        `json:"cart"`
}

// ServiceParams wires the cart service.
type ServiceParams struct {
	Store            Store
	Catalog          products.Catalog
	Bundles          *bundles.Catalog
	Balances         balanceReader
	Rates            loyalty.Rates
	SpinnerThreshold decimal.Decimal
	Wheel            spinDrawer
	Logger           *logger.Logger
	Now              func() time.Time
}

type service struct {
	store     Store
	catalog   products.Catalog
	bundles   *bundles.Catalog
	detector  *bundles.Detector
	balances  balanceReader
	rates     loyalty.Rates
	threshold decimal.Decimal
	wheel     spinDrawer
	logg      *logger.Logger
	now       func() time.Time
	locks     *keyedMutex
}

func NewService(p ServiceParams) (Service, error) {
	if p.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if p.Bundles == nil {
		return nil, fmt.Errorf("bundle catalog required")
	}
	if p.Balances == nil {
		return nil, fmt.Errorf("loyalty balance reader required")
	}
	if !p.Rates.PointValue.IsPositive() {
		return nil, fmt.Errorf("point value must be positive")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Wheel == nil {
		p.Wheel = spinner.Wheel{}
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.SpinnerThreshold.IsZero() {
		p.SpinnerThreshold = spinner.DefaultThreshold
	}
	return &service{
		store:     p.Store,
		catalog:   p.Catalog,
		bundles:   p.Bundles,
		detector:  bundles.NewDetector(p.Bundles),
		balances:  p.Balances,
		rates:     p.Rates,
		threshold: p.SpinnerThreshold,
		wheel:     p.Wheel,
		logg:      p.Logger,
		now:       p.Now,
		locks:     newKeyedMutex(),
	}, nil
}

// lock serializes writers of owner's cart: first within this process, then
// across every replica sharing the store.
func (s *service) lock(ctx context.Context, owner Owner) (func(), error) {
	release := s.locks.Lock(owner.Key)
	unlock, err := s.store.Lock(ctx, owner.Key)
	if err != nil {
		release()
		if errors.Is(err, ErrCartBusy) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart is busy, retry the request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock cart")
	}
	return func() {
		unlock()
		release()
	}, nil
}

// load returns the stored session or a fresh one. Callers hold the owner lock.
func (s *service) load(ctx context.Context, owner Owner) (*Session, error) {
	sess, err := s.store.Load(ctx, owner.Key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if sess == nil {
		sess = NewSession(owner.Key, s.now().UTC())
	}
	return sess, nil
}

func (s *service) save(ctx context.Context, sess *Session) error {
	if err := s.store.Save(ctx, sess); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart")
	}
	return nil
}

// mutate runs fn on the owner's session under its lock and persists the result.
// Nothing is saved when fn fails.
func (s *service) mutate(ctx context.Context, owner Owner, fn func(sess *Session) error) (*Session, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	unlock, err := s.lock(ctx, owner)
	if err != nil {
		return nil, err
	}
	defer unlock()

	sess, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

func (s *service) summarize(sess *Session) *Summary {
	return Summarize(sess, s.threshold)
}

func (s *service) Get(ctx context.Context, owner Owner) (*Summary, error) {
	if err := owner.validate(); err != nil {
		return nil, err
	}
	sess, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.summarize(sess), nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, productID string, qty int, skipBundleCheck bool) (*Summary, error) {
	product, err := s.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		return sess.AddItem(*product, qty, s.now().UTC())
	})
	if err != nil {
		return nil, err
	}
	if skipBundleCheck {
		return s.summarize(sess), nil
	}
	return s.redetect(ctx, owner, sess), nil
}

func (s *service) RemoveItem(ctx context.Context, owner Owner, productID string) (*Summary, error) {
	var changed bool
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		changed = sess.RemoveItem(productID, s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return s.summarize(sess), nil
	}
	return s.redetect(ctx, owner, sess), nil
}

func (s *service) UpdateQuantity(ctx context.Context, owner Owner, productID string, qty int) (*Summary, error) {
	var changed bool
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		var err error
		changed, err = sess.UpdateQuantity(productID, qty, s.now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return s.summarize(sess), nil
	}
	return s.redetect(ctx, owner, sess), nil
}

func (s *service) Clear(ctx context.Context, owner Owner) (*Summary, error) {
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		sess.Clear(s.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(sess), nil
}

// redetect prices the catalog outside the owner lock, then stores the best offer
// only if no other mutation happened in between.
func (s *service) redetect(ctx context.Context, owner Owner, after *Session) *Summary {
	version := after.Version()
	quantities := after.Quantities()
	applied := after.AppliedBundle() != nil

	list, err := s.catalog.FetchProducts(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"cart_owner": owner.Key, "error": err.Error()}), "bundle detection skipped")
		summary := s.summarize(after)
		summary.Warnings = []string{warnBundleDetection}
		return summary
	}
	offer := s.detector.Detect(quantities, products.NewPriceBook(list), applied)

	unlock, err := s.lock(ctx, owner)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_owner", owner.Key), "bundle detection could not lock cart")
		summary := s.summarize(after)
		summary.Warnings = []string{warnBundleDetection}
		return summary
	}
	defer unlock()

	current, err := s.load(ctx, owner)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_owner", owner.Key), "bundle detection could not reload cart")
		summary := s.summarize(after)
		summary.Warnings = []string{warnBundleDetection}
		return summary
	}
	if !current.SetDetectedOffer(offer, version) {
		// a newer mutation will run its own detection
		return s.summarize(current)
	}
	if err := s.save(ctx, current); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cart_owner", owner.Key), "bundle offer could not be saved")
		summary := s.summarize(after)
		summary.Warnings = []string{warnBundleDetection}
		return summary
	}
	if offer != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"cart_owner":  owner.Key,
			"bundle_id":   offer.Bundle.ID,
			"is_complete": offer.IsComplete,
		}), "bundle offer refreshed")
	}
	return s.summarize(current)
}

func (s *service) RedeemPoints(ctx context.Context, owner Owner, points int) (*Summary, error) {
	if !owner.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")
	}
	balance, err := s.balances.Balance(ctx, owner.UserID)
	if err != nil {
		return nil, err
	}
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		return sess.RedeemPoints(s.rates, points, balance, owner.Authenticated())
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(sess), nil
}

func (s *service) ClearPoints(ctx context.Context, owner Owner) (*Summary, error) {
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		sess.ClearPointsRedemption()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(sess), nil
}

func (s *service) Spin(ctx context.Context, owner Owner) (*SpinOutcome, error) {
	var (
		result   spinner.Result
		discount decimal.Decimal
	)
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		if sess.AppliedSpinnerReward() != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Spinner Already Used")
		}
		if !sess.SpinnerEligible(s.threshold) {
			return pkgerrors.New(pkgerrors.CodeValidation, "Spinner Not Eligible").
				WithDetails(map[string]any{"threshold": s.threshold.String(), "subtotal": sess.TotalPrice().String()})
		}
		result = s.wheel.Spin()
		var err error
		discount, err = sess.ApplySpinnerReward(result.Reward)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cart_owner":  owner.Key,
		"segment":     result.Segment,
		"reward_code": result.Reward.Code,
	}), "spinner reward applied")
	return &SpinOutcome{Spin: result, Discount: discount, Cart: s.summarize(sess)}, nil
}

func (s *service) AcceptBundle(ctx context.Context, owner Owner, bundleID string, addMissingItems bool) (*Summary, error) {
	b, ok := s.bundles.ByID(bundleID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
	}
	list, err := s.catalog.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	book := products.NewPriceBook(list)
	byID := make(map[string]products.Product, len(list))
	for _, p := range list {
		byID[p.ID] = p
	}

	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		if sess.AppliedBundle() != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Bundle Already Applied").
				WithDetails(map[string]any{"bundleId": sess.AppliedBundle().BundleID})
		}
		if addMissingItems {
			now := s.now().UTC()
			for _, item := range bundles.Shortfall(b, sess.Quantities()) {
				p, ok := byID[item.ProductID]
				if !ok {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
						WithDetails(map[string]any{"productId": item.ProductID})
				}
				if err := sess.AddItem(p, item.Quantity, now); err != nil {
					return err
				}
			}
		}
		_, err := sess.ApplyBundle(b, book)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"cart_owner": owner.Key, "bundle_id": b.ID}), "bundle applied")
	return s.summarize(sess), nil
}

func (s *service) ClearBundle(ctx context.Context, owner Owner) (*Summary, error) {
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		sess.ClearBundle()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(sess), nil
}

func (s *service) DismissBundleOffer(ctx context.Context, owner Owner) (*Summary, error) {
	sess, err := s.mutate(ctx, owner, func(sess *Session) error {
		sess.ClearBundleOffer()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.summarize(sess), nil
}

// Checkout hands the locked session to fn. When fn succeeds the cart is cleared.
func (s *service) Checkout(ctx context.Context, owner Owner, fn func(s *Session) error) error {
	if err := owner.validate(); err != nil {
		return err
	}
	unlock, err := s.lock(ctx, owner)
	if err != nil {
		return err
	}
	defer unlock()

	sess, err := s.load(ctx, owner)
	if err != nil {
		return err
	}
	if err := fn(sess.clone()); err != nil {
		return err
	}
	sess.Clear(s.now().UTC())
	if err := s.save(ctx, sess); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "cart_owner", owner.Key), "clear cart after checkout", err)
		return nil
	}
	return nil
}
