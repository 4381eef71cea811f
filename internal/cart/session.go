package cart

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/internal/bundles"
	"github.com/angelmondragon/scanpay-backend/internal/loyalty"
	"github.com/angelmondragon/scanpay-backend/internal/products"
	"github.com/angelmondragon/scanpay-backend/internal/spinner"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

// Item is one cart line. ItemPrice is the catalog price captured when the line was created.
type Item struct {
	Product   products.Product `json:"product"`
	Quantity  int              `json:"quantity"`
	ItemPrice decimal.Decimal  `json:"itemPrice"`
}

func (i Item) lineTotal() decimal.Decimal {
	return i.ItemPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type sessionState struct {
	Owner                 string                 `json:"owner"`
	Items                 []Item                 `json:"items"`
	PointsRedeemed        int                    `json:"pointsRedeemed"`
	DiscountFromPoints    decimal.Decimal        `json:"discountFromPoints"`
	SpinnerDiscountAmount decimal.Decimal        `json:"spinnerDiscountAmount"`
	AppliedSpinnerReward  *spinner.Reward        `json:"appliedSpinnerReward"`
	BundleDiscountAmount  decimal.Decimal        `json:"bundleDiscountAmount"`
	AppliedBundle         *bundles.Applied       `json:"appliedBundle"`
	DetectedBundleOffer   *bundles.DetectedOffer `json:"detectedBundleOffer"`
	Version               int64                  `json:"version"`
	CreatedAt             time.Time              `json:"createdAt"`
	UpdatedAt             time.Time              `json:"updatedAt"`
}

// Session is one owner's cart. All mutations go through its methods; totals are
// always derived from the lines.
type Session struct {
	st sessionState
}

// NewSession returns an empty cart for owner.
func NewSession(owner string, now time.Time) *Session {
	return &Session{st: sessionState{Owner: owner, Items: []Item{}, CreatedAt: now, UpdatedAt: now}}
}

func (s *Session) MarshalJSON() ([]byte, error) { return json.Marshal(s.st) }

func (s *Session) UnmarshalJSON(data []byte) error {
	var st sessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.Items == nil {
		st.Items = []Item{}
	}
	s.st = st
	return nil
}

func (s *Session) Owner() string { return s.st.Owner }
func (s *Session) Version() int64 { return s.st.Version }
func (s *Session) CreatedAt() time.Time { return s.st.CreatedAt }
func (s *Session) UpdatedAt() time.Time { return s.st.UpdatedAt }
func (s *Session) IsEmpty() bool { return len(s.st.Items) == 0 }
func (s *Session) PointsRedeemed() int { return s.st.PointsRedeemed }

func (s *Session) Items() []Item {
	out := make([]Item, len(s.st.Items))
	copy(out, s.st.Items)
	return out
}

func (s *Session) AppliedBundle() *bundles.Applied { return s.st.AppliedBundle }
func (s *Session) AppliedSpinnerReward() *spinner.Reward { return s.st.AppliedSpinnerReward }
func (s *Session) DetectedOffer() *bundles.DetectedOffer { return s.st.DetectedBundleOffer }
func (s *Session) DiscountFromPoints() decimal.Decimal { return s.st.DiscountFromPoints }
func (s *Session) SpinnerDiscountAmount() decimal.Decimal { return s.st.SpinnerDiscountAmount }
func (s *Session) BundleDiscountAmount() decimal.Decimal { return s.st.BundleDiscountAmount }

// TotalPrice is the sum of line totals.
func (s *Session) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.st.Items {
		total = total.Add(it.lineTotal())
	}
	return total
}

// ItemCount is the sum of quantities.
func (s *Session) ItemCount() int {
	n := 0
	for _, it := range s.st.Items {
		n += it.Quantity
	}
	return n
}

// FinalTotal is the payable amount, never below zero.
func (s *Session) FinalTotal() decimal.Decimal {
	final := s.TotalPrice().
		Sub(s.st.DiscountFromPoints).
		Sub(s.st.SpinnerDiscountAmount).
		Sub(s.st.BundleDiscountAmount)
	return decimal.Max(decimal.Zero, final)
}

// Quantities maps product id to quantity.
func (s *Session) Quantities() map[string]int {
	q := make(map[string]int, len(s.st.Items))
	for _, it := range s.st.Items {
		q[it.Product.ID] += it.Quantity
	}
	return q
}

func (s *Session) indexOf(productID string) int {
	for i, it := range s.st.Items {
		if it.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Session) touch(now time.Time) {
	s.st.Version++
	s.st.UpdatedAt = now
}

func (s *Session) resetBundle() {
	s.st.AppliedBundle = nil
	s.st.BundleDiscountAmount = decimal.Zero
}

// AddItem merges qty of p into the cart, snapshotting the price on a new line.
func (s *Session) AddItem(p products.Product, qty int, now time.Time) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "Invalid Quantity")
	}
	if qty > p.Stock {
		return pkgerrors.New(pkgerrors.CodeValidation, "Insufficient Stock").
			WithDetails(map[string]any{"productId": p.ID, "available": p.Stock})
	}

	if s.IsEmpty() {
		s.st.CreatedAt = now
	}
	if i := s.indexOf(p.ID); i >= 0 {
		merged := s.st.Items[i].Quantity + qty
		if merged > p.Stock {
			return pkgerrors.New(pkgerrors.CodeValidation, "Stock Limit Reached").
				WithDetails(map[string]any{"productId": p.ID, "available": p.Stock, "inCart": s.st.Items[i].Quantity})
		}
		s.st.Items[i].Quantity = merged
		s.st.Items[i].Product.Stock = p.Stock
	} else {
		s.st.Items = append(s.st.Items, Item{Product: p, Quantity: qty, ItemPrice: p.Price})
	}
	s.touch(now)
	return nil
}

// RemoveItem drops a line and any applied bundle. Unknown ids are a no-op.
func (s *Session) RemoveItem(productID string, now time.Time) bool {
	i := s.indexOf(strings.TrimSpace(productID))
	if i < 0 {
		return false
	}
	s.st.Items = append(s.st.Items[:i], s.st.Items[i+1:]...)
	s.resetBundle()
	s.touch(now)
	return true
}

// UpdateQuantity sets a line's quantity. qty <= 0 removes the line. Unknown ids are a no-op.
func (s *Session) UpdateQuantity(productID string, qty int, now time.Time) (bool, error) {
	if qty <= 0 {
		return s.RemoveItem(productID, now), nil
	}
	i := s.indexOf(strings.TrimSpace(productID))
	if i < 0 {
		return false, nil
	}
	line := s.st.Items[i]
	if qty > line.Product.Stock {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "Stock Limit Reached").
			WithDetails(map[string]any{"productId": line.Product.ID, "available": line.Product.Stock})
	}
	s.st.Items[i].Quantity = qty
	s.resetBundle()
	s.touch(now)
	return true, nil
}

// Clear resets lines and every discount.
func (s *Session) Clear(now time.Time) {
	owner, version := s.st.Owner, s.st.Version
	s.st = sessionState{Owner: owner, Items: []Item{}, Version: version, CreatedAt: now}
	s.touch(now)
}

// RedeemPoints replaces any prior redemption with n points.
func (s *Session) RedeemPoints(rates loyalty.Rates, n, balance int, authenticated bool) error {
	discount, err := rates.ValidateRedemption(loyalty.Redemption{
		Authenticated: authenticated,
		Points:        n,
		Balance:       balance,
		Subtotal:      s.TotalPrice(),
	})
	if err != nil {
		return err
	}
	s.st.PointsRedeemed = n
	s.st.DiscountFromPoints = discount
	return nil
}

// ClearPointsRedemption zeroes the redemption.
func (s *Session) ClearPointsRedemption() {
	s.st.PointsRedeemed = 0
	s.st.DiscountFromPoints = decimal.Zero
}

// SpinnerEligible reports whether the cart may spin at the given threshold.
func (s *Session) SpinnerEligible(threshold decimal.Decimal) bool {
	return spinner.Eligible(s.TotalPrice(), threshold, s.st.AppliedSpinnerReward != nil)
}

// ApplySpinnerReward records r and its clamped discount. Only one reward per cart.
// Eligibility is checked by the caller before the wheel is spun.
func (s *Session) ApplySpinnerReward(r spinner.Reward) (decimal.Decimal, error) {
	if s.st.AppliedSpinnerReward != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "Spinner Already Used")
	}
	discount := spinner.Discount(r, s.TotalPrice(), s.st.DiscountFromPoints, s.st.BundleDiscountAmount)
	reward := r
	s.st.AppliedSpinnerReward = &reward
	s.st.SpinnerDiscountAmount = discount
	return discount, nil
}

// ApplyBundle accepts b at the given prices. The cart must hold every bundle item;
// a missing item or a non-positive discount changes nothing.
func (s *Session) ApplyBundle(b bundles.Bundle, prices products.PriceBook) (decimal.Decimal, error) {
	if s.st.AppliedBundle != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "Bundle Already Applied").
			WithDetails(map[string]any{"bundleId": s.st.AppliedBundle.BundleID})
	}
	if missing := bundles.Shortfall(b, s.Quantities()); len(missing) > 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Bundle Not Applicable").
			WithDetails(map[string]any{"bundleId": b.ID, "missingItems": missing})
	}
	discount := bundles.Discount(b, prices)
	if !discount.IsPositive() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Bundle Not Applicable").
			WithDetails(map[string]any{"bundleId": b.ID})
	}
	applied := bundles.Snapshot(b, discount)
	s.st.AppliedBundle = &applied
	s.st.BundleDiscountAmount = discount
	s.st.DetectedBundleOffer = nil
	return discount, nil
}

// ClearBundle removes the applied bundle.
func (s *Session) ClearBundle() {
	s.resetBundle()
}

// ClearBundleOffer dismisses the detected offer.
func (s *Session) ClearBundleOffer() {
	s.st.DetectedBundleOffer = nil
}

// SetDetectedOffer stores offer if the cart has not changed since version.
func (s *Session) SetDetectedOffer(offer *bundles.DetectedOffer, version int64) bool {
	if version != s.st.Version {
		return false
	}
	s.st.DetectedBundleOffer = offer
	return true
}

func (s *Session) clone() *Session {
	c := &Session{st: s.st}
	c.st.Items = s.Items()
	return c
}
