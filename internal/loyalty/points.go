package loyalty

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

// DiscountPerPoint is the default monetary value of one loyalty point.
var DiscountPerPoint = decimal.RequireFromString("0.10")

// DefaultEarnRatePercent is the share of the final total credited back as points.
const DefaultEarnRatePercent = 10

// Rates converts between points and money.
type Rates struct {
	PointValue      decimal.Decimal
	EarnRatePercent int
}

// DefaultRates returns 1 point = 0.10 and 10% earn-back.
func DefaultRates() Rates {
	return Rates{PointValue: DiscountPerPoint, EarnRatePercent: DefaultEarnRatePercent}
}

// Value is the discount n points are worth.
func (r Rates) Value(points int) decimal.Decimal {
	return r.PointValue.Mul(decimal.NewFromInt(int64(points)))
}

// MaxRedeemable is floor(subtotal / point value).
func (r Rates) MaxRedeemable(subtotal decimal.Decimal) int {
	if !r.PointValue.IsPositive() || !subtotal.IsPositive() {
		return 0
	}
	return int(subtotal.Div(r.PointValue).Floor().IntPart())
}

// PointsEarned is floor(finalTotal x earn rate).
func (r Rates) PointsEarned(finalTotal decimal.Decimal) int {
	if !finalTotal.IsPositive() || r.EarnRatePercent <= 0 {
		return 0
	}
	return int(finalTotal.Mul(decimal.NewFromInt(int64(r.EarnRatePercent))).Div(decimal.NewFromInt(100)).Floor().IntPart())
}

// Redemption is a points redemption request against the current cart.
type Redemption struct {
	Authenticated bool
	Points        int
	Balance       int
	Subtotal      decimal.Decimal
}

// ValidateRedemption checks a redemption in order and returns the discount it grants.
// The first failing check wins.
func (r Rates) ValidateRedemption(req Redemption) (decimal.Decimal, error) {
	if !req.Authenticated {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")
	}
	if req.Points <= 0 {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Invalid Points")
	}
	if req.Points > req.Balance {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Insufficient Points").
			WithDetails(map[string]any{"balance": req.Balance})
	}
	discount := r.Value(req.Points)
	if discount.GreaterThan(req.Subtotal) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "Points Exceed Cart Total").
			WithDetails(map[string]any{"maxRedeemable": r.MaxRedeemable(req.Subtotal)})
	}
	return discount, nil
}
