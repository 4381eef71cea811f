package spinner

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// DefaultThreshold is the subtotal a cart needs before it may spin.
var DefaultThreshold = decimal.NewFromInt(2000)

const (
	segmentCount = 8
	segmentArc   = 360.0 / segmentCount
)

// Reward is what a wheel segment grants.
type Reward struct {
	Code        string                  `json:"code"`
	Type        enums.SpinnerRewardType `json:"type"`
	Value       decimal.Decimal         `json:"value"`
	Description string                  `json:"description"`
	VoucherCode *string                 `json:"voucherCode,omitempty"`
	ProductID   *string                 `json:"productId,omitempty"`
}

// Segment pairs a wheel label with its reward. Table position is the segment index.
type Segment struct {
	Label  string `json:"label"`
	Reward Reward `json:"reward"`
}

func str(s string) *string { return &s }

var segments = [segmentCount]Segment{
	{"15% Off", Reward{Code: "15PERCENTOFF", Type: enums.SpinnerRewardPercentage, Value: decimal.NewFromInt(15), Description: "15% Off Your Entire Cart"}},
	{"Free Coffee", Reward{Code: "FREE_COFFEE", Type: enums.SpinnerRewardFreeProduct, Value: decimal.NewFromInt(899), Description: "Free Coffee Beans", ProductID: str("prod-002")}},
	{"₹200 Off", Reward{Code: "200INR_OFF", Type: enums.SpinnerRewardFixed, Value: decimal.NewFromInt(200), Description: "₹200 Off Your Entire Cart"}},
	{"Prime Video", Reward{Code: "PRIME_VOUCHER", Type: enums.SpinnerRewardVoucher, Value: decimal.Zero, Description: "1 Month Prime Video Voucher", VoucherCode: str("PRIME2025XYZ")}},
	{"₹50 Off", Reward{Code: "50INR_OFF", Type: enums.SpinnerRewardFixed, Value: decimal.NewFromInt(50), Description: "₹50 Off Your Entire Cart"}},
	{"25% Off", Reward{Code: "25PERCENTOFF", Type: enums.SpinnerRewardPercentage, Value: decimal.NewFromInt(25), Description: "25% Off Your Entire Cart"}},
	{"Free Snack", Reward{Code: "FREE_SNACK", Type: enums.SpinnerRewardFreeProduct, Value: decimal.NewFromInt(50), Description: "Free Snack Pack", ProductID: str("prod-001")}},
	{"Mystery Box", Reward{Code: "MYSTERY_BOX", Type: enums.SpinnerRewardVoucher, Value: decimal.Zero, Description: "Mystery Surprise Box", VoucherCode: str("MYSTERY2025")}},
}

// freeProductCredits is the credit for FREE_PRODUCT rewards, keyed by product id.
var freeProductCredits = map[string]decimal.Decimal{
	"prod-001": decimal.NewFromInt(50),
	"prod-002": decimal.NewFromInt(899),
}

// Segments returns the wheel in index order.
func Segments() []Segment {
	out := make([]Segment, segmentCount)
	copy(out, segments[:])
	return out
}

// RewardAt returns the reward of segment index.
func RewardAt(index int) (Reward, bool) {
	if index < 0 || index >= segmentCount {
		return Reward{}, false
	}
	return segments[index].Reward, true
}

// SegmentForAngle maps the wheel's resting angle in degrees to a segment index.
func SegmentForAngle(angle float64) int {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}
	return int(math.Floor(((360-a)+segmentArc/2)/segmentArc)) % segmentCount
}

// Eligible reports whether a cart may spin.
func Eligible(subtotal, threshold decimal.Decimal, applied bool) bool {
	return !applied && subtotal.GreaterThanOrEqual(threshold)
}

// Discount computes the reward's discount, clamped to what points and bundle leave payable.
func Discount(r Reward, subtotal, points, bundle decimal.Decimal) decimal.Decimal {
	var computed decimal.Decimal
	switch r.Type {
	case enums.SpinnerRewardPercentage:
		computed = subtotal.Mul(r.Value).Div(decimal.NewFromInt(100)).Round(2)
	case enums.SpinnerRewardFixed:
		computed = r.Value
	case enums.SpinnerRewardFreeProduct:
		computed = r.Value
		if r.ProductID != nil {
			if credit, ok := freeProductCredits[*r.ProductID]; ok {
				computed = credit
			}
		}
	default:
		computed = decimal.Zero
	}

	remaining := subtotal.Sub(points).Sub(bundle)
	return decimal.Max(decimal.Zero, decimal.Min(computed, remaining))
}
