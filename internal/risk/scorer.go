package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultThreshold = 5

	RuleLowValueRatio   = "Value-to-Item Ratio Too Low"
	RuleRapidScanning   = "Rapid Scanning Time"
	RuleHighValueOnly   = "High-Value Items Only"
	RuleAbnormalQty     = "Abnormal Quantity"
	RuleUnusualTime     = "Unusual Purchase Time"
	RuleHighTotalValue  = "High Total Cart Value"
	lowRatioMinItems    = 5
	rapidScanWindow     = 60 * time.Second
	abnormalQtyLimit    = 3
	unusualHourEnd      = 5
	highValueLinesLimit = 2
)

var (
	lowRatioAverage = decimal.NewFromInt(500)
	highValuePrice  = decimal.NewFromInt(10000)
	highTotalValue  = decimal.NewFromInt(50000)
)

// Item is one cart line as seen at checkout.
type Item struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ItemPrice decimal.Decimal `json:"itemPrice"`
}

// Snapshot is the cart state the scorer evaluates.
type Snapshot struct {
	Items      []Item
	TotalPrice decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Analysis is the scorer's verdict.
type Analysis struct {
	SuspicionScore     int      `json:"suspicionScore"`
	IsFlaggedForReview bool     `json:"isFlaggedForReview"`
	TriggeredRules     []string `json:"triggeredRules"`
}

// Rule describes one weighted check.
type Rule struct {
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	match  func(Snapshot, *time.Location) bool
}

var rules = []Rule{
	{Name: RuleLowValueRatio, Weight: 2, match: func(s Snapshot, _ *time.Location) bool {
		count := itemCount(s.Items)
		if count <= lowRatioMinItems {
			return false
		}
		return s.TotalPrice.Div(decimal.NewFromInt(int64(count))).LessThan(lowRatioAverage)
	}},
	{Name: RuleRapidScanning, Weight: 1, match: func(s Snapshot, _ *time.Location) bool {
		return s.UpdatedAt.Sub(s.CreatedAt) < rapidScanWindow
	}},
	{Name: RuleHighValueOnly, Weight: 3, match: func(s Snapshot, _ *time.Location) bool {
		if len(s.Items) < highValueLinesLimit {
			return false
		}
		high := 0
		for _, it := range s.Items {
			if it.ItemPrice.GreaterThan(highValuePrice) {
				high++
			}
		}
		return high >= highValueLinesLimit
	}},
	{Name: RuleAbnormalQty, Weight: 2, match: func(s Snapshot, _ *time.Location) bool {
		for _, it := range s.Items {
			if it.Quantity > abnormalQtyLimit {
				return true
			}
		}
		return false
	}},
	{Name: RuleUnusualTime, Weight: 2, match: func(s Snapshot, loc *time.Location) bool {
		return s.CreatedAt.In(loc).Hour() < unusualHourEnd
	}},
	{Name: RuleHighTotalValue, Weight: 3, match: func(s Snapshot, _ *time.Location) bool {
		return s.TotalPrice.GreaterThan(highTotalValue)
	}},
}

// Rules lists the checks in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

func itemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// Scorer evaluates snapshots. It holds no mutable state.
type Scorer struct {
	loc       *time.Location
	threshold int
}

// NewScorer builds a scorer that reads purchase hours in loc. A nil loc means UTC
// and a non-positive threshold means DefaultThreshold.
func NewScorer(loc *time.Location, threshold int) *Scorer {
	if loc == nil {
		loc = time.UTC
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Scorer{loc: loc, threshold: threshold}
}

func (s *Scorer) Threshold() int { return s.threshold }

// Score runs every rule independently and sums the weights of those that match.
func (s *Scorer) Score(snap Snapshot) Analysis {
	out := Analysis{TriggeredRules: []string{}}
	for _, r := range rules {
		if r.match(snap, s.loc) {
			out.SuspicionScore += r.Weight
			out.TriggeredRules = append(out.TriggeredRules, r.Name)
		}
	}
	out.IsFlaggedForReview = out.SuspicionScore >= s.threshold
	return out
}
