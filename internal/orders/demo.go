package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/internal/risk"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// Scenario is a canned order evaluated by the live risk scorer for staff training.
type Scenario struct {
	OrderNumber             string            `json:"orderNumber"`
	CustomerName            string            `json:"customerName"`
	Items                   []risk.Item       `json:"items"`
	ItemCount               int               `json:"itemCount"`
	TotalAmount             decimal.Decimal   `json:"totalAmount"`
	ScanDuration            string            `json:"scanDuration"`
	Status                  enums.OrderStatus `json:"status"`
	SuspicionScore          int               `json:"suspicionScore"`
	NeedsManualVerification bool              `json:"needsManualVerification"`
	TriggeredRules          []string          `json:"triggeredRules"`
	Timestamp               time.Time         `json:"timestamp"`
}

type demoProduct struct {
	id    string
	name  string
	price int64
}

var (
	demoGum        = demoProduct{"prod-001", "Chewing Gum", 50}
	demoTShirt     = demoProduct{"prod-002", "Basic T-Shirt", 899}
	demoSpeaker    = demoProduct{"prod-003", "Smart Speaker Echo", 12999}
	demoHeadphones = demoProduct{"prod-004", "Wireless Headphones", 15999}
	demoPencils    = demoProduct{"prod-005", "Pencil Set", 150}
	demoEnergyBar  = demoProduct{"prod-006", "Energy Bar", 120}
	demoJeans      = demoProduct{"prod-007", "Denim Jeans", 2499}
	demoMug        = demoProduct{"prod-008", "Coffee Mug", 299}
)

type demoLine struct {
	product demoProduct
	qty     int
}

type demoCase struct {
	number   string
	customer string
	lines    []demoLine
	scan     time.Duration
}

var demoCases = []demoCase{
	{"SP-001", "Normal User", []demoLine{{demoTShirt, 1}, {demoMug, 1}, {demoGum, 2}}, 5 * time.Minute},
	{"SP-002", "Quick Shopper", []demoLine{{demoJeans, 1}, {demoMug, 1}}, 30 * time.Second},
	{"SP-003", "Bulk Buyer", []demoLine{{demoGum, 5}, {demoPencils, 2}, {demoEnergyBar, 4}, {demoMug, 1}}, 2 * time.Minute},
	{"SP-004", "Electronics Buyer", []demoLine{{demoSpeaker, 1}, {demoHeadphones, 4}}, 90 * time.Second},
	{"SP-005", "Suspicious User", []demoLine{{demoGum, 6}, {demoPencils, 5}, {demoEnergyBar, 4}, {demoTShirt, 3}, {demoMug, 2}}, 45 * time.Second},
}

// DemoScenarios scores the canned orders as if each cart was checked out at now.
func DemoScenarios(scorer *risk.Scorer, now time.Time) []Scenario {
	out := make([]Scenario, 0, len(demoCases))
	for _, c := range demoCases {
		items := make([]risk.Item, 0, len(c.lines))
		total := decimal.Zero
		count := 0
		for _, l := range c.lines {
			price := decimal.NewFromInt(l.product.price)
			items = append(items, risk.Item{
				ProductID: l.product.id,
				Name:      l.product.name,
				Price:     price,
				Quantity:  l.qty,
				ItemPrice: price,
			})
			total = total.Add(price.Mul(decimal.NewFromInt(int64(l.qty))))
			count += l.qty
		}
		analysis := scorer.Score(risk.Snapshot{
			Items:      items,
			TotalPrice: total,
			CreatedAt:  now.Add(-c.scan),
			UpdatedAt:  now,
		})
		status := enums.OrderStatusPending
		if analysis.IsFlaggedForReview {
			status = enums.OrderStatusFlagged
		}
		out = append(out, Scenario{
			OrderNumber:             c.number,
			CustomerName:            c.customer,
			Items:                   items,
			ItemCount:               count,
			TotalAmount:             total,
			ScanDuration:            c.scan.String(),
			Status:                  status,
			SuspicionScore:          analysis.SuspicionScore,
			NeedsManualVerification: analysis.IsFlaggedForReview,
			TriggeredRules:          analysis.TriggeredRules,
			Timestamp:               now,
		})
	}
	return out
}
