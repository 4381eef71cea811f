package checkout

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/internal/cart"
	"github.com/angelmondragon/scanpay-backend/internal/loyalty"
	"github.com/angelmondragon/scanpay-backend/internal/orders"
	"github.com/angelmondragon/scanpay-backend/internal/risk"
	dbpkg "github.com/angelmondragon/scanpay-backend/pkg/db"
	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/metrics"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type cartCheckout interface {
	Checkout(ctx context.Context, owner cart.Owner, fn func(s *cart.Session) error) error
}

type pointsSettler interface {
	Rates() loyalty.Rates
	SettleCheckout(ctx context.Context, tx *gorm.DB, in loyalty.SettleInput) (*loyalty.Settlement, error)
}

// Service executes checkout orchestration.
type Service interface {
	Execute(ctx context.Context, owner cart.Owner, req Request) (*Result, error)
}

// Result is the placed order together with the post-checkout points balance.
type Result struct {
	Order          orders.OrderDTO `json:"order"`
	Analysis       risk.Analysis   `json:"riskAnalysis"`
	LoyaltyBalance int             `json:"loyaltyBalance"`
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Tx      txRunner
	Carts   cartCheckout
	Orders  orders.Repository
	Loyalty pointsSettler
	Scorer  *risk.Scorer
	Outbox  outboxPublisher
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	tx      txRunner
	carts   cartCheckout
	orders  orders.Repository
	loyalty pointsSettler
	scorer  *risk.Scorer
	outbox  outboxPublisher
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the checkout service.
func NewService(p ServiceParams) (Service, error) {
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Loyalty == nil {
		return nil, fmt.Errorf("loyalty service required")
	}
	if p.Scorer == nil {
		return nil, fmt.Errorf("risk scorer required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		tx:      p.Tx,
		carts:   p.Carts,
		orders:  p.Orders,
		loyalty: p.Loyalty,
		scorer:  p.Scorer,
		outbox:  p.Outbox,
		metrics: p.Metrics,
		logg:    p.Logger,
		now:     p.Now,
	}, nil
}

// Execute turns the owner's cart into an order. The order row, the points
// settlement and the outbox events commit together; the cart is cleared once
// the transaction succeeds.
func (s *service) Execute(ctx context.Context, owner cart.Owner, req Request) (*Result, error) {
	started := s.now()
	if !owner.Authenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")
	}
	shipping, err := req.normalize()
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCartOwner(s.logg.WithUserID(ctx, owner.UserID), owner.Key)

	var (
		placed     *models.Order
		analysis   risk.Analysis
		settlement *loyalty.Settlement
	)
	err = s.carts.Checkout(ctx, owner, func(sess *cart.Session) error {
		if sess.IsEmpty() {
			return pkgerrors.New(pkgerrors.CodeValidation, "Cart Is Empty")
		}
		at := s.now().UTC()
		analysis = s.scorer.Score(riskSnapshot(sess))
		order := buildOrder(sess, orderDraft{
			userID:   owner.UserID,
			shipping: shipping,
			analysis: analysis,
			earned:   s.loyalty.Rates().PointsEarned(sess.FinalTotal()),
			at:       at,
		})

		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
				if dbpkg.IsUniqueViolation(err, "") {
					return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken, retry checkout")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
			}
			var err error
			settlement, err = s.loyalty.SettleCheckout(ctx, tx, loyalty.SettleInput{
				UserID:   owner.UserID,
				OrderID:  order.ID,
				Redeemed: order.PointsRedeemed,
				Earned:   order.PointsEarned,
			})
			if err != nil {
				return err
			}
			if err := s.emitCreated(ctx, tx, owner, order); err != nil {
				return err
			}
			if order.NeedsManualVerification {
				if err := s.emitFlagged(ctx, tx, owner, order); err != nil {
					return err
				}
			}
			placed = order
			return nil
		})
	})
	if err != nil {
		s.metrics.ObserveDuration("error", s.now().Sub(started))
		return nil, err
	}

	s.record(ctx, placed)
	s.metrics.ObserveDuration("success", s.now().Sub(started))
	return &Result{
		Order:          orders.FromModel(*placed),
		Analysis:       analysis,
		LoyaltyBalance: settlement.BalanceAfter,
	}, nil
}

func (s *service) emitCreated(ctx context.Context, tx *gorm.DB, owner cart.Owner, o *models.Order) error {
	var bundleID, rewardCode *string
	if o.AppliedBundle != nil {
		id := o.AppliedBundle.BundleID
		bundleID = &id
	}
	if o.AppliedSpinnerReward != nil {
		code := o.AppliedSpinnerReward.Code
		rewardCode = &code
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   o.ID,
		Actor:         &outbox.ActorRef{UserID: owner.UserID, Role: enums.RoleCustomer.String()},
		OccurredAt:    o.CreatedAt,
		Data: payloads.OrderCreatedEvent{
			OrderID:                 o.ID,
			OrderNumber:             o.OrderNumber,
			UserID:                  o.UserID,
			Status:                  o.Status,
			ItemCount:               o.ItemCount,
			TotalAmount:             o.TotalAmount,
			FinalAmount:             o.FinalAmount,
			DiscountFromPoints:      o.DiscountFromPoints,
			SpinnerDiscountAmount:   o.SpinnerDiscountAmount,
			BundleDiscountAmount:    o.BundleDiscountAmount,
			PointsRedeemed:          o.PointsRedeemed,
			PointsEarned:            o.PointsEarned,
			BundleID:                bundleID,
			SpinnerRewardCode:       rewardCode,
			SuspicionScore:          o.SuspicionScore,
			NeedsManualVerification: o.NeedsManualVerification,
			TriggeredRules:          []string(o.TriggeredRules),
			PlacedAt:                o.CreatedAt,
		},
	})
}

func (s *service) emitFlagged(ctx context.Context, tx *gorm.DB, owner cart.Owner, o *models.Order) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderFlagged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   o.ID,
		Actor:         &outbox.ActorRef{UserID: owner.UserID, Role: enums.RoleCustomer.String()},
		OccurredAt:    o.CreatedAt,
		Data: payloads.OrderFlaggedEvent{
			OrderID:        o.ID,
			OrderNumber:    o.OrderNumber,
			UserID:         o.UserID,
			SuspicionScore: o.SuspicionScore,
			TriggeredRules: []string(o.TriggeredRules),
			FlaggedAt:      o.CreatedAt,
		},
	})
}

func (s *service) record(ctx context.Context, o *models.Order) {
	s.metrics.ObserveOrder(o.Status.String(), o.SuspicionScore, o.TriggeredRules)
	s.metrics.AddDiscount("points", o.DiscountFromPoints.InexactFloat64())
	s.metrics.AddDiscount("spinner", o.SpinnerDiscountAmount.InexactFloat64())
	s.metrics.AddDiscount("bundle", o.BundleDiscountAmount.InexactFloat64())

	logCtx := s.logg.WithFields(s.logg.WithOrderID(s.logg.WithOrderNumber(ctx, o.OrderNumber), o.ID.String()), map[string]any{
		"final_amount":    o.FinalAmount.String(),
		"suspicion_score": o.SuspicionScore,
		"points_earned":   o.PointsEarned,
	})
	if o.NeedsManualVerification {
		s.logg.Warn(s.logg.WithField(logCtx, "triggered_rules", []string(o.TriggeredRules)), "order flagged for manual verification")
		return
	}
	s.logg.Info(logCtx, "order placed")
}
