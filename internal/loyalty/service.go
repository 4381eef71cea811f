package loyalty

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

const maxSettleAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes loyalty balances and checkout settlement.
type Service interface {
	Rates() Rates
	Balance(ctx context.Context, userID string) (int, error)
	History(ctx context.Context, userID string, limit int) ([]models.LoyaltyEvent, error)
	SettleCheckout(ctx context.Context, tx *gorm.DB, in SettleInput) (*Settlement, error)
}

// SettleInput describes the point movements of one checkout.
type SettleInput struct {
	UserID   string
	OrderID  uuid.UUID
	Redeemed int
	Earned   int
}

// Settlement is the outcome of a successful settle.
type Settlement struct {
	BalanceBefore int
	BalanceAfter  int
	Events        []models.LoyaltyEvent
}

type service struct {
	repo           Repository
	tx             txRunner
	rates          Rates
	openingBalance int
	logg           *logger.Logger
}

// NewService wires the loyalty ledger. New accounts start at openingBalance.
func NewService(repo Repository, tx txRunner, rates Rates, openingBalance int, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("loyalty repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if !rates.PointValue.IsPositive() {
		return nil, fmt.Errorf("point value must be positive")
	}
	if openingBalance < 0 {
		return nil, fmt.Errorf("opening balance must be non-negative")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, rates: rates, openingBalance: openingBalance, logg: logg}, nil
}

func (s *service) Rates() Rates { return s.rates }

func (s *service) Balance(ctx context.Context, userID string) (int, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")
	}
	var balance int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		acct, err := s.openAccount(ctx, s.repo.WithTx(tx), userID)
		if err != nil {
			return err
		}
		balance = acct.Balance
		return nil
	})
	if err != nil {
		return 0, wrapDependency(err, "load loyalty balance")
	}
	return balance, nil
}

func (s *service) History(ctx context.Context, userID string, limit int) ([]models.LoyaltyEvent, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")
	}
	events, err := s.repo.ListEvents(ctx, userID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list loyalty events")
	}
	return events, nil
}

// openAccount finds or creates the account, recording an opened event on creation.
func (s *service) openAccount(ctx context.Context, repo Repository, userID string) (*models.LoyaltyAccount, error) {
	acct, created, err := repo.FindOrCreate(ctx, userID, s.openingBalance)
	if err != nil {
		return nil, err
	}
	if created {
		opened := []models.LoyaltyEvent{{
			UserID:       userID,
			Type:         enums.LoyaltyEventOpened,
			Points:       acct.Balance,
			BalanceAfter: acct.Balance,
		}}
		if err := repo.AppendEvents(ctx, opened); err != nil {
			return nil, err
		}
		s.logg.Info(s.logg.WithUserID(ctx, userID), "loyalty account opened")
	}
	return acct, nil
}

// SettleCheckout debits redeemed points and credits earned points inside tx.
// A concurrent balance change is retried before surfacing as CodeConflict.
func (s *service) SettleCheckout(ctx context.Context, tx *gorm.DB, in SettleInput) (*Settlement, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required")
	}
	if in.Redeemed < 0 || in.Earned < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "point movements must be non-negative")
	}
	repo := s.repo.WithTx(tx)

	for attempt := 1; attempt <= maxSettleAttempts; attempt++ {
		acct, err := s.openAccount(ctx, repo, in.UserID)
		if err != nil {
			return nil, wrapDependency(err, "load loyalty account")
		}
		if in.Redeemed > acct.Balance {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Insufficient Points").
				WithDetails(map[string]any{"balance": acct.Balance})
		}

		afterDebit := acct.Balance - in.Redeemed
		after := afterDebit + in.Earned
		swapped, err := repo.CompareAndSwapBalance(ctx, in.UserID, acct.Version, after)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update loyalty balance")
		}
		if !swapped {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"user_id": in.UserID, "attempt": attempt}), "loyalty balance version changed, retrying")
			continue
		}

		events := pointEvents(in, afterDebit, after)
		if err := repo.AppendEvents(ctx, events); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append loyalty events")
		}
		return &Settlement{BalanceBefore: acct.Balance, BalanceAfter: after, Events: events}, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeConflict, "loyalty balance changed concurrently")
}

func pointEvents(in SettleInput, afterDebit, after int) []models.LoyaltyEvent {
	var orderID *uuid.UUID
	if in.OrderID != uuid.Nil {
		id := in.OrderID
		orderID = &id
	}
	var events []models.LoyaltyEvent
	if in.Redeemed > 0 {
		events = append(events, models.LoyaltyEvent{
			UserID:       in.UserID,
			OrderID:      orderID,
			Type:         enums.LoyaltyEventRedeemed,
			Points:       -in.Redeemed,
			BalanceAfter: afterDebit,
		})
	}
	if in.Earned > 0 {
		events = append(events, models.LoyaltyEvent{
			UserID:       in.UserID,
			OrderID:      orderID,
			Type:         enums.LoyaltyEventEarned,
			Points:       in.Earned,
			BalanceAfter: after,
		})
	}
	return events
}

func wrapDependency(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}
