package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/api/middleware"
	"github.com/angelmondragon/scanpay-backend/api/responses"
	"github.com/angelmondragon/scanpay-backend/api/validators"
	"github.com/angelmondragon/scanpay-backend/internal/loyalty"
	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

// LoyaltyReader is the read side of loyalty.Service.
type LoyaltyReader interface {
	Rates() loyalty.Rates
	Balance(ctx context.Context, userID string) (int, error)
	History(ctx context.Context, userID string, limit int) ([]models.LoyaltyEvent, error)
}

type loyaltyBalanceResponse struct {
	Balance         int             `json:"balance"`
	PointValue      decimal.Decimal `json:"pointValue"`
	EarnRatePercent int             `json:"earnRatePercent"`
}

type loyaltyEventResponse struct {
	Type         string    `json:"type"`
	Points       int       `json:"points"`
	BalanceAfter int       `json:"balanceAfter"`
	OrderID      *string   `json:"orderId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// LoyaltyBalance returns the caller's points balance, opening the account on first read.
func LoyaltyBalance(svc LoyaltyReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		balance, err := svc.Balance(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rates := svc.Rates()
		responses.WriteSuccess(w, loyaltyBalanceResponse{
			Balance:         balance,
			PointValue:      rates.PointValue,
			EarnRatePercent: rates.EarnRatePercent,
		})
	}
}

func LoyaltyHistory(svc LoyaltyReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "loyalty service unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		events, err := svc.History(r.Context(), middleware.UserIDFromContext(r.Context()), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]loyaltyEventResponse, 0, len(events))
		for _, e := range events {
			item := loyaltyEventResponse{
				Type:         e.Type.String(),
				Points:       e.Points,
				BalanceAfter: e.BalanceAfter,
				CreatedAt:    e.CreatedAt,
			}
			if e.OrderID != nil {
				id := e.OrderID.String()
				item.OrderID = &id
			}
			out = append(out, item)
		}
		responses.WriteSuccess(w, out)
	}
}
