package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/scanpay-backend/api/middleware"
	"github.com/angelmondragon/scanpay-backend/api/responses"
	"github.com/angelmondragon/scanpay-backend/api/validators"
	internalorders "github.com/angelmondragon/scanpay-backend/internal/orders"
	"github.com/angelmondragon/scanpay-backend/internal/risk"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/pagination"
)

const nextCursorHeader = "X-Next-Cursor"

type verifyRequest struct {
	Code string `json:"code" validate:"required,max=128"`
}

func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
}

// Mine lists the caller's own orders, newest first.
func Mine(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		list, err := svc.ListForUser(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// List is the staff order queue, optionally filtered by status and user.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		limit, after, err := validators.ParsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryEnum(r, "status", enums.ParseOrderStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := internalorders.ListFilter{
			UserID: strings.TrimSpace(r.URL.Query().Get("userId")),
			Status: status,
			Limit:  limit,
			After:  after,
		}

		list, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(list) == limit {
			last := list[len(list)-1]
			w.Header().Set(nextCursorHeader, pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.Timestamp, Key: last.OrderNumber}))
		}
		responses.WriteSuccess(w, list)
	}
}

func Stats(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		stats, err := svc.Stats(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// Demo scores the canned scenarios without touching storage.
func Demo(scorer *risk.Scorer, now func() time.Time, logg *logger.Logger) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if scorer == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "risk scorer unavailable"))
			return
		}
		responses.WriteSuccess(w, internalorders.DemoScenarios(scorer, now()))
	}
}

func Get(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		order, err := svc.Get(r.Context(), chi.URLParam(r, "orderNumber"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// Verify accepts an exit QR payload or a bare order number.
func Verify(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		var payload verifyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := svc.VerifyExit(r.Context(), payload.Code, middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg)
			return
		}
		number := chi.URLParam(r, "orderNumber")
		if err := svc.Delete(r.Context(), number, middleware.UserIDFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"deleted": true, "orderNumber": number})
	}
}
