package controllers

import (
	"net/http"

	"github.com/angelmondragon/scanpay-backend/api/middleware"
	"github.com/angelmondragon/scanpay-backend/api/responses"
	"github.com/angelmondragon/scanpay-backend/api/validators"
	"github.com/angelmondragon/scanpay-backend/internal/cart"
	"github.com/angelmondragon/scanpay-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

const (
	maxShippingName    = 120
	maxShippingAddress = 500
)

// Checkout turns the caller's cart into an order and answers 201 with the scored result.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Authentication Required"))
			return
		}

		var payload checkout.Request
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		payload.Name = validators.SanitizeText(payload.Name, maxShippingName)
		payload.Address = validators.SanitizeText(payload.Address, maxShippingAddress)

		result, err := svc.Execute(r.Context(), cart.UserOwner(userID), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
