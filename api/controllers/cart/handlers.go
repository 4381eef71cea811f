package cart

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/scanpay-backend/api/middleware"
	"github.com/angelmondragon/scanpay-backend/api/responses"
	"github.com/angelmondragon/scanpay-backend/api/validators"
	cartsvc "github.com/angelmondragon/scanpay-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

type summaryFunc func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error)

// handle resolves the owner, runs fn and writes the resulting cart.
func handle(svc cartsvc.Service, logg *logger.Logger, fn summaryFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := middleware.CartOwnerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required"))
			return
		}
		summary, err := fn(r, owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}

func productIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "productId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return id, nil
}

func Get(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		return svc.Get(r.Context(), owner)
	})
}

// AddItem merges a scanned product into the cart.
func AddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AddItem(r.Context(), owner, strings.TrimSpace(payload.ProductID), payload.Quantity, payload.SkipBundleCheck)
	})
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func UpdateQuantity(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		productID, err := productIDParam(r)
		if err != nil {
			return nil, err
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.UpdateQuantity(r.Context(), owner, productID, *payload.Quantity)
	})
}

func RemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		productID, err := productIDParam(r)
		if err != nil {
			return nil, err
		}
		return svc.RemoveItem(r.Context(), owner, productID)
	})
}

func Clear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		return svc.Clear(r.Context(), owner)
	})
}

// RedeemPoints replaces the cart's redemption. Guests are rejected by the service.
func RedeemPoints(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		var payload redeemPointsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.RedeemPoints(r.Context(), owner, payload.Points)
	})
}

func ClearPoints(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		return svc.ClearPoints(r.Context(), owner)
	})
}

// Spin draws the reward wheel. The response carries the angle for the client animation.
func Spin(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, ok := middleware.CartOwnerFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required"))
			return
		}
		outcome, err := svc.Spin(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

func AcceptBundle(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		var payload acceptBundleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			return nil, err
		}
		return svc.AcceptBundle(r.Context(), owner, strings.TrimSpace(payload.BundleID), payload.AddMissingItems)
	})
}

func ClearBundle(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		return svc.ClearBundle(r.Context(), owner)
	})
}

func DismissBundleOffer(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return handle(svc, logg, func(r *http.Request, owner cartsvc.Owner) (*cartsvc.Summary, error) {
		return svc.DismissBundleOffer(r.Context(), owner)
	})
}
