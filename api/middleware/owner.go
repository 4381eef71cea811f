package middleware

import (
	"net/http"

	"github.com/angelmondragon/scanpay-backend/api/responses"
	"github.com/angelmondragon/scanpay-backend/internal/cart"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

// CartSessionHeader carries the anonymous cart id for guests.
const CartSessionHeader = "X-Cart-Session"

// CartOwner resolves whose cart the request works on. Signed-in users always
// get their own cart; guests must send CartSessionHeader.
func CartOwner(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var owner cart.Owner
			if userID := UserIDFromContext(r.Context()); userID != "" {
				owner = cart.UserOwner(userID)
			} else {
				guest, err := cart.GuestOwner(r.Header.Get(CartSessionHeader))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				owner = guest
			}

			ctx := WithCartOwner(r.Context(), owner)
			if logg != nil {
				ctx = logg.WithCartOwner(ctx, owner.Key)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
