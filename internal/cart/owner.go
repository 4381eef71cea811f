package cart

import (
	"strings"

	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

const (
	userOwnerPrefix  = "user:"
	guestOwnerPrefix = "guest:"
	maxGuestIDLength = 128
)

// Owner identifies whose cart is being worked on.
type Owner struct {
	Key    string
	UserID string
}

// Authenticated reports whether the owner is a signed-in user.
func (o Owner) Authenticated() bool { return o.UserID != "" }

// UserOwner is the cart of a signed-in user.
func UserOwner(userID string) Owner {
	id := strings.TrimSpace(userID)
	return Owner{Key: userOwnerPrefix + id, UserID: id}
}

// GuestOwner is the cart of an anonymous session id.
func GuestOwner(sessionID string) (Owner, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is required")
	}
	if len(id) > maxGuestIDLength || strings.ContainsAny(id, ": \t\n") {
		return Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "cart session id is malformed")
	}
	return Owner{Key: guestOwnerPrefix + id}, nil
}

func (o Owner) validate() error {
	if strings.TrimSpace(o.Key) == "" || o.Key == userOwnerPrefix {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner is required")
	}
	return nil
}
