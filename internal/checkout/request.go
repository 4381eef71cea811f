package checkout

import (
	"net/mail"
	"strings"

	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

// Request is the shipping block captured when the customer pays.
type Request struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Address string `json:"address" validate:"required,max=500"`
}

func (r Request) normalize() (Request, error) {
	out := Request{
		Name:    strings.TrimSpace(r.Name),
		Email:   strings.TrimSpace(r.Email),
		Address: strings.TrimSpace(r.Address),
	}
	missing := make([]string, 0, 3)
	if out.Name == "" {
		missing = append(missing, "name")
	}
	if out.Email == "" {
		missing = append(missing, "email")
	}
	if out.Address == "" {
		missing = append(missing, "address")
	}
	if len(missing) > 0 {
		return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "Shipping Information Required").
			WithDetails(map[string]any{"missing": missing})
	}
	if _, err := mail.ParseAddress(out.Email); err != nil {
		return Request{}, pkgerrors.New(pkgerrors.CodeValidation, "Invalid Email").
			WithDetails(map[string]any{"email": out.Email})
	}
	return out, nil
}
