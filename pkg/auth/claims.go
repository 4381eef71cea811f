package auth

import (
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID string
	Role   enums.Role
	Name   string
	Email  string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID string     `json:"user_id"`
	Role   enums.Role `json:"role"`
	Name   string     `json:"name,omitempty"`
	Email  string     `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// IsStaff reports whether the token grants staff tooling.
func (c *AccessTokenClaims) IsStaff() bool {
	return c != nil && c.Role == enums.RoleStaff
}
