package enums

import (
	"fmt"
	"strings"
)

// Role is the actor role carried by access tokens.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleStaff    Role = "staff"
)

var validRoles = []Role{RoleCustomer, RoleStaff}

func (r Role) String() string {
	return string(r)
}

// IsValid reports whether the value is a known role.
func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role. Matching is case-insensitive.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}
