package enums

import "fmt"

// OrderStatus tracks an order from checkout to exit verification.
type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "pending"
	OrderStatusFlagged  OrderStatus = "flagged"
	OrderStatusVerified OrderStatus = "verified"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusFlagged,
	OrderStatusVerified,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known order status.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatuses returns every known status in display order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}
