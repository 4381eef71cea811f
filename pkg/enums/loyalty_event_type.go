package enums

import "fmt"

// LoyaltyEventType classifies an append-only loyalty point movement.
type LoyaltyEventType string

const (
	LoyaltyEventOpened   LoyaltyEventType = "opened"
	LoyaltyEventRedeemed LoyaltyEventType = "redeemed"
	LoyaltyEventEarned   LoyaltyEventType = "earned"
)

var validLoyaltyEventTypes = []LoyaltyEventType{
	LoyaltyEventOpened,
	LoyaltyEventRedeemed,
	LoyaltyEventEarned,
}

func (t LoyaltyEventType) String() string {
	return string(t)
}

func (t LoyaltyEventType) IsValid() bool {
	for _, candidate := range validLoyaltyEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseLoyaltyEventType(value string) (LoyaltyEventType, error) {
	for _, candidate := range validLoyaltyEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty event type %q", value)
}
