package router

import (
	"strings"

	"github.com/shopspring/decimal"
)

// stringPtr returns a trimmed pointer or nil when the input is empty.
func stringPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func int64Ptr(value int64) *int64 {
	return &value
}

func boolPtr(value bool) *bool {
	return &value
}

// numericPtr renders a decimal as a BigQuery NUMERIC literal.
func numericPtr(value decimal.Decimal) *string {
	s := value.StringFixed(2)
	return &s
}

func optionalString(value *string) *string {
	if value == nil {
		return nil
	}
	return stringPtr(*value)
}
