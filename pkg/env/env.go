package env

import (
	"os"
	"strings"
)

// Get reads key with surrounding whitespace trimmed; blank values fall back.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// First checks keys in order, so a prefixed name can shadow a legacy one.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := Get(key, ""); val != "" {
			return val
		}
	}
	return fallback
}
