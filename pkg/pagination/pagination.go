package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultLimit = 100
	// MaxLimit caps how many rows any cursor query can request.
	MaxLimit = 500
)

// Cursor marks the last row of a page ordered by (CreatedAt DESC, Key DESC).
type Cursor struct {
	CreatedAt time.Time
	Key       string
}

// NormalizeLimit enforces the default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// EncodeCursor renders cursor as the opaque X-Next-Cursor value.
func EncodeCursor(cursor Cursor) string {
	payload := fmt.Sprintf("%s|%s", cursor.CreatedAt.UTC().Format(time.RFC3339Nano), cursor.Key)
	return base64.RawURLEncoding.EncodeToString([]byte(payload))
}

// ParseCursor returns nil, nil for an empty value.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return nil, fmt.Errorf("invalid cursor format")
	}

	t, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return nil, fmt.Errorf("invalid cursor timestamp: %w", err)
	}
	return &Cursor{CreatedAt: t, Key: parts[1]}, nil
}
