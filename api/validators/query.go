package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
	"github.com/angelmondragon/scanpay-backend/pkg/pagination"
)

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// ParseQueryInt reads key as an integer in [min, max]. A missing key yields def.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryEnum reads key through parse. It returns nil when key is absent.
func ParseQueryEnum[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return nil, nil
	}
	value, err := parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key+" filter").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	return &value, nil
}

// ParsePage reads the limit and cursor of a keyset-paged list.
func ParsePage(r *http.Request) (int, *pagination.Cursor, error) {
	limit, err := ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, nil, err
	}
	after, err := pagination.ParseCursor(queryValue(r, "cursor"))
	if err != nil {
		return 0, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails(map[string]any{"field": "cursor"})
	}
	return limit, after, nil
}
