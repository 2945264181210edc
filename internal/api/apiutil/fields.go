package apiutil

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/timeslot"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, apperr.Field(field, "is required")
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, apperr.Field(field, "must be greater than 0")
	}
	return value, nil
}

// PathID parses the {name} path segment as a positive id.
func PathID(r *http.Request, name string) (int64, error) {
	return ParsePositiveInt64Field(r.PathValue(name), name)
}

// QueryDate parses a YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, name string, required bool) (time.Time, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		if required {
			return time.Time{}, false, apperr.Field(name, "is required")
		}
		return time.Time{}, false, nil
	}
	d, err := timeslot.ParseDate(raw)
	if err != nil {
		return time.Time{}, false, apperr.Field(name, "must be a YYYY-MM-DD date")
	}
	return d, true, nil
}

// QueryInt parses an optional non-negative integer query parameter.
func QueryInt(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperr.Field(name, "must be 0 or greater")
	}
	return v, nil
}

// QueryID parses an optional positive id query parameter; zero means absent.
func QueryID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	return ParsePositiveInt64Field(raw, name)
}
