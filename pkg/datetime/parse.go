// Package datetime provides date and time utility functions.
package datetime

import (
	"strings"
	"time"

	"github.com/iwvelando/zakatease/pkg/constants"
)

const (
	// DateLayout is the ISO date format used for quotes and reports.
	DateLayout = constants.DateLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// NormalizeDate returns dateStr when it is a valid ISO date, the date part of
// an RFC 3339 timestamp when it is one, and fallback formatted as an ISO date
// otherwise.
func NormalizeDate(dateStr string, fallback time.Time) string {
	trimmed := strings.TrimSpace(dateStr)
	if t, err := time.Parse(DateLayout, trimmed); err == nil {
		return t.Format(DateLayout)
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return t.Format(DateLayout)
	}
	return fallback.UTC().Format(DateLayout)
}

// LongDate formats an ISO date as e.g. "March 5, 2025" for documents. Invalid
// input is returned unchanged.
func LongDate(dateStr string) string {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return dateStr
	}
	return t.Format("January 2, 2006")
}
