package common

import (
	"fmt"
	"slices"
	"time"

	"atspro/internal/formatters"
)

// ValidateOutputFormat checks format against the configured formats and the
// formatter registry. An empty configured list allows any registered format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) > 0 && !slices.Contains(supportedFormats, format) {
		return fmt.Errorf("unsupported output format '%s'. Supported formats: %v",
			format, supportedFormats)
	}
	if !formatters.GlobalRegistry.Supports(format) {
		return fmt.Errorf("no formatter registered for '%s'", format)
	}
	return nil
}

// ParseDay reads a YYYY-MM-DD flag value as midnight UTC. Empty means yesterday.
func ParseDay(value string, now time.Time) (time.Time, error) {
	if value == "" {
		y, m, d := now.UTC().AddDate(0, 0, -1).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date '%s', expected YYYY-MM-DD", value)
	}
	return day, nil
}
