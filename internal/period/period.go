// Package period turns the admin dashboard's range names into lower time bounds.
package period

import (
	"strings"
	"time"

	"azbeauty-be/internal/apperror"
)

const All = "all"

var windows = map[string]time.Duration{
	"24h": 24 * time.Hour,
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// Since returns the start of the named range relative to now, or nil for "all" and "".
func Since(name string, now time.Time) (*time.Time, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == All {
		return nil, nil
	}
	d, ok := windows[name]
	if !ok {
		return nil, apperror.Validation("range must be one of 24h 7d 30d 90d all")
	}
	t := now.Add(-d)
	return &t, nil
}
