// Package analytics implements hourly download counters and the windowed
// analytics read endpoint (spec.md §3, §4.6).
package analytics

import (
	"time"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
)

const (
	minWindow = time.Hour
	maxWindow = 30 * 24 * time.Hour
)

// Bucket is one hourly download count for a package version.
type Bucket struct {
	PackageID     string
	VersionString string
	HourStart     time.Time
	Downloads     int64
}

// BucketStart rounds t down to the start of its UTC hour, the fixed
// granularity download counters are bucketed at.
func BucketStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), u.Hour(), 0, 0, 0, time.UTC)
}

// ValidateWindow enforces the analytics read window's bounds: at least one
// hour and at most thirty days, after must precede before.
func ValidateWindow(after, before time.Time) error {
	if !before.After(after) {
		return apperrors.NewClientError(apperrors.CodeBadDateCombo, "before must be after after")
	}
	diff := before.Sub(after)
	if diff < minWindow {
		return apperrors.NewClientError(apperrors.CodeShortDiff, "window must span at least one hour")
	}
	if diff > maxWindow {
		return apperrors.NewClientError(apperrors.CodeLongDiff, "window must span at most thirty days")
	}
	return nil
}
