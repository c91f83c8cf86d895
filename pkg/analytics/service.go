package analytics

import (
	"context"
	"fmt"
	"time"
)

// Service reads windowed download analytics.
type Service struct {
	store *Store
}

// NewService builds an analytics Service.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// RecordDownload increments the current hour's bucket for a version,
// called once per completed download (spec.md §3).
func (s *Service) RecordDownload(ctx context.Context, packageID, versionString string) error {
	if err := s.store.RecordDownload(ctx, packageID, versionString, time.Now()); err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// Window returns the hourly download buckets for (packageID,
// versionString) within [after, before), validating the window's bounds
// first (spec.md §4.6).
func (s *Service) Window(ctx context.Context, packageID, versionString string, after, before time.Time) ([]Bucket, error) {
	if err := ValidateWindow(after, before); err != nil {
		return nil, err
	}
	buckets, err := s.store.ListBuckets(ctx, packageID, versionString, after, before)
	if err != nil {
		return nil, fmt.Errorf("listing download buckets: %w", err)
	}
	return buckets, nil
}
