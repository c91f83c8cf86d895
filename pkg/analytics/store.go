package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
)

// Store persists hourly download buckets in the registry schema.
type Store struct {
	db dbtx.DBTX
}

// NewStore creates an analytics Store backed by db.
func NewStore(db dbtx.DBTX) *Store {
	return &Store{db: db}
}

// RecordDownload increments the bucket covering t's UTC hour for
// (packageID, versionString) by one, creating the row if absent.
func (s *Store) RecordDownload(ctx context.Context, packageID, versionString string, t time.Time) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO download_buckets (package_id, version_string, hour_start, downloads)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (package_id, version_string, hour_start)
		DO UPDATE SET downloads = download_buckets.downloads + 1
	`, packageID, versionString, BucketStart(t))
	if err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// ListBuckets returns the hourly buckets for (packageID, versionString)
// whose hourStart falls in [after, before), ordered chronologically.
func (s *Store) ListBuckets(ctx context.Context, packageID, versionString string, after, before time.Time) ([]Bucket, error) {
	rows, err := s.db.Query(ctx, `
		SELECT package_id, version_string, hour_start, downloads
		FROM download_buckets
		WHERE package_id = $1 AND version_string = $2 AND hour_start >= $3 AND hour_start < $4
		ORDER BY hour_start ASC
	`, packageID, versionString, BucketStart(after), BucketStart(before))
	if err != nil {
		return nil, fmt.Errorf("listing download buckets: %w", err)
	}
	defer rows.Close()

	var buckets []Bucket
	for rows.Next() {
		b, err := scanBucket(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning download bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating download buckets: %w", err)
	}
	return buckets, nil
}

func scanBucket(row pgx.Row) (Bucket, error) {
	var b Bucket
	if err := row.Scan(&b.PackageID, &b.VersionString, &b.HourStart, &b.Downloads); err != nil {
		return Bucket{}, err
	}
	return b, nil
}
