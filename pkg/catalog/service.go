package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ArkinSolomon/xpkg-core/internal/telemetry"
	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
)

// Service rebuilds and caches the catalog snapshot.
type Service struct {
	packages *pkgs.PackageStore
	versions *pkgs.VersionStore
	cache    *Cache
	logger   *slog.Logger
}

// NewService builds a catalog Service.
func NewService(packages *pkgs.PackageStore, versions *pkgs.VersionStore, cache *Cache, logger *slog.Logger) *Service {
	return &Service{packages: packages, versions: versions, cache: cache, logger: logger}
}

// Rebuild reads every package and published version, builds a fresh
// Snapshot, and writes it to the cache.
func (s *Service) Rebuild(ctx context.Context) error {
	start := time.Now()
	err := s.rebuild(ctx)
	telemetry.CatalogRebuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.CatalogRebuildFailuresTotal.Inc()
	}
	return err
}

func (s *Service) rebuild(ctx context.Context) error {
	packages, err := s.packages.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("listing packages for catalog: %w", err)
	}
	versions, err := s.versions.ListAllPublished(ctx)
	if err != nil {
		return fmt.Errorf("listing published versions for catalog: %w", err)
	}

	snap := Build(packages, versions)
	if err := s.cache.Write(ctx, snap); err != nil {
		return fmt.Errorf("writing catalog snapshot: %w", err)
	}
	return nil
}

// RunPeriodic schedules a rebuild every RebuildInterval (60s, spec.md
// §4.4's "periodic task") until ctx is cancelled. A failed rebuild is
// logged, not fatal; the next tick retries.
func (s *Service) RunPeriodic(ctx context.Context) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc("@every 60s", func() {
		if err := s.Rebuild(ctx); err != nil {
			s.logger.Error("catalog rebuild failed", "error", err)
		}
	})
	if err != nil {
		s.logger.Error("scheduling catalog rebuild", "error", err)
		return
	}

	if err := s.Rebuild(ctx); err != nil {
		s.logger.Error("catalog rebuild failed", "error", err)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
}

// Read returns the raw cached snapshot bytes for the unauthenticated read
// endpoint.
func (s *Service) Read(ctx context.Context) ([]byte, error) {
	return s.cache.Read(ctx)
}
