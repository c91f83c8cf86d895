// Package app wires together X-Pkg's three runtime modes — identity,
// registry, and jobs — from a single Config (SPEC_FULL.md §2.1, §5.1). The
// same binary serves all three; Run dispatches on cfg.Mode and blocks until
// ctx is cancelled.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ArkinSolomon/xpkg-core/internal/audit"
	"github.com/ArkinSolomon/xpkg-core/internal/auth"
	"github.com/ArkinSolomon/xpkg-core/internal/config"
	"github.com/ArkinSolomon/xpkg-core/internal/httpserver"
	"github.com/ArkinSolomon/xpkg-core/internal/platform"
	"github.com/ArkinSolomon/xpkg-core/internal/telemetry"
	"github.com/ArkinSolomon/xpkg-core/internal/version"
	"github.com/ArkinSolomon/xpkg-core/pkg/analytics"
	"github.com/ArkinSolomon/xpkg-core/pkg/author"
	"github.com/ArkinSolomon/xpkg-core/pkg/authcode"
	"github.com/ArkinSolomon/xpkg-core/pkg/captchaport"
	"github.com/ArkinSolomon/xpkg-core/pkg/catalog"
	"github.com/ArkinSolomon/xpkg-core/pkg/jobscoordinator"
	"github.com/ArkinSolomon/xpkg-core/pkg/mailport"
	"github.com/ArkinSolomon/xpkg-core/pkg/oauthclient"
	"github.com/ArkinSolomon/xpkg-core/pkg/objectstore"
	"github.com/ArkinSolomon/xpkg-core/pkg/pkgs"
	"github.com/ArkinSolomon/xpkg-core/pkg/upload"
	"github.com/ArkinSolomon/xpkg-core/pkg/user"
	"github.com/ArkinSolomon/xpkg-core/pkg/worker"
	"github.com/ArkinSolomon/xpkg-core/pkg/xtoken"
)

// Run opens the database and Redis connections, applies migrations, wires
// the components cfg.Mode needs, and serves HTTP until ctx is cancelled.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting xpkg-core", "mode", cfg.Mode, "version", version.Version, "commit", version.Commit)

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg.OTLPEndpoint, "xpkg-core", version.Version)
	if err != nil {
		return fmt.Errorf("initializing tracer: %w", err)
	}
	defer shutdownTracer(context.Background()) //nolint:errcheck // best-effort flush on exit

	pool, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConn)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	// Both logical schemas live in the same physical database (spec.md §9);
	// every mode keeps both current rather than branching migrations on
	// cfg.Mode.
	if err := platform.RunIdentityMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running identity migrations: %w", err)
	}
	if err := platform.RunRegistryMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running registry migrations: %w", err)
	}

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer rdb.Close()

	metricsReg := telemetry.NewMetricsRegistry()
	tokens := xtoken.NewPostgresRepository(pool)

	auditWriter := audit.NewWriter(pool, logger)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	srv := httpserver.NewServer(cfg, logger, pool, rdb, metricsReg, tokens)

	var backgroundTasks []func(context.Context)

	switch cfg.Mode {
	case "identity":
		mountIdentity(srv, pool, rdb, tokens, auditWriter, cfg, logger)
	case "registry":
		rebuilder, err := mountRegistry(srv, cfg, pool, rdb, auditWriter, logger)
		if err != nil {
			return fmt.Errorf("mounting registry mode: %w", err)
		}
		backgroundTasks = append(backgroundTasks, rebuilder)
	case "jobs":
		if err := mountJobs(srv, cfg, logger); err != nil {
			return fmt.Errorf("mounting jobs mode: %w", err)
		}
	default:
		return fmt.Errorf("unknown mode %q (want identity, registry, or jobs)", cfg.Mode)
	}

	for _, task := range backgroundTasks {
		go task(ctx)
	}

	return serve(ctx, cfg, srv, logger)
}

// loginRateLimit bounds failed authentication attempts per key (spec.md §5):
// 10 failures per 15-minute window before a 429 kicks in.
const (
	loginRateLimitMaxAttempt = 10
	loginRateLimitWindow     = 15 * time.Minute
)

// mountIdentity wires account signup/login/profile management, OAuth client
// registration, and the authorization-code + PKCE flow (spec.md §4.1, §4.2).
func mountIdentity(srv *httpserver.Server, pool *pgxpool.Pool, rdb *redis.Client, tokens xtoken.Repository, auditWriter *audit.Writer, cfg *config.Config, logger *slog.Logger) {
	mailSender := newMailSender(cfg, logger)
	captchaVerifier := newCaptchaVerifier(cfg)
	limiter := auth.NewRateLimiter(rdb, loginRateLimitMaxAttempt, loginRateLimitWindow)

	userStore := user.NewStore(pool)
	userService := user.NewService(userStore, mailSender, captchaVerifier, auditWriter, limiter, logger)
	srv.APIRouter.Mount("/users", user.NewHandler(userService, logger).Routes())

	clientStore := oauthclient.NewStore(pool)
	clientService := oauthclient.NewService(clientStore, auditWriter)
	srv.APIRouter.Mount("/oauth/clients", oauthclient.NewHandler(clientService, logger).Routes())

	codeStore := authcode.NewStore(pool)
	codeService := authcode.NewService(codeStore, clientStore, tokens, clientService, limiter)
	srv.APIRouter.Mount("/oauth", authcode.NewHandler(codeService, logger).Routes())
}

// mountRegistry wires package administration, upload intake, catalog
// snapshot serving, and download analytics (spec.md §4.3-§4.6, §4.8). It
// returns the periodic catalog-rebuild task the caller runs as a background
// goroutine.
func mountRegistry(srv *httpserver.Server, cfg *config.Config, pool *pgxpool.Pool, rdb *redis.Client, auditWriter *audit.Writer, logger *slog.Logger) (func(context.Context), error) {
	objects, err := newObjectStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("building object store: %w", err)
	}

	packageStore := pkgs.NewPackageStore(pool)
	versionStore := pkgs.NewVersionStore(pool)
	authorStore := author.NewStore(pool)
	mailSender := newMailSender(cfg, logger)

	pkgsService := pkgs.NewService(packageStore, versionStore, authorStore, mailSender, auditWriter, logger)
	srv.APIRouter.Mount("/packages", pkgs.NewHandler(pkgsService, logger).Routes())

	analyticsStore := analytics.NewStore(pool)
	analyticsService := analytics.NewService(analyticsStore)
	srv.APIRouter.Mount("/analytics", analytics.NewHandler(analyticsService, logger).Routes())

	cache := catalog.NewCache(rdb, objects)
	catalogService := catalog.NewService(packageStore, versionStore, cache, logger)
	srv.Router.Mount("/catalog", catalog.NewHandler(catalogService, logger).Routes())

	presignTTL, err := time.ParseDuration(cfg.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("parsing XPKG_PRESIGN_TTL: %w", err)
	}
	workerService := worker.NewService(worker.Config{
		ScratchDir:      cfg.UploadScratchDir,
		CoordinatorURL:  cfg.JobsCoordinatorURL,
		TrustHash:       trustHash(cfg.JobsTrustSecret),
		ServicePassword: cfg.JobsServicePassword,
		PresignTTL:      presignTTL,
	}, packageStore, versionStore, authorStore, objects, mailSender, logger)

	uploadService := upload.NewService(packageStore, versionStore, workerService, workerService)
	srv.APIRouter.Mount("/upload", upload.NewHandler(uploadService, logger).Routes())

	return catalogService.RunPeriodic, nil
}

// mountJobs wires the jobs-coordinator websocket endpoint workers dial into
// to run the trust handshake and job-timeout monitoring (spec.md §4.5).
func mountJobs(srv *httpserver.Server, cfg *config.Config, logger *slog.Logger) error {
	claimTimeout, err := time.ParseDuration(cfg.JobsClaimTimeout)
	if err != nil {
		return fmt.Errorf("parsing XPKG_JOBS_CLAIM_TIMEOUT: %w", err)
	}

	coordinator := jobscoordinator.New(jobscoordinator.Config{
		TrustSecret:     cfg.JobsTrustSecret,
		ServicePassword: cfg.JobsServicePassword,
		JobTimeout:      claimTimeout,
	})
	srv.Router.Handle("/ws", jobscoordinator.NewServer(coordinator, logger))
	return nil
}

// trustHash derives the worker-side configuration value for a coordinator's
// trust secret (spec.md §4.5 step 2: workers never see the plaintext, only
// its hash).
func trustHash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// newObjectStore builds an S3Store when bucket/credential configuration is
// present, falling back to the in-memory dev adapter otherwise.
func newObjectStore(cfg *config.Config) (objectstore.Store, error) {
	if cfg.S3Endpoint == "" && cfg.S3AccessKeyID == "" {
		return objectstore.NewMemStore(), nil
	}
	return objectstore.NewS3Store(context.Background(), objectstore.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		UsePathStyle:    cfg.S3Endpoint != "",
	})
}

// newMailSender builds the HTTP transactional-email adapter when an API
// endpoint is configured, falling back to the log-only dev adapter.
func newMailSender(cfg *config.Config, logger *slog.Logger) mailport.Sender {
	if cfg == nil || cfg.MailAPIEndpoint == "" {
		return mailport.NewLogSender(logger)
	}
	return mailport.NewHTTPSender(cfg.MailAPIEndpoint, cfg.MailAPIKey, cfg.MailFrom)
}

// newCaptchaVerifier builds the siteverify-style HTTP adapter when a captcha
// secret is configured, falling back to the allow-all dev adapter.
func newCaptchaVerifier(cfg *config.Config) captchaport.Verifier {
	if cfg.CaptchaSecret == "" {
		return captchaport.NewAllowAll()
	}
	return captchaport.NewHTTPVerifier(cfg.CaptchaVerifyEndpoint, cfg.CaptchaSecret)
}

// serve runs srv over HTTP until ctx is cancelled, then shuts down
// gracefully.
func serve(ctx context.Context, cfg *config.Config, srv *httpserver.Server, logger *slog.Logger) error {
	httpSrv := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: srv,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.ListenAddr(), "mode", cfg.Mode)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down http server: %w", err)
	}
	return nil
}
