package pkgs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ArkinSolomon/xpkg-core/internal/apperrors"
	"github.com/ArkinSolomon/xpkg-core/internal/dbtx"
)

// PackageStore persists Package rows in the registry schema.
type PackageStore struct {
	db dbtx.DBTX
}

// NewPackageStore creates a PackageStore backed by db.
func NewPackageStore(db dbtx.DBTX) *PackageStore {
	return &PackageStore{db: db}
}

const packageColumns = `package_id, package_name, author_id, author_name, description, package_type`

func scanPackage(row pgx.Row) (Package, error) {
	var p Package
	err := row.Scan(&p.PackageID, &p.PackageName, &p.AuthorID, &p.AuthorName, &p.Description, &p.PackageType)
	return p, err
}

// Create inserts a new Package. The registry schema's unique indices on
// package_id and lower(package_name) surface as Postgres errors the caller
// translates to id_in_use/name_in_use before calling Create (checked via
// IDExists/NameExists first, since the pre-check contract requires a
// specific machine code per conflict).
func (s *PackageStore) Create(ctx context.Context, p Package) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO packages (`+packageColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.PackageID, p.PackageName, p.AuthorID, p.AuthorName, p.Description, p.PackageType)
	if err != nil {
		return fmt.Errorf("inserting package: %w", err)
	}
	return nil
}

// GetByID looks up a package by its opaque id.
func (s *PackageStore) GetByID(ctx context.Context, packageID string) (Package, error) {
	row := s.db.QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE package_id = $1`, packageID)
	p, err := scanPackage(row)
	if err != nil {
		return Package{}, &apperrors.NoSuchPackageError{ID: packageID, Detail: err.Error()}
	}
	return p, nil
}

// IDExists reports whether packageID is already registered.
func (s *PackageStore) IDExists(ctx context.Context, packageID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM packages WHERE package_id = $1)`, packageID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking package id existence: %w", err)
	}
	return exists, nil
}

// NameExists reports whether packageName is already taken, case-insensitively.
func (s *PackageStore) NameExists(ctx context.Context, packageName string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM packages WHERE lower(package_name) = lower($1))`, packageName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking package name existence: %w", err)
	}
	return exists, nil
}

// ListAll returns every registered package, the input the catalog snapshot
// builder filters down to packages with at least one published version
// (SPEC_FULL §4.8).
func (s *PackageStore) ListAll(ctx context.Context) ([]Package, error) {
	rows, err := s.db.Query(ctx, `SELECT `+packageColumns+` FROM packages`)
	if err != nil {
		return nil, fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var packages []Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning package: %w", err)
		}
		packages = append(packages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating packages: %w", err)
	}
	return packages, nil
}

// UpdateDescription replaces a package's description.
func (s *PackageStore) UpdateDescription(ctx context.Context, packageID, description string) error {
	tag, err := s.db.Exec(ctx, `UPDATE packages SET description = $2 WHERE package_id = $1`, packageID, description)
	if err != nil {
		return fmt.Errorf("updating description: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperrors.NoSuchPackageError{ID: packageID, Detail: "no rows updated"}
	}
	return nil
}

// VersionStore persists Version rows in the registry schema.
type VersionStore struct {
	db dbtx.DBTX
}

// NewVersionStore creates a VersionStore backed by db.
func NewVersionStore(db dbtx.DBTX) *VersionStore {
	return &VersionStore{db: db}
}

const versionColumns = `package_id, version_string, hash, is_public, is_stored, loc, private_key, downloads, upload_date, status, dependencies, incompatibilities, size, installed_size, xp_selection, platform_macos, platform_windows, platform_linux`

func scanVersion(row pgx.Row) (Version, error) {
	var v Version
	var deps, incompat []byte
	err := row.Scan(
		&v.PackageID, &v.VersionString, &v.Hash, &v.IsPublic, &v.IsStored, &v.Loc, &v.PrivateKey,
		&v.Downloads, &v.UploadDate, &v.Status, &deps, &incompat, &v.Size, &v.InstalledSize, &v.XPSelection,
		&v.Platforms.MacOS, &v.Platforms.Windows, &v.Platforms.Linux,
	)
	if err != nil {
		return Version{}, err
	}
	if len(deps) > 0 {
		if err := json.Unmarshal(deps, &v.Dependencies); err != nil {
			return Version{}, fmt.Errorf("decoding dependencies: %w", err)
		}
	}
	if len(incompat) > 0 {
		if err := json.Unmarshal(incompat, &v.Incompatibilities); err != nil {
			return Version{}, fmt.Errorf("decoding incompatibilities: %w", err)
		}
	}
	return v, nil
}

// Create inserts a new Version row with status Processing (spec.md §4.4
// pre-checks).
func (s *VersionStore) Create(ctx context.Context, v Version) error {
	deps, err := json.Marshal(v.Dependencies)
	if err != nil {
		return fmt.Errorf("encoding dependencies: %w", err)
	}
	incompat, err := json.Marshal(v.Incompatibilities)
	if err != nil {
		return fmt.Errorf("encoding incompatibilities: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO versions (`+versionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		v.PackageID, v.VersionString, v.Hash, v.IsPublic, v.IsStored, v.Loc, v.PrivateKey,
		v.Downloads, v.UploadDate, v.Status, deps, incompat, v.Size, v.InstalledSize, v.XPSelection,
		v.Platforms.MacOS, v.Platforms.Windows, v.Platforms.Linux,
	)
	if err != nil {
		return fmt.Errorf("inserting version: %w", err)
	}
	return nil
}

// Get looks up a single version by (packageId, versionString).
func (s *VersionStore) Get(ctx context.Context, packageID, versionString string) (Version, error) {
	row := s.db.QueryRow(ctx, `SELECT `+versionColumns+` FROM versions WHERE package_id = $1 AND version_string = $2`, packageID, versionString)
	v, err := scanVersion(row)
	if err != nil {
		return Version{}, &apperrors.NoSuchPackageError{ID: packageID + "@" + versionString, Detail: err.Error()}
	}
	return v, nil
}

// Exists reports whether (packageId, versionString) is already registered
// (spec.md §4.4's version_exists pre-check).
func (s *VersionStore) Exists(ctx context.Context, packageID, versionString string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM versions WHERE package_id = $1 AND version_string = $2)`, packageID, versionString).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking version existence: %w", err)
	}
	return exists, nil
}

// ListPublished returns every (isPublic AND status=Processed) version for
// packageID, the catalog snapshot's read path (spec.md §4.4).
func (s *VersionStore) ListPublished(ctx context.Context, packageID string) ([]Version, error) {
	rows, err := s.db.Query(ctx, `SELECT `+versionColumns+` FROM versions WHERE package_id = $1 AND is_public AND status = $2`, packageID, StatusProcessed)
	if err != nil {
		return nil, fmt.Errorf("listing published versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListAllPublished returns every (isPublic AND status=Processed) version
// across all packages, used by the periodic catalog snapshot builder.
func (s *VersionStore) ListAllPublished(ctx context.Context) ([]Version, error) {
	rows, err := s.db.Query(ctx, `SELECT `+versionColumns+` FROM versions WHERE is_public AND status = $1`, StatusProcessed)
	if err != nil {
		return nil, fmt.Errorf("listing published versions: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// UpdateStatus validates and applies a status transition (spec.md §3's
// state machine).
func (s *VersionStore) UpdateStatus(ctx context.Context, packageID, versionString string, to Status, uploadDate *time.Time) error {
	current, err := s.Get(ctx, packageID, versionString)
	if err != nil {
		return err
	}
	next, err := Transition(current.Status, to)
	if err != nil {
		return err
	}

	if uploadDate != nil {
		_, err = s.db.Exec(ctx, `UPDATE versions SET status = $3, upload_date = $4 WHERE package_id = $1 AND version_string = $2`, packageID, versionString, next, *uploadDate)
	} else {
		_, err = s.db.Exec(ctx, `UPDATE versions SET status = $3 WHERE package_id = $1 AND version_string = $2`, packageID, versionString, next)
	}
	if err != nil {
		return fmt.Errorf("updating version status: %w", err)
	}
	return nil
}

// MarkProcessed finalizes a successful upload (spec.md §4.4 step 13).
func (s *VersionStore) MarkProcessed(ctx context.Context, packageID, versionString, hash, loc string, size, installedSize int64) error {
	current, err := s.Get(ctx, packageID, versionString)
	if err != nil {
		return err
	}
	if _, err := Transition(current.Status, StatusProcessed); err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE versions
		SET status = $3, hash = $4, loc = $5, size = $6, installed_size = $7
		WHERE package_id = $1 AND version_string = $2
	`, packageID, versionString, StatusProcessed, hash, loc, size, installedSize)
	if err != nil {
		return fmt.Errorf("marking version processed: %w", err)
	}
	return nil
}

// UpdateIncompatibilities replaces a version's dependency/incompatibility
// lists (spec.md §4.6 PATCH /packages/incompatibilities).
func (s *VersionStore) UpdateIncompatibilities(ctx context.Context, packageID, versionString string, deps, incompat []DependencyEntry) error {
	depsJSON, err := json.Marshal(deps)
	if err != nil {
		return fmt.Errorf("encoding dependencies: %w", err)
	}
	incompatJSON, err := json.Marshal(incompat)
	if err != nil {
		return fmt.Errorf("encoding incompatibilities: %w", err)
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE versions SET dependencies = $3, incompatibilities = $4
		WHERE package_id = $1 AND version_string = $2
	`, packageID, versionString, depsJSON, incompatJSON)
	if err != nil {
		return fmt.Errorf("updating incompatibilities: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperrors.NoSuchPackageError{ID: packageID + "@" + versionString, Detail: "no rows updated"}
	}
	return nil
}

// UpdateXPSelection replaces a version's host-application version selection
// (spec.md §4.6 PATCH /packages/xpselection).
func (s *VersionStore) UpdateXPSelection(ctx context.Context, packageID, versionString, xpSelection string) error {
	tag, err := s.db.Exec(ctx, `UPDATE versions SET xp_selection = $3 WHERE package_id = $1 AND version_string = $2`, packageID, versionString, xpSelection)
	if err != nil {
		return fmt.Errorf("updating xp selection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperrors.NoSuchPackageError{ID: packageID + "@" + versionString, Detail: "no rows updated"}
	}
	return nil
}

// IncrementDownloads bumps a version's download counter by one, called
// alongside the hourly analytics bucket write (spec.md §3 DownloadEntry).
func (s *VersionStore) IncrementDownloads(ctx context.Context, packageID, versionString string) error {
	_, err := s.db.Exec(ctx, `UPDATE versions SET downloads = downloads + 1 WHERE package_id = $1 AND version_string = $2`, packageID, versionString)
	if err != nil {
		return fmt.Errorf("incrementing downloads: %w", err)
	}
	return nil
}
