package platform

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunIdentityMigrations applies migrations under migrationsDir/identity,
// tracked in its own schema_migrations table so it doesn't collide with
// RunRegistryMigrations against the same database.
func RunIdentityMigrations(databaseURL, migrationsDir string) error {
	return runMigrations(withMigrationsTable(databaseURL, "identity_schema_migrations"), migrationsDir+"/identity")
}

// RunRegistryMigrations applies migrations under migrationsDir/registry.
func RunRegistryMigrations(databaseURL, migrationsDir string) error {
	return runMigrations(withMigrationsTable(databaseURL, "registry_schema_migrations"), migrationsDir+"/registry")
}

// withMigrationsTable sets the x-migrations-table query parameter so the
// identity and registry migration sets keep independent version history
// when both run against the same database (spec.md's two logical schemas,
// one physical Postgres instance).
func withMigrationsTable(databaseURL, table string) string {
	sep := "?"
	if strings.Contains(databaseURL, "?") {
		sep = "&"
	}
	return databaseURL + sep + "x-migrations-table=" + url.QueryEscape(table)
}

func runMigrations(databaseURL, dir string) error {
	m, err := migrate.New(
		fmt.Sprintf("file://%s", dir),
		databaseURL,
	)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}
