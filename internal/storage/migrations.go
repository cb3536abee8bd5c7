// Package storage persists meetings, attendance records, the physical scan
// ledger, staff, users and sessions.
//
// Schema changes are applied by a small embedded-file migration runner.
// Migration SQL files live in a driver specific directory under "migrations"
// and are compiled into the binary.
//
// Migration file naming and format
//   - Filenames must match the pattern: NNNN_name.up.sql or NNNN_name.down.sql
//     (regex: ^(?P<Version>\d{4})\_(?P<Name>[^.]+)\.(?P<Direction>(up|down))\.sql$).
//   - Version is a four-digit integer (e.g. 0001, 0002).
//   - Direction is either "up" (apply) or "down" (rollback).
//
// The applied version is kept in the schema_migrations table, one row per
// applied up migration.
package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
)

//go:embed migrations/**/*.sql
var migrationsFS embed.FS

var reMigrationFilename = regexp.MustCompile(`^(?P<Version>\d{4})\_(?P<Name>[^.]+)\.(?P<Direction>(up|down))\.sql$`)

var (
	ErrMigrateCurrentVersionSameAsTarget = errors.New("current version is the same as target version")
	ErrMigrateTargetOutOfRange           = errors.New("target version is out of range")
)

const createSchemaMigrations = `CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at DATETIME NOT NULL
)`

// SchemaMigration represents a single database migration
type SchemaMigration struct {
	Version int
	Name    string
	Up      bool
	SQL     string
}

// After is the schema version once the migration has been applied.
func (m *SchemaMigration) After() int {
	if m.Up {
		return m.Version
	}
	return m.Version - 1
}

// MigrationRunner handles database migrations
type MigrationRunner struct {
	db     *sqlx.DB
	driver string
	files  fs.FS
	logger *slog.Logger
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *sqlx.DB, driver string) *MigrationRunner {
	return &MigrationRunner{
		db:     db,
		driver: driver,
		files:  migrationsFS,
		logger: slog.With("component", "migrations", "driver", driver),
	}
}

func (mr *MigrationRunner) dir() (string, error) {
	switch mr.driver {
	case "sqlite3":
		return "migrations/sqlite3", nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", mr.driver)
	}
}

// available parses every migration file for the runner's driver.
func (mr *MigrationRunner) available() ([]SchemaMigration, error) {
	dirPath, err := mr.dir()
	if err != nil {
		return nil, err
	}

	entries, err := fs.ReadDir(mr.files, dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory: %w", err)
	}

	var migrations []SchemaMigration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		migration, err := mr.parseMigrationFile(path.Join(dirPath, entry.Name()))
		if err != nil {
			mr.logger.Warn("Failed to parse migration file", "file", entry.Name(), "error", err)
			continue
		}
		migrations = append(migrations, migration)
	}
	return migrations, nil
}

// LatestVersion returns the highest version with an up migration.
func (mr *MigrationRunner) LatestVersion() (int, error) {
	migrations, err := mr.available()
	if err != nil {
		return -1, err
	}

	latest := 0
	for _, m := range migrations {
		if m.Up && m.Version > latest {
			latest = m.Version
		}
	}
	return latest, nil
}

// CurrentVersion returns the schema version recorded in the database.
func (mr *MigrationRunner) CurrentVersion(ctx context.Context) (int, error) {
	if _, err := mr.db.ExecContext(ctx, createSchemaMigrations); err != nil {
		return -1, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var version int
	err := mr.db.GetContext(ctx, &version, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`)
	if err != nil {
		return -1, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// plan selects and orders the migrations needed to move from prior to target.
// A target of -1 means the latest version, 0 means the empty schema.
func (mr *MigrationRunner) plan(prior int, target int) ([]SchemaMigration, int, error) {
	latest, err := mr.LatestVersion()
	if err != nil {
		return nil, target, err
	}
	if target == -1 {
		target = latest
	}
	if target < 0 || target > latest {
		return nil, target, fmt.Errorf("%w: %d (latest %d)", ErrMigrateTargetOutOfRange, target, latest)
	}
	if prior == target {
		return nil, target, ErrMigrateCurrentVersionSameAsTarget
	}

	all, err := mr.available()
	if err != nil {
		return nil, target, err
	}

	var selected []SchemaMigration
	for _, m := range all {
		if !skipMigration(m, prior, target) {
			selected = append(selected, m)
		}
	}

	if prior < target {
		sort.Slice(selected, func(i, j int) bool { return selected[i].Version < selected[j].Version })
	} else {
		sort.Slice(selected, func(i, j int) bool { return selected[i].Version > selected[j].Version })
	}
	return selected, target, nil
}

func skipMigration(migration SchemaMigration, currentVersion int, targetVersion int) bool {
	if targetVersion > currentVersion {
		if !migration.Up {
			return true
		}
		return migration.Version > targetVersion || migration.Version <= currentVersion
	}

	if migration.Up {
		return true
	}
	return migration.Version <= targetVersion || migration.Version > currentVersion
}

// Migrate moves the schema to target. Each migration runs in its own transaction.
func (mr *MigrationRunner) Migrate(ctx context.Context, target int) error {
	prior, err := mr.CurrentVersion(ctx)
	if err != nil {
		return err
	}

	migrations, resolved, err := mr.plan(prior, target)
	if err != nil {
		return err
	}
	mr.logger.Info("Migrating schema", "count", len(migrations), "from_version", prior, "to_version", resolved)

	for _, m := range migrations {
		if err := mr.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %04d_%s failed: %w", m.Version, m.Name, err)
		}
		mr.logger.Info("Applied migration", "version", m.Version, "name", m.Name, "up", m.Up)
	}
	return nil
}

func (mr *MigrationRunner) apply(ctx context.Context, m SchemaMigration) error {
	tx, err := mr.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}

	if m.Up {
		_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
			m.Version, m.Name, time.Now().UTC())
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, m.Version)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// parseMigrationFile parses a migration filename and reads its content
// Expected format: NNNN_description.up.sql or NNNN_description.down.sql
func (mr *MigrationRunner) parseMigrationFile(filePath string) (SchemaMigration, error) {
	filename := path.Base(filePath)
	filenameParts := reMigrationFilename.FindStringSubmatch(filename)
	if filenameParts == nil {
		return SchemaMigration{}, fmt.Errorf("invalid migration filename: %s", filename)
	}

	sql, err := fs.ReadFile(mr.files, filePath)
	if err != nil {
		return SchemaMigration{}, fmt.Errorf("failed to read migration file: %w", err)
	}

	version, _ := strconv.Atoi(filenameParts[reMigrationFilename.SubexpIndex("Version")])
	return SchemaMigration{
		Version: version,
		Name:    filenameParts[reMigrationFilename.SubexpIndex("Name")],
		Up:      filenameParts[reMigrationFilename.SubexpIndex("Direction")] == "up",
		SQL:     string(sql),
	}, nil
}
