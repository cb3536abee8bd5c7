package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"meeting-attendance/internal/config"
)

type SQLProvider struct {
	db     *sqlx.DB
	driver string
	config *config.Storage

	logger *slog.Logger
}

func NewSQLProvider(cfg *config.Storage, driverName string, dataSource string) (*SQLProvider, error) {
	db, err := sqlx.Open(driverName, dataSource)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driverName, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}

	return &SQLProvider{
		db:     db,
		driver: driverName,
		config: cfg,
		logger: slog.With("component", "storage", "driver", driverName),
	}, nil
}

func (p *SQLProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *SQLProvider) GetSchemaVersion(ctx context.Context) (int, error) {
	return NewMigrationRunner(p.db, p.driver).CurrentVersion(ctx)
}

// LatestSchemaVersion returns the newest version the embedded migrations provide.
func (p *SQLProvider) LatestSchemaVersion() (int, error) {
	return NewMigrationRunner(p.db, p.driver).LatestVersion()
}

func (p *SQLProvider) Migrate(ctx context.Context, target int) error {
	return NewMigrationRunner(p.db, p.driver).Migrate(ctx, target)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (p *SQLProvider) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			p.logger.Error("Rollback failed", "error", rbErr)
		}
		return err
	}
	return tx.Commit()
}
