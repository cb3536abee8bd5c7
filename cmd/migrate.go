package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"meeting-attendance/internal/storage"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Inspect and change the database schema version",
	Annotations: map[string]string{skipStorage: "true"},
}

func openForMigration() (*storage.SQLiteProvider, error) {
	if cfg.Storage.SQLite == nil {
		return nil, storage.ErrUnsupportedStorage
	}
	return storage.NewSQLiteProvider(&cfg.Storage)
}

var migrateVersionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show the current and latest schema version",
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openForMigration()
		if err != nil {
			return err
		}
		defer p.Close()

		current, err := p.GetSchemaVersion(cmd.Context())
		if err != nil {
			return err
		}
		latest, err := p.LatestSchemaVersion()
		if err != nil {
			return err
		}
		fmt.Printf("Current schema version: %d\nLatest schema version:  %d\n", current, latest)
		return nil
	},
}

var migrateUpCmd = &cobra.Command{
	Use:         "up [version]",
	Short:       "Migrate to the given version, or the latest",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := -1
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("version must be a valid integer: %w", err)
			}
			target = v
		}
		return migrateTo(cmd, target)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:         "down <version>",
	Short:       "Roll the schema back to the given version (0 drops everything)",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipStorage: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return fmt.Errorf("version must be a non-negative integer")
		}
		return migrateTo(cmd, v)
	},
}

func migrateTo(cmd *cobra.Command, target int) error {
	p, err := openForMigration()
	if err != nil {
		return err
	}
	defer p.Close()

	err = p.Migrate(cmd.Context(), target)
	if errors.Is(err, storage.ErrMigrateCurrentVersionSameAsTarget) {
		fmt.Println("Schema is already at the requested version")
		return nil
	} else if err != nil {
		return err
	}

	version, err := p.GetSchemaVersion(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Schema migrated to version %d\n", version)
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateVersionCmd, migrateUpCmd, migrateDownCmd)
}
