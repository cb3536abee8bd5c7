package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/storage"
	"meeting-attendance/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Commands annotated with skipStorage open the database themselves.
const skipStorage = "skip-storage"

var (
	cfgFile  string
	cfg      *config.Config
	provider storage.Provider
)

var rootCmd = &cobra.Command{
	Use:     "meeting-attendance",
	Short:   "Meeting attendance tracking",
	Long:    `Tracks virtual and physical attendance of staff meetings: invites, joins, post-meeting confirmation and badge scans.`,
	Version: utils.GetVersion(),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		initLogger(cfg, cmd != serverCmd)

		if cmd.Annotations[skipStorage] != "" {
			return nil
		}
		provider, err = storage.NewProvider(cmd.Context(), &cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize storage provider: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if provider != nil {
			provider.Close()
		}
	},
	SilenceUsage: true,
}

// initLogger installs the default slog logger. CLI commands log only errors
// to stderr so their table output stays readable.
func initLogger(cfg *config.Config, quiet bool) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		fmt.Fprintln(os.Stderr, "Invalid log level in config, defaulting to INFO")
	}

	var logger *slog.Logger
	if quiet {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: max(level, slog.LevelError)}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./instance/config.yaml)")
}
