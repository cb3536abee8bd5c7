package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	app "meeting-attendance/internal"
	"meeting-attendance/internal/access"
	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/config"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/roster"
	"meeting-attendance/internal/routes"
	"meeting-attendance/internal/session"
	"meeting-attendance/internal/storage"

	"github.com/spf13/cobra"
)

const (
	sessionJanitorInterval = 10 * time.Minute
	shutdownTimeout        = 15 * time.Second
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the attendance server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return ServerMain(ctx, cfg, provider)
	},
}

// LoadRBAC loads the configured role policy, or the built-in one.
func LoadRBAC(cfg *config.Config) (*access.RBAC, error) {
	rbac := access.NewRBAC()
	if err := rbac.LoadPolicy(cfg.RBAC.PolicyFile); err != nil {
		return nil, fmt.Errorf("failed to load RBAC policy %q: %w", cfg.RBAC.PolicyFile, err)
	}
	return rbac, nil
}

// ServerMain wires the application together and serves until ctx ends.
func ServerMain(ctx context.Context, cfg *config.Config, storageProvider storage.Provider) error {
	if storageProvider == nil {
		return errors.New("storage provider is nil")
	}

	rbac, err := LoadRBAC(cfg)
	if err != nil {
		return err
	}

	sender, err := notify.NewSender(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}
	dispatcher := notify.NewDispatcher(sender, cfg.Notify)

	staff := roster.New(storageProvider)
	engine := attendance.New(storageProvider, staff, dispatcher, attendance.OptionsFromConfig(cfg))
	scanner := attendance.NewScanner(storageProvider, staff, dispatcher)

	store, err := session.NewStore(cfg.Session.Store, storageProvider)
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}
	go session.Janitor(ctx, store, sessionJanitorInterval)
	sessions := session.NewManager(cfg.Secret, cfg.SessionTTL(), store)

	api := routes.NewAPI(cfg, storageProvider, engine, scanner, staff, sessions, rbac)
	router, err := app.HTTPServer(cfg, api)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting attendance server", "listen", cfg.Listen, "base_url", cfg.BaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down attendance server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
