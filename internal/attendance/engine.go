// Package attendance implements the attendance lifecycle: invites, joins,
// meeting closure with confirmation fan-out, confirmations and physical scans.
//
// Every state transition is a conditional write in storage, so concurrent
// requests against the same record resolve to exactly one winner.
package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/storage"
	"meeting-attendance/internal/token"
)

// Directory resolves participants against the staff roster.
type Directory interface {
	ResolveEmail(ctx context.Context, email string) (*storage.Staff, error)
	ResolveBadge(ctx context.Context, token string) (*storage.Staff, error)
}

// Notifier fans out a batch of notifications and reports per-recipient results.
type Notifier interface {
	Dispatch(ctx context.Context, batch []notify.Notification) *notify.Report
}

// Options tunes link generation and token lifetimes.
type Options struct {
	// BaseURL is the absolute URL join and confirmation links are built on.
	BaseURL            string
	ConfirmationWindow time.Duration
	// InviteTTL bounds join tokens. Zero means join tokens never expire.
	InviteTTL time.Duration
}

// OptionsFromConfig reads the engine options from the application config.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		BaseURL:            cfg.BaseURL,
		ConfirmationWindow: cfg.Attendance.ConfirmationWindow,
		InviteTTL:          cfg.Attendance.InviteTTL,
	}
}

// Engine orchestrates the virtual attendance lifecycle.
type Engine struct {
	store     storage.Provider
	directory Directory
	notifier  Notifier
	opts      Options

	mint     storage.TokenFunc
	now      func() time.Time
	validate *validator.Validate
	logger   *slog.Logger
}

// New returns an engine. A zero ConfirmationWindow falls back to 15 minutes.
func New(store storage.Provider, directory Directory, notifier Notifier, opts Options) *Engine {
	if opts.ConfirmationWindow <= 0 {
		opts.ConfirmationWindow = 15 * time.Minute
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")

	return &Engine{
		store:     store,
		directory: directory,
		notifier:  notifier,
		opts:      opts,
		mint:      token.New,
		now:       func() time.Time { return time.Now().UTC() },
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    slog.With("component", "attendance"),
	}
}

// normalizeEmail lower-cases and validates an address.
func normalizeEmail(v *validator.Validate, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := v.Var(email, "required,email,max=150"); err != nil {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// meeting loads a meeting, mapping a missing row to ErrMeetingNotFound.
func (e *Engine) meeting(ctx context.Context, id int64) (*storage.Meeting, error) {
	m, err := e.store.GetMeeting(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMeetingNotFound
	}
	return m, err
}

// Meeting returns a meeting with its attendance counts.
func (e *Engine) Meeting(ctx context.Context, id int64) (*storage.MeetingSummary, error) {
	m, err := e.store.GetMeetingSummary(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMeetingNotFound
	}
	return m, err
}

// expired reports whether deadline has passed. The deadline instant itself
// counts as expired.
func expired(now time.Time, deadline *time.Time) bool {
	return deadline != nil && !now.Before(*deadline)
}

func tokenPrefix(t string) string {
	if len(t) > 6 {
		return t[:6]
	}
	return t
}
