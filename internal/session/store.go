// Package session issues HR/scanner session tokens and tracks which of them
// are still valid. Every issued token carries a jti recorded in a Store;
// logging out consumes the jti so the token stops working before it expires.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"meeting-attendance/internal/storage"
)

type StoreType string

// Supported session stores.
const (
	Memory StoreType = "memory"
	SQL    StoreType = "sql"
)

type SessionMissingError struct {
	ID string
}

// Error implements the error interface.
func (e *SessionMissingError) Error() string {
	return fmt.Sprintf("session not found: %s", e.ID)
}

type SessionExpiredError struct {
	ID     string
	Expiry time.Time
}

// Error implements the error interface.
func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired: %s (expiry: %s)", e.ID, e.Expiry)
}

type Store interface {
	// Put records a session id with a TTL.
	Put(ctx context.Context, id string, ttl time.Duration) error
	// Consume verifies and deletes the session id.
	// Returns true if the session existed, false otherwise.
	Consume(ctx context.Context, id string) (bool, error)

	Exists(ctx context.Context, id string) bool

	// Expire purges sessions past their expiry.
	Expire(ctx context.Context) error
}

// NewStore builds the Store implementation named by typ.
func NewStore(typ string, provider storage.Provider) (Store, error) {
	switch StoreType(typ) {
	case Memory, "":
		return NewMemoryStore(), nil
	case SQL:
		if provider == nil {
			return nil, fmt.Errorf("sql session store requires a storage provider")
		}
		return NewSQLStore(provider), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", typ)
	}
}

// Janitor purges expired sessions every interval until ctx is done.
func Janitor(ctx context.Context, store Store, interval time.Duration) {
	logger := slog.With("component", "session")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := store.Expire(ctx); err != nil {
				logger.Error("Failed to expire sessions", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
