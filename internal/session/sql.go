package session

import (
	"context"
	"log/slog"
	"time"

	"meeting-attendance/internal/storage"
)

// SQLStore keeps session ids in the sessions table.
type SQLStore struct {
	logger  *slog.Logger
	storage storage.Provider
}

func NewSQLStore(provider storage.Provider) *SQLStore {
	return &SQLStore{
		logger:  slog.With("component", "session", "store", "sql"),
		storage: provider,
	}
}

func (s *SQLStore) Put(ctx context.Context, id string, ttl time.Duration) error {
	return s.storage.CreateSession(ctx, id, time.Now().UTC().Add(ttl))
}

func (s *SQLStore) Consume(ctx context.Context, id string) (bool, error) {
	exists, err := s.storage.ConsumeSession(ctx, id)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, &SessionMissingError{ID: id}
	}
	return true, nil
}

func (s *SQLStore) Exists(ctx context.Context, id string) bool {
	exists, err := s.storage.ExistsSession(ctx, id, time.Now().UTC())
	if err != nil {
		s.logger.Error("Failed to check session existence", "error", err)
		return false
	}
	return exists
}

func (s *SQLStore) Expire(ctx context.Context) error {
	return s.storage.ExpireSessions(ctx, time.Now().UTC())
}
