package storage

import (
	"context"
	"errors"
	"time"
)

func (p *SQLProvider) CreateSession(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO sessions (jti, expires_at) VALUES (?, ?)`, jti, expiresAt)
	return translateError(err)
}

func (p *SQLProvider) ExistsSession(ctx context.Context, jti string, now time.Time) (bool, error) {
	var expiresAt time.Time
	err := p.db.GetContext(ctx, &expiresAt, `SELECT expires_at FROM sessions WHERE jti = ?`, jti)
	if err != nil {
		if err = translateError(err); errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return now.Before(expiresAt), nil
}

// ConsumeSession deletes the session and reports whether it existed.
func (p *SQLProvider) ConsumeSession(ctx context.Context, jti string) (bool, error) {
	err := affected(p.db.ExecContext(ctx, `DELETE FROM sessions WHERE jti = ?`, jti))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotModified):
		return false, nil
	default:
		return false, err
	}
}

func (p *SQLProvider) ExpireSessions(ctx context.Context, now time.Time) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return translateError(err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		p.logger.Debug("Expired sessions", "count", n)
	}
	return nil
}
