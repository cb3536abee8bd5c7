package attendance

import (
	"context"
	"errors"
	"strings"

	"meeting-attendance/internal/metrics"
	"meeting-attendance/internal/storage"
)

// ValidateAndJoin records the join for a join token and returns the meeting's
// join URL. Presenting an already joined token again succeeds without
// changing the join time.
func (e *Engine) ValidateAndJoin(ctx context.Context, joinToken string) (string, error) {
	joinToken = strings.TrimSpace(joinToken)
	if joinToken == "" {
		return "", e.countJoin(ErrInvalidToken)
	}

	record, err := e.store.GetAttendanceByJoinToken(ctx, joinToken)
	if errors.Is(err, storage.ErrNotFound) {
		return "", e.countJoin(ErrInvalidToken)
	}
	if err != nil {
		return "", e.countJoin(err)
	}

	m, err := e.meeting(ctx, record.MeetingID)
	if err != nil {
		return "", e.countJoin(err)
	}
	if !m.Active || m.Closed() {
		return "", e.countJoin(ErrMeetingClosed)
	}

	now := e.now()
	if expired(now, record.JoinExpiry) {
		return "", e.countJoin(ErrTokenExpired)
	}

	if record.Joined() {
		e.logger.Debug("Join token presented again", "record_id", record.ID)
		metrics.JoinsTotal.WithLabelValues("rejoined").Inc()
		return m.JoinURL, nil
	}

	err = e.store.MarkJoined(ctx, record.ID, now)
	if errors.Is(err, storage.ErrNotModified) {
		// Either a concurrent join won the row or the meeting closed meanwhile.
		current, lookupErr := e.store.GetAttendanceByJoinToken(ctx, joinToken)
		if lookupErr != nil {
			return "", e.countJoin(lookupErr)
		}
		if !current.Joined() {
			return "", e.countJoin(ErrMeetingClosed)
		}
		metrics.JoinsTotal.WithLabelValues("rejoined").Inc()
		return m.JoinURL, nil
	}
	if err != nil {
		return "", e.countJoin(err)
	}

	e.logger.Info("Participant joined", "meeting_id", m.ID, "record_id", record.ID)
	metrics.JoinsTotal.WithLabelValues("joined").Inc()
	return m.JoinURL, nil
}

func (e *Engine) countJoin(err error) error {
	outcome := "error"
	switch {
	case errors.Is(err, ErrInvalidToken):
		outcome = "invalid"
	case errors.Is(err, ErrMeetingClosed):
		outcome = "closed"
	case errors.Is(err, ErrTokenExpired):
		outcome = "expired"
	default:
		e.logger.Error("Join failed", "error", err)
	}
	metrics.JoinsTotal.WithLabelValues(outcome).Inc()
	return err
}
