package attendance

import (
	"context"
	"errors"
	"strings"

	"meeting-attendance/internal/metrics"
	"meeting-attendance/internal/storage"
)

// Outcome is the terminal result of a confirmation attempt.
type Outcome string

const (
	OutcomeInvalid Outcome = "invalid"
	OutcomeAlready Outcome = "already"
	OutcomeExpired Outcome = "expired"
	OutcomeSuccess Outcome = "success"
)

// ConfirmAttendance confirms the record owning the confirmation token.
// Expected rejections are reported as an Outcome; the error is reserved for
// storage failures. Of any number of concurrent attempts on one token, exactly
// one observes OutcomeSuccess.
func (e *Engine) ConfirmAttendance(ctx context.Context, confirmationToken string) (Outcome, error) {
	outcome, err := e.confirm(ctx, strings.TrimSpace(confirmationToken))
	if err != nil {
		e.logger.Error("Confirmation failed", "error", err)
		metrics.ConfirmationsTotal.WithLabelValues("error").Inc()
		return outcome, err
	}
	metrics.ConfirmationsTotal.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

func (e *Engine) confirm(ctx context.Context, confirmationToken string) (Outcome, error) {
	if confirmationToken == "" {
		return OutcomeInvalid, nil
	}

	record, err := e.store.GetAttendanceByConfirmationToken(ctx, confirmationToken)
	if errors.Is(err, storage.ErrNotFound) {
		return OutcomeInvalid, nil
	}
	if err != nil {
		return OutcomeInvalid, err
	}

	m, err := e.meeting(ctx, record.MeetingID)
	if errors.Is(err, ErrMeetingNotFound) {
		return OutcomeInvalid, nil
	}
	if err != nil {
		return OutcomeInvalid, err
	}
	if !m.Closed() {
		return OutcomeInvalid, nil
	}

	if record.Confirmed {
		return OutcomeAlready, nil
	}

	now := e.now()
	if record.ConfirmationExpiry == nil || expired(now, record.ConfirmationExpiry) {
		return OutcomeExpired, nil
	}

	err = e.store.MarkConfirmed(ctx, record.ID, now)
	if errors.Is(err, storage.ErrNotModified) {
		return OutcomeAlready, nil
	}
	if err != nil {
		return OutcomeInvalid, err
	}

	e.logger.Info("Attendance confirmed", "meeting_id", m.ID, "record_id", record.ID)
	return OutcomeSuccess, nil
}
