package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meeting-attendance/internal/email"
	"meeting-attendance/internal/metrics"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/storage"
)

// CloseReport describes a completed close and its confirmation fan-out.
type CloseReport struct {
	MeetingID         int64          `json:"meetingId"`
	ClosedAt          time.Time      `json:"closedAt"`
	ConfirmationCount int            `json:"confirmationCount"`
	Notifications     *notify.Report `json:"notifications"`
}

// CloseMeeting deactivates the meeting and mints a confirmation token for every
// joined virtual participant in one transaction. Confirmation requests are sent
// only after the transaction commits, and their failures are reported per
// recipient without affecting the close.
func (e *Engine) CloseMeeting(ctx context.Context, meetingID int64) (*CloseReport, error) {
	m, err := e.meeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !m.Active {
		return nil, ErrAlreadyClosed
	}

	closedAt := e.now()
	expiry := closedAt.Add(e.opts.ConfirmationWindow)
	records, err := e.store.CloseMeeting(ctx, meetingID, closedAt, expiry, e.mint)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrMeetingNotFound
	case errors.Is(err, storage.ErrNotModified):
		return nil, ErrAlreadyClosed
	case err != nil:
		e.logger.Error("Failed to close meeting", "meeting_id", meetingID, "error", err)
		return nil, err
	}

	e.logger.Info("Closed meeting", "meeting_id", meetingID, "confirmations", len(records))
	metrics.MeetingsClosedTotal.Inc()

	batch := make([]notify.Notification, 0, len(records))
	var unrendered []notify.Result
	for i := range records {
		msg, err := e.confirmationMessage(m, &records[i])
		if err != nil {
			e.logger.Error("Failed to build confirmation request", "record_id", records[i].ID, "error", err)
			unrendered = append(unrendered, notify.Result{Recipient: records[i].Email, Kind: notify.KindConfirmation, Error: err.Error()})
			continue
		}
		batch = append(batch, notify.Notification{Kind: notify.KindConfirmation, Recipient: records[i].Email, Message: msg})
	}

	// The close is committed; a departing caller must not cut the fan-out short.
	report := e.notifier.Dispatch(context.WithoutCancel(ctx), batch)
	if len(unrendered) > 0 {
		report.Total += len(unrendered)
		report.Failed += len(unrendered)
		report.Results = append(report.Results, unrendered...)
	}

	return &CloseReport{
		MeetingID:         meetingID,
		ClosedAt:          closedAt,
		ConfirmationCount: len(records),
		Notifications:     report,
	}, nil
}

func (e *Engine) confirmationMessage(m *storage.Meeting, record *storage.AttendanceRecord) (*email.Message, error) {
	if record.ConfirmationToken == nil {
		return nil, fmt.Errorf("record %d has no confirmation token", record.ID)
	}
	body, err := email.Render("confirm.html.tmpl", map[string]any{
		"Name":   record.Name,
		"Title":  m.Title,
		"Link":   e.ConfirmLink(*record.ConfirmationToken),
		"Window": e.opts.ConfirmationWindow.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render confirmation request: %w", err)
	}
	return &email.Message{
		To:      []string{record.Email},
		Subject: "Please confirm your attendance: " + m.Title,
		HTML:    body,
	}, nil
}
