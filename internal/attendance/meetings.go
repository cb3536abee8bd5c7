package attendance

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"meeting-attendance/internal/storage"
)

// MeetingInput is the data needed to create a meeting.
type MeetingInput struct {
	Title   string `json:"title" validate:"required,min=2,max=200"`
	JoinURL string `json:"joinUrl" validate:"required,http_url,max=2048"`
}

// validationError folds validator field errors into ErrInvalidInput.
func validationError(err error) error {
	var fields []string
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

// CreateMeeting validates in and stores a new active meeting.
func (e *Engine) CreateMeeting(ctx context.Context, in MeetingInput) (*storage.Meeting, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.JoinURL = strings.TrimSpace(in.JoinURL)
	if err := e.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	m := &storage.Meeting{
		Title:     in.Title,
		JoinURL:   in.JoinURL,
		Active:    true,
		CreatedAt: e.now(),
	}
	if err := e.store.CreateMeeting(ctx, m); err != nil {
		return nil, err
	}
	e.logger.Info("Created meeting", "meeting_id", m.ID, "title", m.Title)
	return m, nil
}

// ListMeetings returns one page of meeting summaries and the total count.
func (e *Engine) ListMeetings(ctx context.Context, filter storage.MeetingFilter) ([]storage.MeetingSummary, int, error) {
	switch filter.Status {
	case "", storage.MeetingStatusActive, storage.MeetingStatusClosed:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
	}
	return e.store.ListMeetings(ctx, filter)
}

// Dashboard returns the aggregate counts across all meetings.
func (e *Engine) Dashboard(ctx context.Context) (*storage.Dashboard, error) {
	return e.store.GetDashboard(ctx)
}

// Attendance lists the virtual attendance records of a meeting.
func (e *Engine) Attendance(ctx context.Context, meetingID int64) ([]storage.AttendanceRecord, error) {
	if _, err := e.meeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return e.store.ListAttendance(ctx, meetingID, storage.ChannelVirtual)
}
