package storage

import (
	"context"
	"strings"
	"time"
)

const attendanceColumns = `id, meeting_id, email, name, channel, join_token, join_expiry, join_time,
	confirmation_token, confirmation_expiry, confirmation_time, confirmed, created_at`

func (p *SQLProvider) CreateAttendance(ctx context.Context, record *AttendanceRecord) error {
	res, err := p.db.NamedExecContext(ctx, `INSERT INTO attendance
		(meeting_id, email, name, channel, join_token, join_expiry, confirmed, created_at)
		VALUES (:meeting_id, :email, :name, :channel, :join_token, :join_expiry, 0, :created_at)`, record)
	if err != nil {
		return translateError(err)
	}
	record.ID, err = res.LastInsertId()
	return err
}

func (p *SQLProvider) getAttendance(ctx context.Context, where string, arg any) (*AttendanceRecord, error) {
	var r AttendanceRecord
	if err := p.db.GetContext(ctx, &r, `SELECT `+attendanceColumns+` FROM attendance WHERE `+where, arg); err != nil {
		return nil, translateError(err)
	}
	return &r, nil
}

func (p *SQLProvider) GetAttendanceByJoinToken(ctx context.Context, token string) (*AttendanceRecord, error) {
	return p.getAttendance(ctx, "join_token = ?", token)
}

func (p *SQLProvider) GetAttendanceByConfirmationToken(ctx context.Context, token string) (*AttendanceRecord, error) {
	return p.getAttendance(ctx, "confirmation_token = ?", token)
}

// MarkJoined sets the join time only while it is unset and the parent meeting
// is still active. ErrNotModified means one of those no longer holds.
func (p *SQLProvider) MarkJoined(ctx context.Context, id int64, at time.Time) error {
	return affected(p.db.ExecContext(ctx, `UPDATE attendance SET join_time = ?
		WHERE id = ? AND join_time IS NULL
		AND EXISTS (SELECT 1 FROM meetings m WHERE m.id = attendance.meeting_id AND m.active = 1)`, at, id))
}

// MarkConfirmed confirms a record that is not yet confirmed. Concurrent callers
// race on the row and exactly one of them gets a nil error.
func (p *SQLProvider) MarkConfirmed(ctx context.Context, id int64, at time.Time) error {
	return affected(p.db.ExecContext(ctx,
		`UPDATE attendance SET confirmed = 1, confirmation_time = ? WHERE id = ? AND confirmed = 0`, at, id))
}

func (p *SQLProvider) ListAttendance(ctx context.Context, meetingID int64, channel Channel) ([]AttendanceRecord, error) {
	records := []AttendanceRecord{}
	err := p.db.SelectContext(ctx, &records, `SELECT `+attendanceColumns+` FROM attendance
		WHERE meeting_id = ? AND channel = ? ORDER BY join_time IS NULL, join_time, id`, meetingID, channel)
	if err != nil {
		return nil, translateError(err)
	}
	return records, nil
}

// ListAttendanceByEmail returns a participant's invites on one channel across
// meetings, newest meeting first.
func (p *SQLProvider) ListAttendanceByEmail(ctx context.Context, email string, channel Channel) ([]VirtualHistoryEntry, error) {
	entries := []VirtualHistoryEntry{}
	err := p.db.SelectContext(ctx, &entries, `SELECT m.id AS meeting_id, m.title, m.created_at AS meeting_date,
			a.join_time, a.confirmed, a.confirmation_time
		FROM attendance a JOIN meetings m ON m.id = a.meeting_id
		WHERE a.email = ? AND a.channel = ? ORDER BY m.created_at DESC, m.id DESC`,
		strings.ToLower(strings.TrimSpace(email)), channel)
	if err != nil {
		return nil, translateError(err)
	}
	return entries, nil
}
