package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

const meetingSummaryColumns = `m.id, m.title, m.join_url, m.active, m.created_at, m.closed_at,
	(SELECT COUNT(*) FROM attendance a WHERE a.meeting_id = m.id AND a.channel = 'virtual') AS invited,
	(SELECT COUNT(*) FROM attendance a WHERE a.meeting_id = m.id AND a.channel = 'virtual' AND a.join_time IS NOT NULL) AS joined,
	(SELECT COUNT(*) FROM attendance a WHERE a.meeting_id = m.id AND a.channel = 'virtual' AND a.confirmed = 1) AS confirmed,
	(SELECT COUNT(*) FROM scan_log s WHERE s.meeting_id = m.id) AS scanned`

func (p *SQLProvider) CreateMeeting(ctx context.Context, meeting *Meeting) error {
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO meetings (title, join_url, active, created_at) VALUES (?, ?, ?, ?)`,
		meeting.Title, meeting.JoinURL, meeting.Active, meeting.CreatedAt)
	if err != nil {
		return translateError(err)
	}
	meeting.ID, err = res.LastInsertId()
	return err
}

func (p *SQLProvider) GetMeeting(ctx context.Context, id int64) (*Meeting, error) {
	var m Meeting
	err := p.db.GetContext(ctx, &m,
		`SELECT id, title, join_url, active, created_at, closed_at FROM meetings WHERE id = ?`, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &m, nil
}

func (p *SQLProvider) GetMeetingSummary(ctx context.Context, id int64) (*MeetingSummary, error) {
	var m MeetingSummary
	err := p.db.GetContext(ctx, &m, `SELECT `+meetingSummaryColumns+` FROM meetings m WHERE m.id = ?`, id)
	if err != nil {
		return nil, translateError(err)
	}
	return &m, nil
}

func (p *SQLProvider) ListMeetings(ctx context.Context, filter MeetingFilter) ([]MeetingSummary, int, error) {
	page, pageSize := ClampPage(filter.Page, filter.PageSize)

	var where []string
	var args []any
	switch filter.Status {
	case MeetingStatusActive:
		where = append(where, "m.active = 1")
	case MeetingStatusClosed:
		where = append(where, "m.active = 0")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		where = append(where, "LOWER(m.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(s)+"%")
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := p.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM meetings m`+clause, args...); err != nil {
		return nil, 0, translateError(err)
	}

	meetings := []MeetingSummary{}
	query := `SELECT ` + meetingSummaryColumns + ` FROM meetings m` + clause +
		` ORDER BY m.created_at DESC, m.id DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)
	if err := p.db.SelectContext(ctx, &meetings, query, args...); err != nil {
		return nil, 0, translateError(err)
	}
	return meetings, total, nil
}

func (p *SQLProvider) GetDashboard(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	err := p.db.GetContext(ctx, &d, `SELECT
		(SELECT COUNT(*) FROM meetings) AS total_meetings,
		(SELECT COUNT(*) FROM meetings WHERE active = 1) AS active_meetings,
		(SELECT COUNT(*) FROM meetings WHERE active = 0) AS closed_meetings,
		(SELECT COUNT(*) FROM attendance WHERE channel = 'virtual') AS total_invited,
		(SELECT COUNT(*) FROM attendance WHERE channel = 'virtual' AND confirmed = 1) AS total_confirmed,
		(SELECT COUNT(*) FROM scan_log) AS total_scans`)
	if err != nil {
		return nil, translateError(err)
	}
	return &d, nil
}

func (p *SQLProvider) CloseMeeting(ctx context.Context, meetingID int64, closedAt, expiry time.Time, mint TokenFunc) ([]AttendanceRecord, error) {
	var updated []AttendanceRecord

	err := p.withTx(ctx, func(tx *sqlx.Tx) error {
		err := affected(tx.ExecContext(ctx,
			`UPDATE meetings SET active = 0, closed_at = ? WHERE id = ? AND active = 1`, closedAt, meetingID))
		if errors.Is(err, ErrNotModified) {
			var exists bool
			if err := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM meetings WHERE id = ?)`, meetingID); err != nil {
				return translateError(err)
			}
			if !exists {
				return ErrNotFound
			}
			return ErrNotModified
		}
		if err != nil {
			return err
		}

		var eligible []AttendanceRecord
		err = tx.SelectContext(ctx, &eligible, `SELECT `+attendanceColumns+` FROM attendance
			WHERE meeting_id = ? AND channel = 'virtual' AND join_time IS NOT NULL AND confirmation_token IS NULL
			ORDER BY id`, meetingID)
		if err != nil {
			return translateError(err)
		}

		for _, record := range eligible {
			token, err := mint()
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx,
				`UPDATE attendance SET confirmation_token = ?, confirmation_expiry = ? WHERE id = ?`,
				token, expiry, record.ID)
			if err != nil {
				return translateError(err)
			}
			record.ConfirmationToken = &token
			record.ConfirmationExpiry = &expiry
			updated = append(updated, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("Closed meeting", "meeting_id", meetingID, "confirmations", len(updated))
	return updated, nil
}
