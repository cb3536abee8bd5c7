package storage

import (
	"context"
	"strings"
)

func (p *SQLProvider) GetScan(ctx context.Context, staffID, meetingID int64) (*ScanLogEntry, error) {
	var e ScanLogEntry
	err := p.db.GetContext(ctx, &e,
		`SELECT id, staff_id, meeting_id, scanned_at FROM scan_log WHERE staff_id = ? AND meeting_id = ?`,
		staffID, meetingID)
	if err != nil {
		return nil, translateError(err)
	}
	return &e, nil
}

// CreateScan appends to the ledger. A second entry for the same staff member
// and meeting fails with ErrConflict.
func (p *SQLProvider) CreateScan(ctx context.Context, entry *ScanLogEntry) error {
	res, err := p.db.ExecContext(ctx,
		`INSERT INTO scan_log (staff_id, meeting_id, scanned_at) VALUES (?, ?, ?)`,
		entry.StaffID, entry.MeetingID, entry.ScannedAt)
	if err != nil {
		return translateError(err)
	}
	entry.ID, err = res.LastInsertId()
	return err
}

func (p *SQLProvider) CountScansByStaff(ctx context.Context, staffID int64) (int, error) {
	var n int
	if err := p.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM scan_log WHERE staff_id = ?`, staffID); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (p *SQLProvider) ListPhysicalAttendees(ctx context.Context, meetingID int64) ([]PhysicalAttendee, error) {
	attendees := []PhysicalAttendee{}
	err := p.db.SelectContext(ctx, &attendees, `SELECT s.staff_id, st.full_name, st.department, st.email, s.scanned_at
		FROM scan_log s JOIN staff st ON st.id = s.staff_id
		WHERE s.meeting_id = ? ORDER BY s.scanned_at, s.id`, meetingID)
	if err != nil {
		return nil, translateError(err)
	}
	return attendees, nil
}

func (p *SQLProvider) CountScans(ctx context.Context, meetingID int64) (int, error) {
	var n int
	if err := p.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM scan_log WHERE meeting_id = ?`, meetingID); err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

// ListScansByEmail returns one staff member's physical attendance across
// meetings, newest first.
func (p *SQLProvider) ListScansByEmail(ctx context.Context, email string) ([]PhysicalHistoryEntry, error) {
	entries := []PhysicalHistoryEntry{}
	err := p.db.SelectContext(ctx, &entries, `SELECT m.id AS meeting_id, m.title, m.created_at AS meeting_date, s.scanned_at
		FROM scan_log s
		JOIN staff st ON st.id = s.staff_id
		JOIN meetings m ON m.id = s.meeting_id
		WHERE st.email = ? ORDER BY s.scanned_at DESC, s.id DESC`, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, translateError(err)
	}
	return entries, nil
}
