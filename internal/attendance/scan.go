package attendance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"meeting-attendance/internal/metrics"
	"meeting-attendance/internal/storage"
)

// Scanner records physical attendance from badge scans.
type Scanner struct {
	store     storage.Provider
	directory Directory
	notifier  Notifier

	now    func() time.Time
	logger *slog.Logger
}

// NewScanner returns a Scanner recording into store.
func NewScanner(store storage.Provider, directory Directory, notifier Notifier) *Scanner {
	return &Scanner{
		store:     store,
		directory: directory,
		notifier:  notifier,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    slog.With("component", "scanner"),
	}
}

// ScanResult describes a recorded scan.
type ScanResult struct {
	StaffID    int64     `json:"staffId"`
	FullName   string    `json:"fullName"`
	Department string    `json:"department"`
	MeetingID  int64     `json:"meetingId"`
	ScannedAt  time.Time `json:"scannedAt"`
}

// Scan records that the badge holder attended the meeting. A second scan of
// the same badge for the same meeting fails with ErrAlreadyScanned, also when
// both scans race; the ledger's unique constraint decides.
func (s *Scanner) Scan(ctx context.Context, presentedToken string, meetingID int64) (*ScanResult, error) {
	presentedToken = strings.TrimSpace(presentedToken)
	if presentedToken == "" {
		return nil, s.count(ErrUnknownBadge)
	}

	staff, err := s.directory.ResolveBadge(ctx, presentedToken)
	if err != nil {
		return nil, s.count(err)
	}

	if _, err := s.meeting(ctx, meetingID); err != nil {
		return nil, s.count(err)
	}

	// Fast path only; the insert below is authoritative.
	if _, err := s.store.GetScan(ctx, staff.ID, meetingID); err == nil {
		return nil, s.count(ErrAlreadyScanned)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, s.count(err)
	}

	entry := &storage.ScanLogEntry{StaffID: staff.ID, MeetingID: meetingID, ScannedAt: s.now()}
	if err := s.store.CreateScan(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			err = ErrAlreadyScanned
		}
		return nil, s.count(err)
	}

	s.logger.Info("Recorded physical attendance", "meeting_id", meetingID, "staff_id", staff.ID)
	metrics.ScansTotal.WithLabelValues("recorded").Inc()
	return &ScanResult{
		StaffID:    staff.ID,
		FullName:   staff.FullName,
		Department: staff.Department,
		MeetingID:  meetingID,
		ScannedAt:  entry.ScannedAt,
	}, nil
}

func (s *Scanner) count(err error) error {
	outcome := "error"
	switch {
	case errors.Is(err, ErrAlreadyScanned):
		outcome = "already_scanned"
	case errors.Is(err, ErrUnknownBadge):
		outcome = "unknown_badge"
	case errors.Is(err, ErrMeetingNotFound):
		outcome = "meeting_not_found"
	default:
		s.logger.Error("Scan failed", "error", err)
	}
	s.logger.Debug("Scan rejected", "outcome", outcome)
	metrics.ScansTotal.WithLabelValues(outcome).Inc()
	return err
}

// Attendees lists the physical attendees of a meeting ordered by scan time.
func (s *Scanner) Attendees(ctx context.Context, meetingID int64) ([]storage.PhysicalAttendee, error) {
	if _, err := s.meeting(ctx, meetingID); err != nil {
		return nil, err
	}
	return s.store.ListPhysicalAttendees(ctx, meetingID)
}

// PhysicalSummary is the physical turnout for a meeting.
type PhysicalSummary struct {
	MeetingID    int64  `json:"meetingId"`
	Title        string `json:"title"`
	TotalScanned int    `json:"totalScanned"`
}

// Summary counts the meeting's recorded scans.
func (s *Scanner) Summary(ctx context.Context, meetingID int64) (*PhysicalSummary, error) {
	m, err := s.meeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	n, err := s.store.CountScans(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	return &PhysicalSummary{MeetingID: m.ID, Title: m.Title, TotalScanned: n}, nil
}

func (s *Scanner) meeting(ctx context.Context, id int64) (*storage.Meeting, error) {
	m, err := s.store.GetMeeting(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrMeetingNotFound
	}
	return m, err
}
