package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meeting-attendance/internal/config"
)

// TokenFunc mints a fresh opaque token.
type TokenFunc func() (string, error)

type Provider interface {
	Close() error
	GetSchemaVersion(ctx context.Context) (int, error)
	Migrate(ctx context.Context, target int) error

	// Meetings
	CreateMeeting(ctx context.Context, meeting *Meeting) error
	GetMeeting(ctx context.Context, id int64) (*Meeting, error)
	GetMeetingSummary(ctx context.Context, id int64) (*MeetingSummary, error)
	ListMeetings(ctx context.Context, filter MeetingFilter) ([]MeetingSummary, int, error)
	GetDashboard(ctx context.Context) (*Dashboard, error)

	// CloseMeeting flips the meeting inactive and mints confirmation tokens for
	// every joined virtual record in one transaction. It returns the records
	// that received a token. ErrNotModified means the meeting was already closed.
	CloseMeeting(ctx context.Context, meetingID int64, closedAt, expiry time.Time, mint TokenFunc) ([]AttendanceRecord, error)

	// Attendance
	CreateAttendance(ctx context.Context, record *AttendanceRecord) error
	GetAttendanceByJoinToken(ctx context.Context, token string) (*AttendanceRecord, error)
	GetAttendanceByConfirmationToken(ctx context.Context, token string) (*AttendanceRecord, error)
	MarkJoined(ctx context.Context, id int64, at time.Time) error
	MarkConfirmed(ctx context.Context, id int64, at time.Time) error
	ListAttendance(ctx context.Context, meetingID int64, channel Channel) ([]AttendanceRecord, error)
	ListAttendanceByEmail(ctx context.Context, email string, channel Channel) ([]VirtualHistoryEntry, error)

	// Staff
	CreateStaff(ctx context.Context, staff *Staff) error
	GetStaff(ctx context.Context, id int64) (*Staff, error)
	GetStaffByEmail(ctx context.Context, email string) (*Staff, error)
	GetStaffByBarcode(ctx context.Context, token string) (*Staff, error)
	ListStaff(ctx context.Context, filter StaffFilter) ([]Staff, int, error)
	ListStaffEmails(ctx context.Context) ([]string, error)
	DeleteStaff(ctx context.Context, id int64) error

	// Physical scan ledger
	GetScan(ctx context.Context, staffID, meetingID int64) (*ScanLogEntry, error)
	CreateScan(ctx context.Context, entry *ScanLogEntry) error
	CountScansByStaff(ctx context.Context, staffID int64) (int, error)
	ListPhysicalAttendees(ctx context.Context, meetingID int64) ([]PhysicalAttendee, error)
	CountScans(ctx context.Context, meetingID int64) (int, error)
	ListScansByEmail(ctx context.Context, email string) ([]PhysicalHistoryEntry, error)

	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUser(ctx context.Context, id int64, name, email string) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error

	// Sessions
	CreateSession(ctx context.Context, jti string, expiresAt time.Time) error
	ExistsSession(ctx context.Context, jti string, now time.Time) (bool, error)
	ConsumeSession(ctx context.Context, jti string) (bool, error)
	ExpireSessions(ctx context.Context, now time.Time) error
}

var ErrUnsupportedStorage = errors.New("unsupported storage configuration")

// NewProvider opens the configured backend and brings its schema up to date.
func NewProvider(ctx context.Context, cfg *config.Storage) (Provider, error) {
	switch {
	case cfg != nil && cfg.SQLite != nil:
		provider, err := NewSQLiteProvider(cfg)
		if err != nil {
			return nil, err
		}
		if err := provider.Migrate(ctx, -1); err != nil && !errors.Is(err, ErrMigrateCurrentVersionSameAsTarget) {
			provider.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return provider, nil
	default:
		return nil, ErrUnsupportedStorage
	}
}

// ClampPage normalizes paging input: page >= 1, page size 1..100 (default 10).
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = 10
	case pageSize > 100:
		pageSize = 100
	}
	return page, pageSize
}
