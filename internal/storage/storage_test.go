package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"meeting-attendance/internal/config"
)

func newTestProvider(t *testing.T) Provider {
	t.Helper()
	cfg := &config.Storage{SQLite: &config.SQLLiteStorage{Path: filepath.Join(t.TempDir(), "test.db")}}
	p, err := NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func seedMeeting(t *testing.T, p Provider) *Meeting {
	t.Helper()
	m := &Meeting{Title: "Town hall", JoinURL: "https://meet.example.com/1", Active: true, CreatedAt: time.Now().UTC()}
	if err := p.CreateMeeting(context.Background(), m); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	return m
}

func seedAttendance(t *testing.T, p Provider, meetingID int64, email string) *AttendanceRecord {
	t.Helper()
	r := &AttendanceRecord{
		MeetingID: meetingID,
		Email:     email,
		Channel:   ChannelVirtual,
		JoinToken: "join-" + email,
		CreatedAt: time.Now().UTC(),
	}
	if err := p.CreateAttendance(context.Background(), r); err != nil {
		t.Fatalf("CreateAttendance failed: %v", err)
	}
	return r
}

func TestMigrations(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()

	version, err := p.GetSchemaVersion(ctx)
	if err != nil {
		t.Fatalf("GetSchemaVersion failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1, got %d", version)
	}

	if err := p.Migrate(ctx, -1); !errors.Is(err, ErrMigrateCurrentVersionSameAsTarget) {
		t.Errorf("expected ErrMigrateCurrentVersionSameAsTarget, got %v", err)
	}
	if err := p.Migrate(ctx, 0); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	if version, _ := p.GetSchemaVersion(ctx); version != 0 {
		t.Errorf("expected schema version 0 after down, got %d", version)
	}
	if err := p.Migrate(ctx, 7); !errors.Is(err, ErrMigrateTargetOutOfRange) {
		t.Errorf("expected ErrMigrateTargetOutOfRange, got %v", err)
	}
}

func TestCreateAttendance_DuplicateIsConflict(t *testing.T) {
	p := newTestProvider(t)
	m := seedMeeting(t, p)
	seedAttendance(t, p, m.ID, "a@x.com")

	dup := &AttendanceRecord{MeetingID: m.ID, Email: "a@x.com", Channel: ChannelVirtual, JoinToken: "other", CreatedAt: time.Now()}
	if err := p.CreateAttendance(context.Background(), dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	physical := &AttendanceRecord{MeetingID: m.ID, Email: "a@x.com", Channel: ChannelPhysical, JoinToken: "phys", CreatedAt: time.Now()}
	if err := p.CreateAttendance(context.Background(), physical); err != nil {
		t.Fatalf("a second channel must be accepted: %v", err)
	}
}

func TestMarkJoined_Conditional(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	m := seedMeeting(t, p)
	r := seedAttendance(t, p, m.ID, "a@x.com")

	if err := p.MarkJoined(ctx, r.ID, time.Now().UTC()); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	if err := p.MarkJoined(ctx, r.ID, time.Now().UTC()); !errors.Is(err, ErrNotModified) {
		t.Fatalf("expected ErrNotModified on second join, got %v", err)
	}

	other := seedAttendance(t, p, m.ID, "b@x.com")
	if _, err := p.CloseMeeting(ctx, m.ID, time.Now().UTC(), time.Now().Add(time.Minute), staticMint()); err != nil {
		t.Fatalf("CloseMeeting failed: %v", err)
	}
	if err := p.MarkJoined(ctx, other.ID, time.Now().UTC()); !errors.Is(err, ErrNotModified) {
		t.Fatalf("join after close must not modify, got %v", err)
	}
}

func staticMint() TokenFunc {
	var mu sync.Mutex
	n := 0
	return func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("confirm-%d", n), nil
	}
}

func TestCloseMeeting(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	m := seedMeeting(t, p)
	joined := seedAttendance(t, p, m.ID, "a@x.com")
	seedAttendance(t, p, m.ID, "b@x.com")
	if err := p.MarkJoined(ctx, joined.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkJoined failed: %v", err)
	}

	closedAt := time.Now().UTC()
	expiry := closedAt.Add(15 * time.Minute)
	updated, err := p.CloseMeeting(ctx, m.ID, closedAt, expiry, staticMint())
	if err != nil {
		t.Fatalf("CloseMeeting failed: %v", err)
	}
	if len(updated) != 1 || updated[0].ID != joined.ID {
		t.Fatalf("expected only the joined record to be updated, got %+v", updated)
	}

	got, err := p.GetMeeting(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMeeting failed: %v", err)
	}
	if got.Active || got.ClosedAt == nil {
		t.Errorf("meeting not closed: %+v", got)
	}

	rec, err := p.GetAttendanceByConfirmationToken(ctx, *updated[0].ConfirmationToken)
	if err != nil {
		t.Fatalf("lookup by confirmation token failed: %v", err)
	}
	if rec.ConfirmationExpiry == nil || !rec.ConfirmationExpiry.Equal(expiry) {
		t.Errorf("unexpected confirmation expiry %v, want %v", rec.ConfirmationExpiry, expiry)
	}

	if _, err := p.CloseMeeting(ctx, m.ID, closedAt, expiry, staticMint()); !errors.Is(err, ErrNotModified) {
		t.Errorf("expected ErrNotModified on second close, got %v", err)
	}
	if _, err := p.CloseMeeting(ctx, 999, closedAt, expiry, staticMint()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown meeting, got %v", err)
	}
}

func TestCloseMeeting_MintFailureRollsBack(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	m := seedMeeting(t, p)
	r := seedAttendance(t, p, m.ID, "a@x.com")
	p.MarkJoined(ctx, r.ID, time.Now().UTC())

	boom := errors.New("entropy exhausted")
	_, err := p.CloseMeeting(ctx, m.ID, time.Now().UTC(), time.Now().Add(time.Minute), func() (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected mint error, got %v", err)
	}
	got, _ := p.GetMeeting(ctx, m.ID)
	if !got.Active || got.ClosedAt != nil {
		t.Errorf("meeting close was not rolled back: %+v", got)
	}
}

func TestMarkConfirmed_Concurrent(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	m := seedMeeting(t, p)
	r := seedAttendance(t, p, m.ID, "a@x.com")

	const workers = 8
	var wg sync.WaitGroup
	start := make(chan struct{})
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results <- p.MarkConfirmed(ctx, r.ID, time.Now().UTC())
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		switch {
		case err == nil:
			success++
		case errors.Is(err, ErrNotModified):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly one successful confirmation, got %d", success)
	}
}

func TestScanLedger(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	m := seedMeeting(t, p)
	s := &Staff{FullName: "Ada Lovelace", Email: "ada@x.com", Department: "R&D", BarcodeToken: "b1", CreatedAt: time.Now().UTC()}
	if err := p.CreateStaff(ctx, s); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}

	if err := p.CreateScan(ctx, &ScanLogEntry{StaffID: s.ID, MeetingID: m.ID, ScannedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	if err := p.CreateScan(ctx, &ScanLogEntry{StaffID: s.ID, MeetingID: m.ID, ScannedAt: time.Now().UTC()}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate scan, got %v", err)
	}

	attendees, err := p.ListPhysicalAttendees(ctx, m.ID)
	if err != nil {
		t.Fatalf("ListPhysicalAttendees failed: %v", err)
	}
	if len(attendees) != 1 || attendees[0].FullName != "Ada Lovelace" {
		t.Errorf("unexpected attendees: %+v", attendees)
	}

	if err := p.DeleteStaff(ctx, s.ID); !errors.Is(err, ErrReferenced) {
		t.Errorf("expected ErrReferenced deleting scanned staff, got %v", err)
	}
}

func TestListStaff_PagingAndSearch(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		dept := "Finance"
		if i%2 == 0 {
			dept = "Engineering"
		}
		s := &Staff{
			FullName:     fmt.Sprintf("Person %02d", i),
			Email:        fmt.Sprintf("p%02d@x.com", i),
			Department:   dept,
			BarcodeToken: fmt.Sprintf("tok%02d", i),
			CreatedAt:    time.Now().UTC(),
		}
		if err := p.CreateStaff(ctx, s); err != nil {
			t.Fatalf("CreateStaff failed: %v", err)
		}
	}

	page, total, err := p.ListStaff(ctx, StaffFilter{Page: 2, PageSize: 5})
	if err != nil {
		t.Fatalf("ListStaff failed: %v", err)
	}
	if total != 12 || len(page) != 5 || page[0].FullName != "Person 05" {
		t.Errorf("unexpected page: total=%d len=%d first=%q", total, len(page), page[0].FullName)
	}

	found, total, err := p.ListStaff(ctx, StaffFilter{Search: "engin"})
	if err != nil {
		t.Fatalf("ListStaff search failed: %v", err)
	}
	if total != 6 || len(found) != 6 {
		t.Errorf("expected 6 engineering staff, got total=%d len=%d", total, len(found))
	}
}

func TestSessions(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := p.CreateSession(ctx, "jti-1", now.Add(time.Hour)); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if ok, err := p.ExistsSession(ctx, "jti-1", now); err != nil || !ok {
		t.Fatalf("expected session to exist, got %v %v", ok, err)
	}
	if ok, _ := p.ExistsSession(ctx, "jti-1", now.Add(2*time.Hour)); ok {
		t.Errorf("expired session reported as existing")
	}
	if ok, err := p.ConsumeSession(ctx, "jti-1"); err != nil || !ok {
		t.Fatalf("expected consume to succeed, got %v %v", ok, err)
	}
	if ok, _ := p.ConsumeSession(ctx, "jti-1"); ok {
		t.Errorf("session consumed twice")
	}
}

func TestDashboardAndSummary(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	m := seedMeeting(t, p)
	r := seedAttendance(t, p, m.ID, "a@x.com")
	seedAttendance(t, p, m.ID, "b@x.com")
	p.MarkJoined(ctx, r.ID, time.Now().UTC())
	p.MarkConfirmed(ctx, r.ID, time.Now().UTC())

	summary, err := p.GetMeetingSummary(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMeetingSummary failed: %v", err)
	}
	if summary.Invited != 2 || summary.Joined != 1 || summary.Confirmed != 1 {
		t.Errorf("unexpected counts: %+v", summary)
	}

	meetings, total, err := p.ListMeetings(ctx, MeetingFilter{Status: MeetingStatusClosed})
	if err != nil {
		t.Fatalf("ListMeetings failed: %v", err)
	}
	if total != 0 || len(meetings) != 0 {
		t.Errorf("expected no closed meetings, got %d", total)
	}

	d, err := p.GetDashboard(ctx)
	if err != nil {
		t.Fatalf("GetDashboard failed: %v", err)
	}
	if d.TotalMeetings != 1 || d.ActiveMeetings != 1 || d.TotalInvited != 2 || d.TotalConfirmed != 1 {
		t.Errorf("unexpected dashboard: %+v", d)
	}
}

func TestUpdateUser(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	a := &User{Name: "Aino", Email: "aino@x.com", Role: RoleHR, PasswordHash: "h1", Active: true, CreatedAt: time.Now().UTC()}
	b := &User{Name: "Eero", Email: "eero@x.com", Role: RoleHR, PasswordHash: "h2", Active: true, CreatedAt: time.Now().UTC()}
	for _, u := range []*User{a, b} {
		if err := p.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}

	if err := p.UpdateUser(ctx, a.ID, "Aino V", " AINO.V@x.com "); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}
	got, err := p.GetUser(ctx, a.ID)
	if err != nil || got.Name != "Aino V" || got.Email != "aino.v@x.com" {
		t.Fatalf("unexpected user after update: %+v %v", got, err)
	}

	// Saving unchanged values is not a missing row.
	if err := p.UpdateUser(ctx, a.ID, "Aino V", "aino.v@x.com"); err != nil {
		t.Errorf("unchanged update failed: %v", err)
	}
	if err := p.UpdateUser(ctx, a.ID, "Aino V", "eero@x.com"); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict taking another account's email, got %v", err)
	}
	if err := p.UpdateUser(ctx, 999, "Nobody", "nobody@x.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := p.SetPasswordHash(ctx, b.ID, "h3"); err != nil {
		t.Fatalf("SetPasswordHash failed: %v", err)
	}
	if got, _ := p.GetUser(ctx, b.ID); got.PasswordHash != "h3" {
		t.Errorf("password hash not stored: %q", got.PasswordHash)
	}
	if err := p.SetPasswordHash(ctx, 999, "h4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAttendanceHistory(t *testing.T) {
	p := newTestProvider(t)
	ctx := context.Background()
	first := seedMeeting(t, p)
	second := &Meeting{Title: "Planning", JoinURL: "https://meet.example.com/2", Active: true, CreatedAt: first.CreatedAt.Add(time.Hour)}
	if err := p.CreateMeeting(ctx, second); err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}

	r := seedAttendance(t, p, first.ID, "ada@x.com")
	p.MarkJoined(ctx, r.ID, time.Now().UTC())
	seedAttendance(t, p, second.ID, "ada@x.com")
	seedAttendance(t, p, second.ID, "other@x.com")

	virtual, err := p.ListAttendanceByEmail(ctx, "ADA@x.com", ChannelVirtual)
	if err != nil {
		t.Fatalf("ListAttendanceByEmail failed: %v", err)
	}
	if len(virtual) != 2 || virtual[0].MeetingID != second.ID || virtual[0].Title != "Planning" {
		t.Fatalf("unexpected virtual history: %+v", virtual)
	}
	if virtual[0].JoinTime != nil || virtual[1].JoinTime == nil {
		t.Errorf("join times attached to the wrong meetings: %+v", virtual)
	}

	s := &Staff{FullName: "Ada Lovelace", Email: "ada@x.com", Department: "R&D", BarcodeToken: "b1", CreatedAt: time.Now().UTC()}
	if err := p.CreateStaff(ctx, s); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}
	if err := p.CreateScan(ctx, &ScanLogEntry{StaffID: s.ID, MeetingID: first.ID, ScannedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("CreateScan failed: %v", err)
	}

	physical, err := p.ListScansByEmail(ctx, "ada@x.com")
	if err != nil {
		t.Fatalf("ListScansByEmail failed: %v", err)
	}
	if len(physical) != 1 || physical[0].MeetingID != first.ID || physical[0].Title != "Town hall" {
		t.Errorf("unexpected physical history: %+v", physical)
	}

	if none, err := p.ListScansByEmail(ctx, "nobody@x.com"); err != nil || len(none) != 0 {
		t.Errorf("expected empty history, got %+v %v", none, err)
	}
}
