package attendance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"meeting-attendance/internal/config"
	"meeting-attendance/internal/email"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/storage"
)

type storeDirectory struct {
	store storage.Provider
}

func (d storeDirectory) ResolveEmail(ctx context.Context, address string) (*storage.Staff, error) {
	s, err := d.store.GetStaffByEmail(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownParticipant
	}
	return s, err
}

func (d storeDirectory) ResolveBadge(ctx context.Context, badge string) (*storage.Staff, error) {
	s, err := d.store.GetStaffByBarcode(ctx, badge)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnknownBadge
	}
	return s, err
}

// recordingSender records delivered messages. Recipients in fail are rejected,
// recipients in block hang until their context ends.
type recordingSender struct {
	mu       sync.Mutex
	fail     map[string]bool
	block    map[string]bool
	messages []*email.Message
}

func (s *recordingSender) Send(ctx context.Context, msg *email.Message) error {
	to := msg.To[0]
	if s.block[to] {
		<-ctx.Done()
		return ctx.Err()
	}
	if s.fail[to] {
		return fmt.Errorf("550 mailbox unavailable: %s", to)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) sent() []*email.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*email.Message(nil), s.messages...)
}

type fixture struct {
	store   storage.Provider
	engine  *Engine
	scanner *Scanner
	sender  *recordingSender

	mu    sync.Mutex
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Storage{SQLite: &config.SQLLiteStorage{Path: filepath.Join(t.TempDir(), "attendance.db")}}
	store, err := storage.NewProvider(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:  store,
		sender: &recordingSender{fail: map[string]bool{}, block: map[string]bool{}},
		clock:  time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	dispatcher := notify.NewDispatcher(f.sender, config.NotifyConfig{Timeout: 100 * time.Millisecond, Parallelism: 4})
	dir := storeDirectory{store: store}

	f.engine = New(store, dir, dispatcher, Options{
		BaseURL:            "https://attendance.example.com/",
		ConfirmationWindow: 15 * time.Minute,
	})
	f.engine.now = f.now
	f.scanner = NewScanner(store, dir, dispatcher)
	f.scanner.now = f.now
	return f
}

func (f *fixture) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(d)
}

func (f *fixture) addStaff(t *testing.T, name, address string) *storage.Staff {
	t.Helper()
	s := &storage.Staff{
		FullName:     name,
		Email:        address,
		Department:   "Operations",
		BarcodeToken: "badge-" + address,
		CreatedAt:    f.now(),
	}
	if err := f.store.CreateStaff(context.Background(), s); err != nil {
		t.Fatalf("CreateStaff failed: %v", err)
	}
	return s
}

func (f *fixture) addMeeting(t *testing.T) *storage.Meeting {
	t.Helper()
	m, err := f.engine.CreateMeeting(context.Background(), MeetingInput{
		Title:   "Quarterly review",
		JoinURL: "https://meet.example.com/j/123",
	})
	if err != nil {
		t.Fatalf("CreateMeeting failed: %v", err)
	}
	return m
}

// joined invites and joins address, returning the join token.
func (f *fixture) joined(t *testing.T, meetingID int64, address string) string {
	t.Helper()
	tok, err := f.engine.GenerateInvite(context.Background(), meetingID, address, storage.ChannelVirtual)
	if err != nil {
		t.Fatalf("GenerateInvite(%s) failed: %v", address, err)
	}
	if _, err := f.engine.ValidateAndJoin(context.Background(), tok); err != nil {
		t.Fatalf("ValidateAndJoin(%s) failed: %v", address, err)
	}
	return tok
}

func (f *fixture) record(t *testing.T, meetingID int64, address string) storage.AttendanceRecord {
	t.Helper()
	records, err := f.store.ListAttendance(context.Background(), meetingID, storage.ChannelVirtual)
	if err != nil {
		t.Fatalf("ListAttendance failed: %v", err)
	}
	for _, r := range records {
		if r.Email == address {
			return r
		}
	}
	t.Fatalf("no attendance record for %s", address)
	return storage.AttendanceRecord{}
}

func (f *fixture) confirmationToken(t *testing.T, meetingID int64, address string) string {
	t.Helper()
	r := f.record(t, meetingID, address)
	if r.ConfirmationToken == nil {
		t.Fatalf("record for %s has no confirmation token", address)
	}
	return *r.ConfirmationToken
}

// cancelingNotifier cancels the caller's context right before fanning out.
type cancelingNotifier struct {
	next   Notifier
	cancel context.CancelFunc
}

func (n cancelingNotifier) Dispatch(ctx context.Context, batch []notify.Notification) *notify.Report {
	n.cancel()
	return n.next.Dispatch(ctx, batch)
}
