package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"meeting-attendance/internal/access"
	"meeting-attendance/internal/attendance"
	"meeting-attendance/internal/config"
	"meeting-attendance/internal/notify"
	"meeting-attendance/internal/roster"
	"meeting-attendance/internal/session"
	"meeting-attendance/internal/storage"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	router *gin.Engine
	store  storage.Provider
	cfg    *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	storageCfg := &config.Storage{SQLite: &config.SQLLiteStorage{Path: filepath.Join(t.TempDir(), "routes.db")}}
	store, err := storage.NewProvider(context.Background(), storageCfg)
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	rbac := access.NewRBAC()
	if err := rbac.LoadPolicy(""); err != nil {
		t.Fatalf("LoadPolicy failed: %v", err)
	}

	cfg := &config.Config{}
	staff := roster.New(store)
	dispatcher := notify.NewDispatcher(notify.NewLogSender(), config.NotifyConfig{Parallelism: 2, Timeout: time.Second})
	engine := attendance.New(store, staff, dispatcher, attendance.Options{
		BaseURL:            "https://attendance.example.com",
		ConfirmationWindow: 15 * time.Minute,
	})
	scanner := attendance.NewScanner(store, staff, dispatcher)
	sessions := session.NewManager("routes-test-secret", time.Hour, session.NewMemoryStore())

	renderer, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	r := gin.New()
	r.HTMLRender = renderer
	r.Use(ErrorHandler(), BaseURL(""))
	NewAPI(cfg, store, engine, scanner, staff, sessions, rbac).Register(r)

	return &testServer{router: r, store: store, cfg: cfg}
}

type request struct {
	method string
	path   string
	token  string
	body   any
	accept string
}

func (s *testServer) do(t *testing.T, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		body = bytes.NewReader(data)
	}
	r := httptest.NewRequest(req.method, req.path, body)
	if req.body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.accept == "" {
		req.accept = "application/json"
	}
	r.Header.Set("Accept", req.accept)
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	return w
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Detail  string          `json:"detail"`
	Code    []string        `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) testEnvelope {
	t.Helper()
	var env testEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid envelope %q: %v", w.Body.String(), err)
	}
	if data != nil {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("invalid data %s: %v", env.Data, err)
		}
	}
	return env
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, w.Code, w.Body.String())
	}
}

func expectCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, w, status)
	env := decode(t, w, nil)
	if env.Success {
		t.Fatalf("expected failure envelope, got %s", w.Body.String())
	}
	for _, c := range env.Code {
		if c == code {
			return
		}
	}
	t.Fatalf("expected stop code %s, got %v", code, env.Code)
}

// login creates an account with role and returns its session token.
func (s *testServer) login(t *testing.T, role storage.Role) string {
	t.Helper()
	address := string(role) + "@example.com"
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.store.CreateUser(context.Background(), &storage.User{
		Name:         strings.ToUpper(string(role)),
		Email:        address,
		Role:         role,
		PasswordHash: string(hash),
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	w := s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: gin.H{"email": address, "password": "correct horse"}})
	expectStatus(t, w, http.StatusOK)
	var resp struct {
		Token string `json:"token"`
	}
	decode(t, w, &resp)
	if resp.Token == "" {
		t.Fatal("login returned no token")
	}
	return resp.Token
}

func (s *testServer) createMeeting(t *testing.T, token string) storage.Meeting {
	t.Helper()
	w := s.do(t, request{method: http.MethodPost, path: "/api/meetings", token: token, body: gin.H{
		"title":   "Quarterly all hands",
		"joinUrl": "https://meet.example.com/all-hands",
	}})
	expectStatus(t, w, http.StatusCreated)
	var m storage.Meeting
	decode(t, w, &m)
	return m
}

func (s *testServer) registerStaff(t *testing.T, token, name, address string) storage.Staff {
	t.Helper()
	w := s.do(t, request{method: http.MethodPost, path: "/api/staff", token: token, body: gin.H{
		"fullName":   name,
		"email":      address,
		"department": "Finance",
	}})
	expectStatus(t, w, http.StatusCreated)
	var staff storage.Staff
	decode(t, w, &staff)
	return staff
}

func TestAuth(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, storage.RoleHR)

	w := s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: gin.H{"email": "hr@example.com", "password": "wrong"}})
	expectCode(t, w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS")

	w = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: gin.H{"email": "nobody@example.com", "password": "wrong"}})
	expectCode(t, w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS")

	w = s.do(t, request{method: http.MethodGet, path: "/api/auth/status", token: token})
	expectStatus(t, w, http.StatusOK)
	var status struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decode(t, w, &status)
	if status.Email != "hr@example.com" || status.Role != "hr" {
		t.Errorf("unexpected status %+v", status)
	}

	w = s.do(t, request{method: http.MethodPost, path: "/api/auth/logout", token: token})
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, request{method: http.MethodGet, path: "/api/auth/status", token: token})
	expectCode(t, w, http.StatusUnauthorized, "AUTH_SESSION_REVOKED")

	w = s.do(t, request{method: http.MethodGet, path: "/api/meetings"})
	expectCode(t, w, http.StatusUnauthorized, "AUTH_REQUIRED")

	w = s.do(t, request{method: http.MethodGet, path: "/api/meetings", token: "not.a.token"})
	expectCode(t, w, http.StatusUnauthorized, "AUTH_INVALID_TOKEN")
}

func TestScannerRole(t *testing.T) {
	s := newTestServer(t)
	hr := s.login(t, storage.RoleHR)
	scanner := s.login(t, storage.RoleScanner)

	m := s.createMeeting(t, hr)

	w := s.do(t, request{method: http.MethodPost, path: "/api/meetings", token: scanner, body: gin.H{"title": "Nope", "joinUrl": "https://meet.example.com/x"}})
	expectCode(t, w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")

	w = s.do(t, request{method: http.MethodGet, path: "/api/staff", token: scanner})
	expectCode(t, w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")

	w = s.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/api/meetings/%d", m.ID), token: scanner})
	expectStatus(t, w, http.StatusOK)
}

func TestVirtualAttendanceFlow(t *testing.T) {
	s := newTestServer(t)
	hr := s.login(t, storage.RoleHR)
	s.registerStaff(t, hr, "Aino Virtanen", "aino@example.com")
	m := s.createMeeting(t, hr)

	w := s.do(t, request{method: http.MethodPost, path: "/api/attendance/invite", token: hr, body: gin.H{
		"meetingId": m.ID,
		"email":     "Aino@Example.com",
	}})
	expectStatus(t, w, http.StatusCreated)
	var invite inviteResponse
	decode(t, w, &invite)
	if !strings.HasPrefix(invite.JoinLink, "https://attendance.example.com/api/attendance/join?token=") {
		t.Errorf("unexpected join link %q", invite.JoinLink)
	}

	w = s.do(t, request{method: http.MethodPost, path: "/api/attendance/invite", token: hr, body: gin.H{"meetingId": m.ID, "email": "aino@example.com"}})
	expectCode(t, w, http.StatusConflict, "DUPLICATE_INVITE")

	w = s.do(t, request{method: http.MethodPost, path: "/api/attendance/invite", token: hr, body: gin.H{"meetingId": m.ID, "email": "stranger@example.com"}})
	expectCode(t, w, http.StatusNotFound, "UNKNOWN_PARTICIPANT")

	for range 2 {
		w = s.do(t, request{method: http.MethodGet, path: "/api/attendance/join?token=" + invite.Token, accept: "text/html"})
		expectStatus(t, w, http.StatusFound)
		if loc := w.Header().Get("Location"); loc != m.JoinURL {
			t.Fatalf("expected redirect to %s, got %s", m.JoinURL, loc)
		}
	}

	w = s.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/api/meetings/%d/close", m.ID), token: hr})
	expectStatus(t, w, http.StatusOK)
	var report attendance.CloseReport
	decode(t, w, &report)
	if report.ConfirmationCount != 1 {
		t.Errorf("expected 1 confirmation request, got %d", report.ConfirmationCount)
	}

	w = s.do(t, request{method: http.MethodPost, path: fmt.Sprintf("/api/meetings/%d/close", m.ID), token: hr})
	expectCode(t, w, http.StatusConflict, "ALREADY_CLOSED")

	w = s.do(t, request{method: http.MethodGet, path: "/api/attendance/join?token=" + invite.Token})
	expectCode(t, w, http.StatusConflict, "MEETING_CLOSED")

	records, err := s.store.ListAttendance(context.Background(), m.ID, storage.ChannelVirtual)
	if err != nil || len(records) != 1 || records[0].ConfirmationToken == nil {
		t.Fatalf("expected one record with a confirmation token: %+v %v", records, err)
	}
	confirmPath := "/api/attendance/confirm?token=" + *records[0].ConfirmationToken

	for _, want := range []string{"success", "already"} {
		w = s.do(t, request{method: http.MethodGet, path: confirmPath})
		expectStatus(t, w, http.StatusOK)
		var out struct {
			Outcome string `json:"outcome"`
		}
		decode(t, w, &out)
		if out.Outcome != want {
			t.Errorf("expected outcome %s, got %s", want, out.Outcome)
		}
	}

	w = s.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/api/meetings/%d/attendance/export", m.ID), token: hr})
	expectStatus(t, w, http.StatusOK)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 2 || lines[0] != "Staff Name,Staff Email,Join Time,Confirmed,Confirmed Time" {
		t.Fatalf("unexpected export:\n%s", w.Body.String())
	}
	if !strings.HasPrefix(lines[1], "Aino Virtanen,aino@example.com,") || !strings.Contains(lines[1], ",Yes,") {
		t.Errorf("unexpected export row %q", lines[1])
	}
}

func TestConfirmPage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/attendance/confirm?token=bogus", accept: "text/html"})
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Invalid link") {
		t.Errorf("expected invalid link page, got %s", w.Body.String())
	}

	s.cfg.FrontendURL = "https://hr.example.com/"
	w = s.do(t, request{method: http.MethodGet, path: "/api/attendance/confirm?token=bogus", accept: "text/html"})
	expectStatus(t, w, http.StatusFound)
	if loc := w.Header().Get("Location"); loc != "https://hr.example.com/confirmation/invalid" {
		t.Errorf("unexpected redirect %s", loc)
	}
}

func TestJoinErrorPage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/attendance/join?token=bogus", accept: "text/html,application/xhtml+xml"})
	expectStatus(t, w, http.StatusBadRequest)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected HTML error page, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Invalid or unknown link") {
		t.Errorf("unexpected page %s", w.Body.String())
	}

	w = s.do(t, request{method: http.MethodGet, path: "/api/attendance/join"})
	expectCode(t, w, http.StatusBadRequest, "MISSING_PARAMETER")
}

func TestScanAndStaff(t *testing.T) {
	s := newTestServer(t)
	hr := s.login(t, storage.RoleHR)
	scanner := s.login(t, storage.RoleScanner)

	staff := s.registerStaff(t, hr, "Eero Korhonen", "eero@example.com")
	m := s.createMeeting(t, hr)

	stored, err := s.store.GetStaff(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("GetStaff failed: %v", err)
	}

	scan := gin.H{"token": stored.BarcodeToken, "meetingId": m.ID}
	w := s.do(t, request{method: http.MethodPost, path: "/api/scans", token: scanner, body: scan})
	expectStatus(t, w, http.StatusCreated)

	w = s.do(t, request{method: http.MethodPost, path: "/api/scans", token: scanner, body: scan})
	expectCode(t, w, http.StatusConflict, "ALREADY_SCANNED")

	w = s.do(t, request{method: http.MethodPost, path: "/api/scans", token: scanner, body: gin.H{"token": "unknown", "meetingId": m.ID}})
	expectCode(t, w, http.StatusNotFound, "UNKNOWN_BADGE")

	w = s.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/api/meetings/%d/physical/summary", m.ID), token: scanner})
	expectStatus(t, w, http.StatusOK)
	var summary attendance.PhysicalSummary
	decode(t, w, &summary)
	if summary.TotalScanned != 1 {
		t.Errorf("expected 1 scan, got %d", summary.TotalScanned)
	}

	w = s.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/api/meetings/%d/physical/export", m.ID), token: hr})
	expectStatus(t, w, http.StatusOK)
	if !strings.HasPrefix(w.Body.String(), "Staff Name,Department,Email,Scanned At\nEero Korhonen,Finance,eero@example.com,") {
		t.Errorf("unexpected export:\n%s", w.Body.String())
	}

	w = s.do(t, request{method: http.MethodGet, path: fmt.Sprintf("/api/staff/%d/badge.png", staff.ID), token: hr})
	expectStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("unexpected badge content type %s", ct)
	}

	w = s.do(t, request{method: http.MethodDelete, path: fmt.Sprintf("/api/staff/%d", staff.ID), token: hr})
	expectCode(t, w, http.StatusConflict, "STAFF_HAS_SCANS")

	w = s.do(t, request{method: http.MethodPost, path: "/api/staff", token: hr, body: gin.H{"fullName": "Eero K", "email": "EERO@example.com", "department": "Sales"}})
	expectCode(t, w, http.StatusConflict, "DUPLICATE_STAFF")

	w = s.do(t, request{method: http.MethodGet, path: "/api/staff/abc", token: hr})
	expectCode(t, w, http.StatusBadRequest, "INVALID_PARAMETER")

	w = s.do(t, request{method: http.MethodGet, path: "/api/staff?search=korhonen", token: hr})
	expectStatus(t, w, http.StatusOK)
	var page Page[storage.Staff]
	decode(t, w, &page)
	if page.Total != 1 || len(page.Items) != 1 || page.PageSize != 10 {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestImportStaff(t *testing.T) {
	s := newTestServer(t)
	hr := s.login(t, storage.RoleHR)

	list := "name,email,department\nAino Virtanen,aino@example.com,Finance\nBad Row,not-an-email,Finance\n"
	r := httptest.NewRequest(http.MethodPost, "/api/staff/import", strings.NewReader(list))
	r.Header.Set("Content-Type", "text/csv")
	r.Header.Set("Accept", "application/json")
	r.Header.Set("Authorization", "Bearer "+hr)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, r)
	expectStatus(t, w, http.StatusOK)

	var report roster.ImportReport
	decode(t, w, &report)
	if report.Total != 2 || report.Created != 1 || report.Failed != 1 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, request{method: http.MethodGet, path: "/health"})
	expectStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected health body %s", w.Body.String())
	}
}

func TestGetErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: title failed required", attendance.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{attendance.ErrMeetingClosed, http.StatusConflict, "MEETING_CLOSED"},
		{fmt.Errorf("join: %w", attendance.ErrTokenExpired), http.StatusGone, "TOKEN_EXPIRED"},
		{attendance.ErrMeetingNotFound, http.StatusNotFound, "MEETING_NOT_FOUND"},
		{session.ErrRevoked, http.StatusUnauthorized, "AUTH_SESSION_REVOKED"},
		{NewHTTPError(http.StatusTeapot, nil, "short and stout", "TEAPOT"), http.StatusTeapot, "TEAPOT"},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := GetErrorStatus(tt.err); got != tt.status {
				t.Errorf("status: expected %d, got %d", tt.status, got)
			}
			codes := GetErrorInfo(tt.err).StopCodes
			if tt.code == "" && len(codes) != 0 || tt.code != "" && (len(codes) == 0 || codes[0] != tt.code) {
				t.Errorf("stop codes: expected %q, got %v", tt.code, codes)
			}
		})
	}

	if detail := GetErrorDetail(fmt.Errorf("disk on fire")); detail != "" {
		t.Errorf("internal errors must not leak detail, got %q", detail)
	}
}

func TestAccountSettings(t *testing.T) {
	s := newTestServer(t)
	hr := s.login(t, storage.RoleHR)
	s.login(t, storage.RoleScanner)

	w := s.do(t, request{method: http.MethodGet, path: "/api/settings/me", token: hr})
	expectStatus(t, w, http.StatusOK)
	var me storage.User
	decode(t, w, &me)
	if me.Email != "hr@example.com" || me.Role != storage.RoleHR {
		t.Fatalf("unexpected profile %+v", me)
	}

	w = s.do(t, request{method: http.MethodPut, path: "/api/settings/me", token: hr, body: gin.H{"email": "Scanner@Example.com"}})
	expectCode(t, w, http.StatusConflict, "DUPLICATE_ACCOUNT")

	w = s.do(t, request{method: http.MethodPut, path: "/api/settings/me", token: hr, body: gin.H{"name": "Helena Laine", "email": "Helena@Example.com"}})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &me)
	if me.Name != "Helena Laine" || me.Email != "helena@example.com" {
		t.Errorf("profile not updated: %+v", me)
	}

	w = s.do(t, request{method: http.MethodPut, path: "/api/settings/me", token: hr, body: gin.H{"email": "not-an-email"}})
	expectCode(t, w, http.StatusBadRequest, "INVALID_REQUEST")

	w = s.do(t, request{method: http.MethodPost, path: "/api/settings/change-password", token: hr, body: gin.H{"currentPassword": "wrong horse", "newPassword": "battery staple"}})
	expectCode(t, w, http.StatusBadRequest, "INCORRECT_PASSWORD")

	w = s.do(t, request{method: http.MethodPost, path: "/api/settings/change-password", token: hr, body: gin.H{"currentPassword": "correct horse", "newPassword": "short"}})
	expectCode(t, w, http.StatusBadRequest, "WEAK_PASSWORD")

	w = s.do(t, request{method: http.MethodPost, path: "/api/settings/change-password", token: hr, body: gin.H{"currentPassword": "correct horse", "newPassword": "battery staple"}})
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: gin.H{"email": "helena@example.com", "password": "correct horse"}})
	expectCode(t, w, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS")

	w = s.do(t, request{method: http.MethodPost, path: "/api/auth/login", body: gin.H{"email": "helena@example.com", "password": "battery staple"}})
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, request{method: http.MethodGet, path: "/api/settings/me"})
	expectCode(t, w, http.StatusUnauthorized, "AUTH_REQUIRED")
}

func TestStaffHistory(t *testing.T) {
	s := newTestServer(t)
	hr := s.login(t, storage.RoleHR)
	scanner := s.login(t, storage.RoleScanner)
	staff := s.registerStaff(t, hr, "Aino Virtanen", "aino@example.com")
	first := s.createMeeting(t, hr)
	second := s.createMeeting(t, hr)

	w := s.do(t, request{method: http.MethodPost, path: "/api/attendance/invite", token: hr, body: gin.H{"meetingId": first.ID, "email": "aino@example.com"}})
	expectStatus(t, w, http.StatusCreated)
	var invite inviteResponse
	decode(t, w, &invite)
	w = s.do(t, request{method: http.MethodGet, path: "/api/attendance/join?token=" + invite.Token, accept: "text/html"})
	expectStatus(t, w, http.StatusFound)

	stored, err := s.store.GetStaff(context.Background(), staff.ID)
	if err != nil {
		t.Fatalf("GetStaff failed: %v", err)
	}
	w = s.do(t, request{method: http.MethodPost, path: "/api/scans", token: scanner, body: gin.H{"token": stored.BarcodeToken, "meetingId": second.ID}})
	expectStatus(t, w, http.StatusCreated)

	w = s.do(t, request{method: http.MethodGet, path: "/api/staff/history/Aino@example.com", token: hr})
	expectStatus(t, w, http.StatusOK)
	var h attendance.History
	decode(t, w, &h)
	if h.Email != "aino@example.com" || len(h.Virtual) != 1 || len(h.Physical) != 1 {
		t.Fatalf("unexpected history %+v", h)
	}
	if h.Virtual[0].MeetingID != first.ID || h.Virtual[0].JoinTime == nil {
		t.Errorf("unexpected virtual entry %+v", h.Virtual[0])
	}
	if h.Physical[0].MeetingID != second.ID {
		t.Errorf("unexpected physical entry %+v", h.Physical[0])
	}

	w = s.do(t, request{method: http.MethodGet, path: "/api/staff/history/aino@example.com?channel=virtual", token: hr})
	expectStatus(t, w, http.StatusOK)
	h = attendance.History{}
	decode(t, w, &h)
	if len(h.Virtual) != 1 || h.Physical != nil {
		t.Errorf("expected virtual history only, got %+v", h)
	}

	w = s.do(t, request{method: http.MethodGet, path: "/api/staff/history/aino@example.com?channel=fax", token: hr})
	expectCode(t, w, http.StatusBadRequest, "INVALID_CHANNEL")

	w = s.do(t, request{method: http.MethodGet, path: "/api/staff/history/aino@example.com", token: scanner})
	expectCode(t, w, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS")
}
