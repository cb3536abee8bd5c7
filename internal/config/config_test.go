package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Attendance.ConfirmationWindow != 15*time.Minute {
		t.Errorf("confirmation window = %s, want 15m", cfg.Attendance.ConfirmationWindow)
	}
	if cfg.Attendance.InviteTTL != 0 {
		t.Errorf("invite ttl = %s, want 0", cfg.Attendance.InviteTTL)
	}
	if cfg.Notify.Parallelism != 4 {
		t.Errorf("parallelism = %d, want 4", cfg.Notify.Parallelism)
	}
	if cfg.SessionTTL() != 8*time.Hour {
		t.Errorf("session ttl = %s, want 8h", cfg.SessionTTL())
	}
	if cfg.Storage.SQLite == nil || !strings.HasSuffix(cfg.Storage.SQLite.Path, "/data/attendance.db") {
		t.Errorf("unexpected sqlite path: %+v", cfg.Storage.SQLite)
	}
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := []byte(`
base_url: https://attendance.example.com/
attendance:
  confirmation_window: 30m
notify:
  parallelism: 2
storage:
  local:
    path: /tmp/attendance-test.db
`)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writefile: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.BaseURL != "https://attendance.example.com" {
		t.Errorf("base url = %q, trailing slash not trimmed", cfg.BaseURL)
	}
	if cfg.Attendance.ConfirmationWindow != 30*time.Minute {
		t.Errorf("confirmation window = %s, want 30m", cfg.Attendance.ConfirmationWindow)
	}
	if cfg.Notify.Parallelism != 2 {
		t.Errorf("parallelism = %d, want 2", cfg.Notify.Parallelism)
	}
	if cfg.Storage.SQLite.Path != "/tmp/attendance-test.db" {
		t.Errorf("absolute sqlite path rewritten: %q", cfg.Storage.SQLite.Path)
	}
}

func TestLoadConfig_RejectsZeroWindow(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ATTENDANCE_CONFIRMATION_WINDOW", "0s")

	if _, err := LoadConfig(); err != ErrInvalidConfirmationWindow {
		t.Fatalf("expected ErrInvalidConfirmationWindow, got %v", err)
	}
}
