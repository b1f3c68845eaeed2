package config

import (
	"testing"
	"time"
)

// setSheet provides the one required setting so Load can succeed.
func setSheet(t *testing.T) {
	t.Helper()
	t.Setenv("SHEET_PATH", "registrants.csv")
}

func TestLoad_Defaults(t *testing.T) {
	setSheet(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Pattern.Hour != 20 {
		t.Errorf("Hour = %d, want 20", cfg.Pattern.Hour)
	}
	if !cfg.Pattern.Weekdays[time.Tuesday] || !cfg.Pattern.Weekdays[time.Friday] || !cfg.Pattern.Weekdays[time.Sunday] {
		t.Errorf("Weekdays = %v", cfg.Pattern.Weekdays)
	}
	if cfg.Location.String() != "Asia/Kolkata" {
		t.Errorf("Location = %s", cfg.Location)
	}
	if len(cfg.Slots) != 2 {
		t.Errorf("Slots = %+v", cfg.Slots)
	}
	if cfg.Tolerance != 10*time.Minute {
		t.Errorf("Tolerance = %s", cfg.Tolerance)
	}
	if cfg.ReminderCap != 3 || cfg.UpcomingCount != 3 {
		t.Errorf("cap=%d upcoming=%d", cfg.ReminderCap, cfg.UpcomingCount)
	}
	if cfg.StateBackend != BackendJSON {
		t.Errorf("StateBackend = %s", cfg.StateBackend)
	}
	if cfg.RetryAttempts != 3 || cfg.RetryDelay != 5*time.Second {
		t.Errorf("retry = %d/%s", cfg.RetryAttempts, cfg.RetryDelay)
	}
	if cfg.TickCron != "@every 1m" {
		t.Errorf("TickCron = %q", cfg.TickCron)
	}
}

func TestLoad_RequiresSource(t *testing.T) {
	if _, err := Load(); err == nil {
		t.Error("expected error with neither SHEET_URL nor SHEET_PATH")
	}

	t.Setenv("SHEET_URL", "https://example.com/export.csv")
	t.Setenv("SHEET_PATH", "also.csv")
	if _, err := Load(); err == nil {
		t.Error("expected error with both SHEET_URL and SHEET_PATH")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setSheet(t)
	t.Setenv("WORKSHOP_DAYS", "mon,wed")
	t.Setenv("WORKSHOP_HOUR", "18")
	t.Setenv("REMINDER_SLOTS", "09:00=9AM")
	t.Setenv("STATE_BACKEND", "sqlite")
	t.Setenv("SHEET_NAME_COLUMN", "Full Name")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Pattern.Weekdays[time.Monday] || !cfg.Pattern.Weekdays[time.Wednesday] || len(cfg.Pattern.Weekdays) != 2 {
		t.Errorf("Weekdays = %v", cfg.Pattern.Weekdays)
	}
	if cfg.Pattern.Hour != 18 {
		t.Errorf("Hour = %d", cfg.Pattern.Hour)
	}
	if len(cfg.Slots) != 1 || cfg.Slots[0].Label != "9AM" {
		t.Errorf("Slots = %+v", cfg.Slots)
	}
	if cfg.StateBackend != BackendSQLite {
		t.Errorf("StateBackend = %s", cfg.StateBackend)
	}
	if cfg.Mapping.NameColumn != "Full Name" {
		t.Errorf("NameColumn = %q", cfg.Mapping.NameColumn)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad timezone", "WORKSHOP_TZ", "Mars/Olympus"},
		{"bad weekday", "WORKSHOP_DAYS", "tue,someday"},
		{"bad hour", "WORKSHOP_HOUR", "25"},
		{"bad slots", "REMINDER_SLOTS", "25:00"},
		{"bad backend", "STATE_BACKEND", "etcd"},
		{"negative cap", "REMINDER_CAP", "-1"},
		{"zero upcoming", "UPCOMING_COUNT", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setSheet(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}
