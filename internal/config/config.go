// Package config provides centralized configuration loaded from environment
// variables. Credentials and the sheet location come from the environment;
// everything else has defaults matching the production workshop schedule.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"remindbot/internal/adapters/source"
	"remindbot/internal/domain/occurrence"
	"remindbot/internal/domain/reminder"
)

// State backends.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Config is populated from environment variables by Load.
type Config struct {
	// Email channel
	ResendAPIKey string // empty → noop sender
	SenderFrom   string
	ReplyTo      string

	// Registrant source: exactly one of SheetURL / SheetPath
	SheetURL  string
	SheetPath string
	Mapping   source.Mapping

	// Workshop identity
	WorkshopTitle string
	WorkshopLink  string
	ImagePath     string

	// Recurrence
	Location *time.Location
	Pattern  occurrence.Pattern

	// Reminder rules
	Slots         []reminder.Slot
	Tolerance     time.Duration
	ReminderCap   int
	UpcomingCount int

	// Tick driver
	TickCron      string
	RetryAttempts int
	RetryDelay    time.Duration

	// State store
	StateBackend string
	StateDir     string

	Environment string // development, production
}

// Load reads configuration from environment variables with sensible
// defaults. Validation failures are returned immediately so the process
// fails at startup, not mid-tick.
func Load() (*Config, error) {
	cfg := &Config{
		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		SenderFrom:   envOr("SENDER_FROM", "Workshop Team <noreply@example.com>"),
		ReplyTo:      envOr("REPLY_TO", ""),

		SheetURL:  os.Getenv("SHEET_URL"),
		SheetPath: os.Getenv("SHEET_PATH"),
		Mapping: source.Mapping{
			NameColumn:  envOr("SHEET_NAME_COLUMN", "NAME"),
			EmailColumn: envOr("SHEET_EMAIL_COLUMN", "EMAIL"),
		},

		WorkshopTitle: envOr("WORKSHOP_TITLE", "Agentic AI Workshop"),
		WorkshopLink:  envOr("WORKSHOP_LINK", "https://meet.google.com/xyz-abc-def"),
		ImagePath:     envOr("IMAGE_PATH", "static/image.jpeg"),

		ReminderCap:   envInt("REMINDER_CAP", 3),
		UpcomingCount: envInt("UPCOMING_COUNT", 3),
		Tolerance:     time.Duration(envInt("REMINDER_TOLERANCE_MINUTES", 10)) * time.Minute,

		TickCron:      envOr("TICK_CRON", "@every 1m"),
		RetryAttempts: envInt("RETRY_ATTEMPTS", 3),
		RetryDelay:    time.Duration(envInt("RETRY_DELAY_SECONDS", 5)) * time.Second,

		StateBackend: envOr("STATE_BACKEND", BackendJSON),
		StateDir:     envOr("STATE_DIR", "state"),

		Environment: envOr("REMINDBOT_ENV", "development"),
	}

	if cfg.SheetURL == "" && cfg.SheetPath == "" {
		return nil, fmt.Errorf("SHEET_URL or SHEET_PATH must be set")
	}
	if cfg.SheetURL != "" && cfg.SheetPath != "" {
		return nil, fmt.Errorf("SHEET_URL and SHEET_PATH are mutually exclusive")
	}
	if err := cfg.Mapping.Validate(); err != nil {
		return nil, fmt.Errorf("sheet column mapping: %w", err)
	}

	loc, err := time.LoadLocation(envOr("WORKSHOP_TZ", "Asia/Kolkata"))
	if err != nil {
		return nil, fmt.Errorf("WORKSHOP_TZ: %w", err)
	}
	cfg.Location = loc

	days, err := occurrence.ParseWeekdays(envOr("WORKSHOP_DAYS", "tue,fri,sun"))
	if err != nil {
		return nil, fmt.Errorf("WORKSHOP_DAYS: %w", err)
	}
	cfg.Pattern = occurrence.Pattern{
		Weekdays: days,
		Hour:     envInt("WORKSHOP_HOUR", 20),
		Location: loc,
	}
	if err := cfg.Pattern.Validate(); err != nil {
		return nil, fmt.Errorf("workshop recurrence: %w", err)
	}

	if raw := os.Getenv("REMINDER_SLOTS"); raw != "" {
		slots, err := reminder.ParseSlots(raw)
		if err != nil {
			return nil, fmt.Errorf("REMINDER_SLOTS: %w", err)
		}
		cfg.Slots = slots
	} else {
		cfg.Slots = reminder.DefaultSlots()
	}

	if cfg.StateBackend != BackendJSON && cfg.StateBackend != BackendSQLite {
		return nil, fmt.Errorf("STATE_BACKEND must be %q or %q, got %q", BackendJSON, BackendSQLite, cfg.StateBackend)
	}
	if cfg.ReminderCap < 0 {
		return nil, fmt.Errorf("REMINDER_CAP must not be negative")
	}
	if cfg.UpcomingCount <= 0 {
		return nil, fmt.Errorf("UPCOMING_COUNT must be positive")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
