package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	_ "modernc.org/sqlite"

	emailPkg "remindbot/internal/adapters/email"
	"remindbot/internal/adapters/source"
	stateStore "remindbot/internal/adapters/storage/state"
	"remindbot/internal/application/orchestrators"
	"remindbot/internal/config"
	"remindbot/internal/domain/reminder"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	once := flag.Bool("once", false, "run a single evaluation pass and exit")
	flag.Parse()

	// .env is optional; environment variables always win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// Configure email sender
	var sender emailPkg.Sender
	if cfg.ResendAPIKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendAPIKey, cfg.SenderFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		if cfg.Environment == "production" {
			log.Println("WARNING: RESEND_API_KEY is not set — email delivery is DISABLED in production")
		} else {
			log.Println("Email sender configured (noop — set RESEND_API_KEY for real delivery)")
		}
	}
	sender = emailPkg.NewRetrySender(sender, cfg.RetryAttempts, cfg.RetryDelay)

	// Registrant source: a published sheet URL or a local CSV file.
	var src source.Source
	if cfg.SheetURL != "" {
		src = source.NewHTTPSource(cfg.SheetURL, cfg.Mapping)
	} else {
		src = source.NewFileSource(cfg.SheetPath, cfg.Mapping)
	}

	store, cleanup, err := openStateStore(cfg)
	if err != nil {
		log.Fatalf("failed to open state store: %v", err)
	}
	defer cleanup()

	// Load once at startup so corrupt state fails fast rather than on the
	// first tick.
	states, err := store.Load(context.Background())
	if err != nil {
		log.Fatalf("failed to load state: %v", err)
	}
	log.Printf("Loaded state for %d registrant(s)", len(states))

	image, err := emailPkg.LoadInlineImage(cfg.ImagePath)
	if err != nil {
		log.Fatalf("failed to load workshop image: %v", err)
	}
	if image == nil {
		log.Printf("No workshop image at %s — sending text-only emails", cfg.ImagePath)
	}

	input := orchestrators.TickInput{
		Pattern: cfg.Pattern,
		Rules: reminder.Rules{
			Slots:     cfg.Slots,
			Tolerance: cfg.Tolerance,
			Cap:       cfg.ReminderCap,
		},
		UpcomingCount: cfg.UpcomingCount,
		Content: orchestrators.MessageContent{
			Title:    cfg.WorkshopTitle,
			JoinLink: cfg.WorkshopLink,
			HasImage: image != nil,
		},
		From:    cfg.SenderFrom,
		ReplyTo: cfg.ReplyTo,
		Image:   image,
	}
	deps := orchestrators.TickDeps{
		Source:     src,
		Sender:     sender,
		StateStore: store,
		Now:        time.Now,
		GenerateID: func() string { return uuid.New().String() },
	}

	// Ticks never overlap: a slow sheet fetch or send must not double-fire.
	var mu sync.Mutex
	tick := func() {
		mu.Lock()
		defer mu.Unlock()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		stats, err := orchestrators.ExecuteTick(ctx, states, input, deps)
		if err != nil {
			slog.Error("tick_failed", "error", err.Error())
			return
		}
		if stats.RegistrationsSent+stats.RemindersSent+stats.SendFailures+stats.Cleaned > 0 {
			slog.Info("tick_done",
				"rows", stats.Rows,
				"registrations_sent", stats.RegistrationsSent,
				"reminders_sent", stats.RemindersSent,
				"send_failures", stats.SendFailures,
				"cleaned", stats.Cleaned)
		}
	}

	if *once {
		tick()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.TickCron, tick); err != nil {
		log.Fatalf("invalid TICK_CRON %q: %v", cfg.TickCron, err)
	}
	c.Start()
	log.Printf("Remindbot %s started (env=%s, schedule=%q, backend=%s)", version, cfg.Environment, cfg.TickCron, cfg.StateBackend)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down")
	<-c.Stop().Done()
}

// openStateStore builds the configured persistence backend. The returned
// cleanup releases backend resources and is safe to call once.
func openStateStore(cfg *config.Config) (stateStore.Store, func(), error) {
	switch cfg.StateBackend {
	case config.BackendSQLite:
		dbPath := filepath.Join(cfg.StateDir, "remindbot.db")
		if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
			return nil, nil, err
		}
		dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, nil, err
		}
		st, err := stateStore.NewSQLiteStore(db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		return st, func() { db.Close() }, nil
	default:
		return stateStore.NewJSONFileStore(cfg.StateDir), func() {}, nil
	}
}
