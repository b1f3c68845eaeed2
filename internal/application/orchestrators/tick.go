package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"remindbot/internal/adapters/email"
	"remindbot/internal/adapters/source"
	"remindbot/internal/adapters/storage/state"
	"remindbot/internal/domain/occurrence"
	"remindbot/internal/domain/registrant"
	"remindbot/internal/domain/reminder"
)

// TickInput carries the schedule and message parameters for one evaluation
// pass.
type TickInput struct {
	Pattern occurrence.Pattern
	Rules   reminder.Rules
	// UpcomingCount is the target size of each registrant's personal
	// rolling window of occurrence dates.
	UpcomingCount int

	Content MessageContent
	From    string
	ReplyTo string
	Image   *email.InlineImage
}

// TickDeps holds external dependencies for ExecuteTick.
type TickDeps struct {
	Source     source.Source
	Sender     email.Sender
	StateStore state.Store
	Now        func() time.Time
	GenerateID func() string
}

// TickStats summarizes one tick for logging.
type TickStats struct {
	Rows              int
	RegistrationsSent int
	RemindersSent     int
	SendFailures      int
	Cleaned           int
}

// ExecuteTick runs one evaluation pass: cleanup past occurrences, recompute
// the occurrence window, re-read the registrant sheet, decide and dispatch
// due notifications, and persist state after every successful send.
// PRE: states is the current in-memory snapshot (loaded at startup)
// POST: states reflects every confirmed send; each confirmed send was
// persisted before the tick moved on. A tick with nothing due and nothing
// cleaned performs no writes.
func ExecuteTick(ctx context.Context, states map[string]registrant.State, input TickInput, deps TickDeps) (TickStats, error) {
	now := deps.Now().In(input.Pattern.Location)
	today := now.Format(occurrence.DateLayout)
	var stats TickStats
	dirty := false

	// 1. Cleanup: drop past dates from every personal upcoming-queue.
	for addr, st := range states {
		if removed := st.CleanupBefore(today); removed > 0 {
			stats.Cleaned += removed
			dirty = true
		}
		states[addr] = st
	}

	// 2. Current occurrence window.
	window, err := input.Pattern.Next(now, input.UpcomingCount)
	if err != nil {
		return stats, fmt.Errorf("compute occurrence window: %w", err)
	}
	windowDates := occurrence.DateKeys(window)

	// 3. Full re-read of the registrant sheet.
	rows, err := deps.Source.Rows(ctx)
	if err != nil {
		return stats, fmt.Errorf("read registrants: %w", err)
	}
	stats.Rows = len(rows)

	// 4. Decide and dispatch per registrant.
	for _, reg := range rows {
		if err := reg.Validate(); err != nil {
			slog.Warn("registrant_skipped", "email", reg.Email, "reason", err.Error())
			continue
		}

		st := states[reg.Email]
		before := len(st.Upcoming)
		st.TopUpUpcoming(windowDates, input.UpcomingCount)
		if len(st.Upcoming) != before {
			dirty = true
		}
		states[reg.Email] = st

		for _, due := range reminder.Decide(now, st, window, input.Rules) {
			sent, err := dispatch(ctx, reg, st, due, input, deps)
			if err != nil {
				stats.SendFailures++
				slog.Error("send_failed", "kind", due.Kind, "to", reg.Email, "error", err.Error())
				continue
			}

			switch due.Kind {
			case reminder.KindRegistration:
				st.MarkRegistered()
				stats.RegistrationsSent++
			case reminder.KindReminder:
				st.MarkReminderSent(due.Key)
				stats.RemindersSent++
			}
			states[reg.Email] = st

			// Persist immediately so a crash cannot replay this send.
			if err := deps.StateStore.Save(ctx, states); err != nil {
				return stats, fmt.Errorf("persist state after send: %w", err)
			}
			dirty = false

			slog.Info("send_ok",
				"notification_id", sent,
				"kind", due.Kind,
				"to", reg.Email,
				"key", string(due.Key))
		}
	}

	// 5. Persist leftover mutations (cleanup, queue top-ups).
	if dirty {
		if err := deps.StateStore.Save(ctx, states); err != nil {
			return stats, fmt.Errorf("persist state: %w", err)
		}
	}

	return stats, nil
}

// dispatch composes and sends one notification, returning its ID.
func dispatch(ctx context.Context, reg registrant.Registrant, st registrant.State, due reminder.Notification, input TickInput, deps TickDeps) (string, error) {
	var subject, html string
	switch due.Kind {
	case reminder.KindRegistration:
		upcoming := upcomingOccurrences(st, input.Pattern, deps.Now())
		subject, html = registrationEmail(reg.Name, upcoming, input.Content)
	case reminder.KindReminder:
		subject, html = reminderEmail(reg.Name, due, input.Content)
	default:
		return "", fmt.Errorf("unknown notification kind %q", due.Kind)
	}

	id := deps.GenerateID()
	_, err := deps.Sender.Send(ctx, email.SendRequest{
		To:      reg.Email,
		From:    input.From,
		ReplyTo: input.ReplyTo,
		Subject: subject,
		HTML:    html,
		Image:   input.Image,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// upcomingOccurrences resolves the registrant's personal queue dates back to
// occurrence instants for the confirmation email's schedule list.
func upcomingOccurrences(st registrant.State, pattern occurrence.Pattern, now time.Time) []occurrence.Occurrence {
	// The queue was just topped up from the same pattern, so generating a
	// generous window and filtering by membership reconstructs it.
	window, err := pattern.Next(now, len(st.Upcoming)+3)
	if err != nil {
		return nil
	}
	var out []occurrence.Occurrence
	for _, o := range window {
		if st.HasUpcoming(o.DateKey()) {
			out = append(out, o)
		}
	}
	return out
}
