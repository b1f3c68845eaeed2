// Package reminder decides which notifications are due for a registrant at
// a given instant. The decision is pure: dispatch and persistence are the
// tick orchestrator's job.
package reminder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"remindbot/internal/domain/occurrence"
	"remindbot/internal/domain/registrant"
)

// DefaultTolerance is the symmetric window around a slot's trigger time.
const DefaultTolerance = 10 * time.Minute

// Notification kinds.
const (
	KindRegistration = "registration"
	KindReminder     = "reminder"
)

var errBadSlot = errors.New("slot must be HH:MM or HH:MM=label")

// Slot is a named time-of-day at which a reminder may fire on an occurrence
// day, in the workshop's time zone.
type Slot struct {
	Label  string // reminder-key component, e.g. "10AM", "7PM"
	Hour   int
	Minute int
}

// InWindow reports whether now falls within ±tolerance of the slot's
// trigger time on now's own day.
// PRE: now is in the workshop time zone
// POST: true iff |now - trigger| <= tolerance
func (s Slot) InWindow(now time.Time, tolerance time.Duration) bool {
	trigger := time.Date(now.Year(), now.Month(), now.Day(), s.Hour, s.Minute, 0, 0, now.Location())
	diff := now.Sub(trigger)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}

// DefaultSlots mirrors the observed schedule: a morning heads-up and a
// one-hour-before nudge.
func DefaultSlots() []Slot {
	return []Slot{
		{Label: "10AM", Hour: 10, Minute: 0},
		{Label: "7PM", Hour: 19, Minute: 0},
	}
}

// ParseSlots parses a comma-separated slot list such as
// "10:00=10AM,19:00=7PM". A slot without "=label" uses the HH:MM string as
// its label.
// PRE: none
// POST: Returns at least one slot or an error naming the bad token
func ParseSlots(s string) ([]Slot, error) {
	var slots []Slot
	seen := make(map[string]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		spec, label, hasLabel := strings.Cut(tok, "=")
		hh, mm, ok := strings.Cut(spec, ":")
		if !ok {
			return nil, fmt.Errorf("%w: %q", errBadSlot, tok)
		}
		hour, err := strconv.Atoi(hh)
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("%w: %q", errBadSlot, tok)
		}
		minute, err := strconv.Atoi(mm)
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("%w: %q", errBadSlot, tok)
		}
		if !hasLabel || strings.TrimSpace(label) == "" {
			label = spec
		}
		label = strings.TrimSpace(label)
		if seen[label] {
			return nil, fmt.Errorf("duplicate slot label %q", label)
		}
		seen[label] = true
		slots = append(slots, Slot{Label: label, Hour: hour, Minute: minute})
	}
	if len(slots) == 0 {
		return nil, errors.New("at least one reminder slot is required")
	}
	return slots, nil
}

// Notification is one due send, decided but not yet dispatched.
type Notification struct {
	Kind string
	// Occurrence is set for reminders: the same-day occurrence the slot
	// refers to.
	Occurrence occurrence.Occurrence
	Slot       Slot
	Key        registrant.ReminderKey
}

// Rules carries the decision parameters for a tick.
type Rules struct {
	Slots     []Slot
	Tolerance time.Duration
	// Cap bounds the total reminders ever sent to one registrant, counted
	// across all occurrences and slots. Zero means unlimited.
	Cap int
}

// Decide returns the notifications due now for one registrant, given its
// stored state and the current occurrence window. The rules per tick:
//
//   - registration is due once, whenever Registered is false;
//   - a reminder is due for slot S when now is inside S's window, today is
//     an occurrence day in the registrant's upcoming-queue, the
//     (date, slot) key has not been sent, and the cap is not exhausted.
//
// POST: at most one registration and one reminder per slot are returned;
// state is not mutated
func Decide(now time.Time, state registrant.State, window []occurrence.Occurrence, rules Rules) []Notification {
	var due []Notification

	if !state.Registered {
		due = append(due, Notification{Kind: KindRegistration})
	}

	today, ok := todaysOccurrence(now, window)
	if !ok {
		return due
	}
	if !state.HasUpcoming(today.DateKey()) {
		return due
	}

	tolerance := rules.Tolerance
	if tolerance == 0 {
		tolerance = DefaultTolerance
	}

	sent := state.ReminderCount()
	for _, slot := range rules.Slots {
		if !slot.InWindow(now, tolerance) {
			continue
		}
		key := registrant.NewReminderKey(today.DateKey(), slot.Label)
		if state.HasReminder(key) {
			continue
		}
		if rules.Cap > 0 && sent >= rules.Cap {
			break
		}
		due = append(due, Notification{
			Kind:       KindReminder,
			Occurrence: today,
			Slot:       slot,
			Key:        key,
		})
		sent++
	}
	return due
}

// todaysOccurrence finds the occurrence in the window whose date matches
// now's calendar day.
func todaysOccurrence(now time.Time, window []occurrence.Occurrence) (occurrence.Occurrence, bool) {
	todayKey := now.Format(occurrence.DateLayout)
	for _, o := range window {
		if o.DateKey() == todayKey {
			return o, true
		}
	}
	return occurrence.Occurrence{}, false
}
