package registrant

import (
	"errors"
	"net/mail"
	"strings"
)

// Domain errors
var (
	ErrEmptyName    = errors.New("registrant name is required")
	ErrEmptyEmail   = errors.New("registrant email is required")
	ErrInvalidEmail = errors.New("registrant email is not a valid address")
)

// Registrant is one row from the external source: a display name and an
// email address. Registrants are re-read every tick and never persisted.
type Registrant struct {
	Name  string
	Email string
}

// Validate checks that the registrant can be contacted.
// PRE: fields may be empty (validation will catch this)
// POST: Returns nil if valid, a domain error otherwise
func (r Registrant) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(r.Email) == "" {
		return ErrEmptyEmail
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ReminderKey deduplicates reminder sends: one key per
// (occurrence date, slot label) pair, e.g. "2025-06-10_7PM".
type ReminderKey string

// NewReminderKey builds the key for an occurrence date and slot label.
func NewReminderKey(dateKey, slotLabel string) ReminderKey {
	return ReminderKey(dateKey + "_" + slotLabel)
}

// DateKey returns the occurrence-date portion of the key.
func (k ReminderKey) DateKey() string {
	if i := strings.IndexByte(string(k), '_'); i >= 0 {
		return string(k)[:i]
	}
	return string(k)
}

// State is the durable per-registrant record. It is append-mostly: only
// CleanupBefore removes entries, and only from the upcoming-queue.
type State struct {
	// Registered is set once the confirmation email has been delivered.
	// Never cleared.
	Registered bool
	// RemindersSent is the audit trail of delivered reminders. Grows
	// monotonically; survives cleanup of past occurrences.
	RemindersSent []ReminderKey
	// Upcoming is the personal rolling window of occurrence dates
	// (YYYY-MM-DD), strictly increasing, assigned at first contact and
	// advanced as occurrences pass.
	Upcoming []string
}

// MarkRegistered records a delivered confirmation email.
// PRE: none
// POST: Registered is true; returns true only on the first call
func (s *State) MarkRegistered() bool {
	if s.Registered {
		return false
	}
	s.Registered = true
	return true
}

// HasReminder reports whether a reminder was already delivered for the key.
func (s *State) HasReminder(key ReminderKey) bool {
	for _, k := range s.RemindersSent {
		if k == key {
			return true
		}
	}
	return false
}

// MarkReminderSent records a delivered reminder.
// PRE: none
// POST: key is present exactly once; returns true only when newly added
func (s *State) MarkReminderSent(key ReminderKey) bool {
	if s.HasReminder(key) {
		return false
	}
	s.RemindersSent = append(s.RemindersSent, key)
	return true
}

// ReminderCount returns the number of reminders delivered so far, across
// all occurrences and slots. The per-registrant cap is checked against this.
func (s *State) ReminderCount() int {
	return len(s.RemindersSent)
}

// HasUpcoming reports whether dateKey is in the personal upcoming-queue.
func (s *State) HasUpcoming(dateKey string) bool {
	for _, d := range s.Upcoming {
		if d == dateKey {
			return true
		}
	}
	return false
}

// CleanupBefore drops occurrence dates strictly before today (YYYY-MM-DD,
// lexicographic order matches chronological order) from the upcoming-queue.
// RemindersSent is left intact for audit and idempotence.
// PRE: today is a YYYY-MM-DD date key
// POST: every remaining Upcoming date is >= today; returns number removed
func (s *State) CleanupBefore(today string) int {
	kept := s.Upcoming[:0]
	removed := 0
	for _, d := range s.Upcoming {
		if d < today {
			removed++
			continue
		}
		kept = append(kept, d)
	}
	s.Upcoming = kept
	return removed
}

// TopUpUpcoming appends dates from the schedule window until the queue holds
// target entries, preserving strict ascending order and skipping dates
// already present.
// PRE: window is in ascending order and contains only future dates
// POST: len(Upcoming) == min(target, len distinct dates available)
func (s *State) TopUpUpcoming(window []string, target int) {
	for _, d := range window {
		if len(s.Upcoming) >= target {
			return
		}
		if s.HasUpcoming(d) {
			continue
		}
		if n := len(s.Upcoming); n > 0 && d <= s.Upcoming[n-1] {
			continue
		}
		s.Upcoming = append(s.Upcoming, d)
	}
}
