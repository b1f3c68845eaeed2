package reminder

import (
	"testing"
	"time"

	"remindbot/internal/domain/occurrence"
	"remindbot/internal/domain/registrant"
)

func kolkata(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// windowFor builds an occurrence window starting at the given instant using
// the {Tue,Fri,Sun}@20:00 pattern.
func windowFor(t *testing.T, from time.Time) []occurrence.Occurrence {
	t.Helper()
	p := occurrence.Pattern{
		Weekdays: map[time.Weekday]bool{time.Tuesday: true, time.Friday: true, time.Sunday: true},
		Hour:     20,
		Location: from.Location(),
	}
	occs, err := p.Next(from, 3)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	return occs
}

func registeredState(dates ...string) registrant.State {
	return registrant.State{Registered: true, Upcoming: dates}
}

func TestSlot_InWindow(t *testing.T) {
	loc := kolkata(t)
	slot := Slot{Label: "7PM", Hour: 19}

	cases := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exact", time.Date(2025, 6, 10, 19, 0, 0, 0, loc), true},
		{"nine before", time.Date(2025, 6, 10, 18, 51, 0, 0, loc), true},
		{"ten after", time.Date(2025, 6, 10, 19, 10, 0, 0, loc), true},
		{"eleven after", time.Date(2025, 6, 10, 19, 11, 0, 0, loc), false},
		{"wrong hour", time.Date(2025, 6, 10, 10, 0, 0, 0, loc), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := slot.InWindow(tc.now, DefaultTolerance); got != tc.want {
				t.Errorf("InWindow(%s) = %v, want %v", tc.now, got, tc.want)
			}
		})
	}
}

func TestParseSlots(t *testing.T) {
	slots, err := ParseSlots("10:00=10AM, 19:00=7PM")
	if err != nil {
		t.Fatalf("ParseSlots: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("got %d slots", len(slots))
	}
	if slots[0].Label != "10AM" || slots[0].Hour != 10 || slots[0].Minute != 0 {
		t.Errorf("slot 0 = %+v", slots[0])
	}
	if slots[1].Label != "7PM" || slots[1].Hour != 19 {
		t.Errorf("slot 1 = %+v", slots[1])
	}

	// Label defaults to the HH:MM spec.
	slots, err = ParseSlots("08:30")
	if err != nil {
		t.Fatalf("ParseSlots: %v", err)
	}
	if slots[0].Label != "08:30" || slots[0].Minute != 30 {
		t.Errorf("slot = %+v", slots[0])
	}

	for _, bad := range []string{"", "25:00", "10:99", "ten", "10:00=x,10:30=x"} {
		if _, err := ParseSlots(bad); err == nil {
			t.Errorf("ParseSlots(%q): expected error", bad)
		}
	}
}

// TestDecide_Registration checks that an unregistered state always yields a
// registration notification and a registered one never does.
func TestDecide_Registration(t *testing.T) {
	loc := kolkata(t)
	now := time.Date(2025, 6, 9, 9, 0, 0, 0, loc) // Monday, no slot window
	window := windowFor(t, now)
	rules := Rules{Slots: DefaultSlots(), Cap: 3}

	due := Decide(now, registrant.State{}, window, rules)
	if len(due) != 1 || due[0].Kind != KindRegistration {
		t.Fatalf("unregistered: due = %+v", due)
	}

	due = Decide(now, registeredState(), window, rules)
	if len(due) != 0 {
		t.Fatalf("registered on a quiet Monday: due = %+v", due)
	}
}

// TestDecide_ReminderWindow covers the canonical scenario: occurrence day,
// 19:00 within tolerance, registered, nothing sent yet.
func TestDecide_ReminderWindow(t *testing.T) {
	loc := kolkata(t)
	now := time.Date(2025, 6, 10, 19, 5, 0, 0, loc) // Tuesday 19:05
	window := windowFor(t, now)
	state := registeredState("2025-06-10", "2025-06-13", "2025-06-15")
	rules := Rules{Slots: DefaultSlots(), Cap: 3}

	due := Decide(now, state, window, rules)
	if len(due) != 1 {
		t.Fatalf("due = %+v", due)
	}
	n := due[0]
	if n.Kind != KindReminder || n.Slot.Label != "7PM" {
		t.Errorf("notification = %+v", n)
	}
	if n.Key != registrant.NewReminderKey("2025-06-10", "7PM") {
		t.Errorf("key = %q", n.Key)
	}
	if n.Occurrence.DateKey() != "2025-06-10" {
		t.Errorf("occurrence = %s", n.Occurrence.DateKey())
	}
}

// TestDecide_Dedup verifies that a sent key suppresses the slot on
// subsequent ticks.
func TestDecide_Dedup(t *testing.T) {
	loc := kolkata(t)
	now := time.Date(2025, 6, 10, 19, 5, 0, 0, loc)
	window := windowFor(t, now)
	state := registeredState("2025-06-10")
	state.MarkReminderSent(registrant.NewReminderKey("2025-06-10", "7PM"))
	rules := Rules{Slots: DefaultSlots(), Cap: 3}

	if due := Decide(now, state, window, rules); len(due) != 0 {
		t.Fatalf("due after send = %+v", due)
	}
}

// TestDecide_Cap verifies the total-reminder cap regardless of remaining
// slots and occurrences.
func TestDecide_Cap(t *testing.T) {
	loc := kolkata(t)
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, loc) // Sunday 10:00
	window := windowFor(t, now)
	state := registeredState("2025-06-15")
	state.MarkReminderSent(registrant.NewReminderKey("2025-06-10", "10AM"))
	state.MarkReminderSent(registrant.NewReminderKey("2025-06-10", "7PM"))
	state.MarkReminderSent(registrant.NewReminderKey("2025-06-13", "7PM"))

	due := Decide(now, state, window, Rules{Slots: DefaultSlots(), Cap: 3})
	if len(due) != 0 {
		t.Fatalf("due at cap = %+v", due)
	}

	// Cap zero means unlimited.
	due = Decide(now, state, window, Rules{Slots: DefaultSlots(), Cap: 0})
	if len(due) != 1 {
		t.Fatalf("due with unlimited cap = %+v", due)
	}
}

// TestDecide_NotOnQueueDate: a same-day occurrence outside the registrant's
// personal upcoming-queue does not trigger reminders.
func TestDecide_NotOnQueueDate(t *testing.T) {
	loc := kolkata(t)
	now := time.Date(2025, 6, 10, 19, 0, 0, 0, loc)
	window := windowFor(t, now)
	state := registeredState("2025-06-13", "2025-06-15")

	if due := Decide(now, state, window, Rules{Slots: DefaultSlots(), Cap: 3}); len(due) != 0 {
		t.Fatalf("due = %+v", due)
	}
}

// TestDecide_NonOccurrenceDay: slot windows on an off day do nothing.
func TestDecide_NonOccurrenceDay(t *testing.T) {
	loc := kolkata(t)
	now := time.Date(2025, 6, 11, 19, 0, 0, 0, loc) // Wednesday
	window := windowFor(t, now)
	state := registeredState("2025-06-13")

	if due := Decide(now, state, window, Rules{Slots: DefaultSlots(), Cap: 3}); len(due) != 0 {
		t.Fatalf("due = %+v", due)
	}
}
