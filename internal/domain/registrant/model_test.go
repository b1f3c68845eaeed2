package registrant

import "testing"

func TestRegistrant_Validate(t *testing.T) {
	cases := []struct {
		name string
		r    Registrant
		want error
	}{
		{"valid", Registrant{Name: "Asha Rao", Email: "asha@example.com"}, nil},
		{"empty name", Registrant{Email: "asha@example.com"}, ErrEmptyName},
		{"blank name", Registrant{Name: "   ", Email: "asha@example.com"}, ErrEmptyName},
		{"empty email", Registrant{Name: "Asha"}, ErrEmptyEmail},
		{"bad email", Registrant{Name: "Asha", Email: "not-an-address"}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.r.Validate(); err != tc.want {
				t.Errorf("Validate() = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestReminderKey(t *testing.T) {
	k := NewReminderKey("2025-06-10", "7PM")
	if k != "2025-06-10_7PM" {
		t.Errorf("key = %q", k)
	}
	if k.DateKey() != "2025-06-10" {
		t.Errorf("DateKey = %q", k.DateKey())
	}
}

// TestState_MarkRegistered_Idempotent verifies the at-most-one-registration
// invariant: only the first call reports a transition.
func TestState_MarkRegistered_Idempotent(t *testing.T) {
	var s State
	if !s.MarkRegistered() {
		t.Error("first MarkRegistered should report a transition")
	}
	if s.MarkRegistered() {
		t.Error("second MarkRegistered should be a no-op")
	}
	if !s.Registered {
		t.Error("Registered should remain true")
	}
}

// TestState_MarkReminderSent_Idempotent verifies at-most-once-per-slot.
func TestState_MarkReminderSent_Idempotent(t *testing.T) {
	var s State
	key := NewReminderKey("2025-06-10", "10AM")

	if !s.MarkReminderSent(key) {
		t.Error("first MarkReminderSent should add the key")
	}
	if s.MarkReminderSent(key) {
		t.Error("second MarkReminderSent should be a no-op")
	}
	if s.ReminderCount() != 1 {
		t.Errorf("ReminderCount = %d, want 1", s.ReminderCount())
	}
	if !s.HasReminder(key) {
		t.Error("HasReminder should report the key")
	}
	if s.HasReminder(NewReminderKey("2025-06-10", "7PM")) {
		t.Error("HasReminder should not report an absent key")
	}
}

// TestState_CleanupBefore checks that past dates leave the upcoming-queue
// while the reminder audit trail is untouched.
func TestState_CleanupBefore(t *testing.T) {
	s := State{
		Registered:    true,
		RemindersSent: []ReminderKey{"2025-06-08_7PM"},
		Upcoming:      []string{"2025-06-08", "2025-06-10", "2025-06-13"},
	}

	removed := s.CleanupBefore("2025-06-10")
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if len(s.Upcoming) != 2 || s.Upcoming[0] != "2025-06-10" || s.Upcoming[1] != "2025-06-13" {
		t.Errorf("Upcoming = %v", s.Upcoming)
	}
	if len(s.RemindersSent) != 1 {
		t.Errorf("RemindersSent pruned: %v", s.RemindersSent)
	}

	// Cleanup is idempotent once past dates are gone.
	if removed := s.CleanupBefore("2025-06-10"); removed != 0 {
		t.Errorf("second cleanup removed %d", removed)
	}
}

func TestState_TopUpUpcoming(t *testing.T) {
	s := State{Upcoming: []string{"2025-06-10"}}
	window := []string{"2025-06-10", "2025-06-13", "2025-06-15", "2025-06-17"}

	s.TopUpUpcoming(window, 3)
	want := []string{"2025-06-10", "2025-06-13", "2025-06-15"}
	if len(s.Upcoming) != len(want) {
		t.Fatalf("Upcoming = %v, want %v", s.Upcoming, want)
	}
	for i := range want {
		if s.Upcoming[i] != want[i] {
			t.Fatalf("Upcoming = %v, want %v", s.Upcoming, want)
		}
	}

	// Strictly increasing: a window date at or before the queue tail is skipped.
	s = State{Upcoming: []string{"2025-06-13"}}
	s.TopUpUpcoming([]string{"2025-06-10", "2025-06-15"}, 3)
	if len(s.Upcoming) != 2 || s.Upcoming[1] != "2025-06-15" {
		t.Errorf("Upcoming = %v, want [2025-06-13 2025-06-15]", s.Upcoming)
	}

	// At target size nothing is added.
	s = State{Upcoming: []string{"2025-06-10", "2025-06-13", "2025-06-15"}}
	s.TopUpUpcoming([]string{"2025-06-17"}, 3)
	if len(s.Upcoming) != 3 {
		t.Errorf("Upcoming grew past target: %v", s.Upcoming)
	}
}
