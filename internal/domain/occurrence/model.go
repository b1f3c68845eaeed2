package occurrence

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// DateLayout is the canonical date key format used in reminder keys and
// persisted upcoming-queues.
const DateLayout = "2006-01-02"

// scanDaysPerOccurrence bounds the forward scan. A non-empty weekly pattern
// always yields a match within 8 days, so exceeding the bound means the
// fallback path is taken rather than looping forever.
const scanDaysPerOccurrence = 8

// Domain errors
var (
	ErrNoWeekdays  = errors.New("pattern must include at least one weekday")
	ErrInvalidHour = errors.New("pattern hour must be between 0 and 23")
	ErrNoLocation  = errors.New("pattern location is required")
	ErrBadCount    = errors.New("occurrence count must be positive")
)

// Occurrence is one concrete future instance of the recurring weekly event.
type Occurrence struct {
	Start time.Time
}

// DateKey returns the occurrence date formatted as YYYY-MM-DD in the
// occurrence's own location.
// PRE: Start is set
// POST: Returns the date portion only; the hour is not encoded
func (o Occurrence) DateKey() string {
	return o.Start.Format(DateLayout)
}

// Pattern describes the weekly recurrence: a fixed set of weekdays at a
// fixed hour in a fixed time zone.
type Pattern struct {
	Weekdays map[time.Weekday]bool
	Hour     int
	Location *time.Location
}

// Validate checks that the Pattern can generate occurrences.
// PRE: none
// POST: Returns nil if valid, a domain error otherwise
func (p Pattern) Validate() error {
	if len(p.Weekdays) == 0 {
		return ErrNoWeekdays
	}
	if p.Hour < 0 || p.Hour > 23 {
		return ErrInvalidHour
	}
	if p.Location == nil {
		return ErrNoLocation
	}
	return nil
}

// Next returns the next count occurrences strictly after from, in
// chronological order. The scan walks forward day by day starting at from's
// own day; a candidate qualifies when its weekday is in the set, and the
// occurrence instant is that day at Hour:00:00 in the pattern's location.
// If the bounded scan comes up short (cannot happen for a valid weekly
// pattern), remaining occurrences are filled in one week after the last
// found.
// PRE: p is valid; count > 0
// POST: Result is strictly increasing and every instant is after from
func (p Pattern) Next(from time.Time, count int) ([]Occurrence, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, ErrBadCount
	}

	local := from.In(p.Location)
	out := make([]Occurrence, 0, count)

	horizon := scanDaysPerOccurrence * count
	for offset := 0; offset < horizon && len(out) < count; offset++ {
		day := local.AddDate(0, 0, offset)
		if !p.Weekdays[day.Weekday()] {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), p.Hour, 0, 0, 0, p.Location)
		if !start.After(from) {
			continue
		}
		out = append(out, Occurrence{Start: start})
	}

	// Defensive fallback: extend weekly from the last match.
	for len(out) < count {
		var base time.Time
		if len(out) > 0 {
			base = out[len(out)-1].Start
		} else {
			base = time.Date(local.Year(), local.Month(), local.Day(), p.Hour, 0, 0, 0, p.Location)
		}
		out = append(out, Occurrence{Start: base.AddDate(0, 0, 7)})
	}

	return out, nil
}

// DateKeys returns the DateKey of each occurrence, preserving order.
func DateKeys(occs []Occurrence) []string {
	keys := make([]string, len(occs))
	for i, o := range occs {
		keys[i] = o.DateKey()
	}
	return keys
}

// weekdayNames maps accepted configuration spellings to weekdays.
var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekdays parses a comma-separated weekday list such as
// "tue,fri,sun" into a weekday set.
// PRE: none
// POST: Returns a non-empty set or an error naming the bad token
func ParseWeekdays(s string) (map[time.Weekday]bool, error) {
	set := make(map[time.Weekday]bool)
	for _, tok := range strings.Split(s, ",") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		day, ok := weekdayNames[tok]
		if !ok {
			return nil, errors.New("unknown weekday: " + tok)
		}
		set[day] = true
	}
	if len(set) == 0 {
		return nil, ErrNoWeekdays
	}
	return set, nil
}

// FormatWeekdays renders a weekday set in Sunday-first order, for logging.
func FormatWeekdays(set map[time.Weekday]bool) string {
	days := make([]int, 0, len(set))
	for d := range set {
		days = append(days, int(d))
	}
	sort.Ints(days)
	names := make([]string, len(days))
	for i, d := range days {
		names[i] = time.Weekday(d).String()[:3]
	}
	return strings.Join(names, ",")
}
