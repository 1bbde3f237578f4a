package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the session state of an exchange at an instant.
type Status int

const (
	// Open means the instant falls inside a trading session.
	Open Status = iota

	// Closed means the instant falls outside all trading sessions.
	Closed

	// Unknown means the exchange has no calendar entry at all. Callers must
	// treat Unknown like Open and keep polling.
	Unknown
)

func (s Status) String() string {
	switch s {
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// minuteOfDay is a wall-clock time as minutes since local midnight.
type minuteOfDay int

func parseMinute(s string) (minuteOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hh, err := strconv.Atoi(h)
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(m)
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return minuteOfDay(hh*60 + mm), nil
}

// session is one trading window. Close at or before open means the session
// spans midnight into the next day.
type session struct {
	open  minuteOfDay
	close minuteOfDay
}

// entry is the calendar data for one exchange.
type entry struct {
	name     string
	tz       *time.Location
	defined  bool // has-defined-hours
	realtime bool

	// week holds the recurring session per weekday, nil = closed that day.
	week [7]*session

	// exceptions maps local dates (YYYY-MM-DD) to an override session;
	// a nil value cancels the session for that date.
	exceptions map[string]*session
	hasExcept  map[string]bool
}

// Calendar maps exchange codes to their session tables.
type Calendar struct {
	entries map[string]*entry
}

// Realtime reports whether the exchange is flagged for the shorter
// open-market poll interval. Without defined hours the user-configured
// interval governs exclusively, so the flag only counts alongside them.
func (c *Calendar) Realtime(exchange string) bool {
	e, ok := c.entries[exchange]
	return ok && e.realtime && e.defined
}

// Name returns the display name for an exchange code, or the code itself.
func (c *Calendar) Name(exchange string) string {
	if e, ok := c.entries[exchange]; ok && e.name != "" {
		return e.name
	}
	return exchange
}

// Status reports the session state of the exchange at instant t.
func (c *Calendar) Status(exchange string, t time.Time) Status {
	e, ok := c.entries[exchange]
	if !ok {
		return Unknown
	}
	if !e.defined {
		return Open
	}
	if _, inside := e.containing(t); inside {
		return Open
	}
	return Closed
}

// NextBoundary returns the next instant at which Status could change: the
// close of the containing session when open, else the next session open.
// ok is false when the exchange is unknown, always open, or no session
// starts within the lookahead horizon.
func (c *Calendar) NextBoundary(exchange string, t time.Time) (next time.Time, ok bool) {
	e, okEntry := c.entries[exchange]
	if !okEntry || !e.defined {
		return time.Time{}, false
	}

	if closeAt, inside := e.containing(t); inside {
		return closeAt, true
	}

	// Closed: scan forward day by day for the next session open. Two weeks
	// covers any weekday pattern plus a holiday cluster.
	local := t.In(e.tz)
	for day := 0; day <= 14; day++ {
		d := local.AddDate(0, 0, day)
		s := e.sessionFor(d)
		if s == nil {
			continue
		}
		openAt := atMinute(d, s.open, e.tz)
		if openAt.After(t) {
			return openAt, true
		}
	}
	return time.Time{}, false
}

// containing returns the close instant of the session containing t, if any.
// Sessions from the previous local day that span midnight are considered.
func (e *entry) containing(t time.Time) (closeAt time.Time, inside bool) {
	local := t.In(e.tz)
	for _, day := range []time.Time{local.AddDate(0, 0, -1), local} {
		s := e.sessionFor(day)
		if s == nil {
			continue
		}
		openAt := atMinute(day, s.open, e.tz)
		end := atMinute(day, s.close, e.tz)
		if s.close <= s.open {
			end = end.AddDate(0, 0, 1)
		}
		if !t.Before(openAt) && t.Before(end) {
			return end, true
		}
	}
	return time.Time{}, false
}

// sessionFor resolves the session for a local date, with exception dates
// taking precedence over the recurring weekday table.
func (e *entry) sessionFor(day time.Time) *session {
	date := day.Format("2006-01-02")
	if e.hasExcept[date] {
		return e.exceptions[date]
	}
	return e.week[int(day.Weekday())]
}

func atMinute(day time.Time, m minuteOfDay, tz *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), int(m)/60, int(m)%60, 0, 0, tz)
}
