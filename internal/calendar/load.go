package calendar

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the YAML document shape for a calendar file.
type File struct {
	Exchanges map[string]ExchangeSpec `yaml:"exchanges"`
}

// ExchangeSpec describes one exchange's hours in a calendar file.
type ExchangeSpec struct {
	Name     string `yaml:"name"`
	TZ       string `yaml:"tz"`
	Realtime bool   `yaml:"realtime"`

	// HoursDefined is the has-defined-hours flag. When omitted it defaults
	// to true if any sessions are configured, false otherwise.
	HoursDefined *bool `yaml:"hours_defined"`

	// Sessions keys are lowercase weekday abbreviations (mon..sun).
	// Missing days are closed.
	Sessions map[string]Window `yaml:"sessions"`

	Exceptions []ExceptionSpec `yaml:"exceptions"`
}

// Window is an open/close pair in local HH:MM form.
type Window struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// ExceptionSpec overrides or cancels a session for one local date.
type ExceptionSpec struct {
	Date   string `yaml:"date"` // YYYY-MM-DD in the exchange timezone
	Closed bool   `yaml:"closed"`
	Open   string `yaml:"open"`
	Close  string `yaml:"close"`
}

var weekdayKeys = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
	"sun": time.Sunday,
}

// LoadFile reads a YAML calendar file.
func LoadFile(path string) (*Calendar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calendar file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse calendar yaml: %w", err)
	}

	return New(f)
}

// New builds a Calendar from a parsed file.
func New(f File) (*Calendar, error) {
	c := &Calendar{entries: make(map[string]*entry, len(f.Exchanges))}

	for code, spec := range f.Exchanges {
		e, err := buildEntry(spec)
		if err != nil {
			return nil, fmt.Errorf("exchange %s: %w", code, err)
		}
		c.entries[code] = e
	}
	return c, nil
}

func buildEntry(spec ExchangeSpec) (*entry, error) {
	tzName := spec.TZ
	if tzName == "" {
		tzName = "UTC"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tzName, err)
	}

	e := &entry{
		name:       spec.Name,
		tz:         tz,
		realtime:   spec.Realtime,
		exceptions: make(map[string]*session),
		hasExcept:  make(map[string]bool),
	}

	haveSessions := false
	for key, win := range spec.Sessions {
		wd, ok := weekdayKeys[key]
		if !ok {
			return nil, fmt.Errorf("unknown weekday key %q", key)
		}
		if win.Open == "" || win.Close == "" {
			continue // closed that day
		}
		s, err := buildSession(win)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		e.week[int(wd)] = s
		haveSessions = true
	}

	if spec.HoursDefined != nil {
		e.defined = *spec.HoursDefined
	} else {
		e.defined = haveSessions
	}

	for _, ex := range spec.Exceptions {
		if _, err := time.Parse("2006-01-02", ex.Date); err != nil {
			return nil, fmt.Errorf("exception date %q: %w", ex.Date, err)
		}
		e.hasExcept[ex.Date] = true
		if ex.Closed || ex.Open == "" || ex.Close == "" {
			e.exceptions[ex.Date] = nil
			continue
		}
		s, err := buildSession(Window{Open: ex.Open, Close: ex.Close})
		if err != nil {
			return nil, fmt.Errorf("exception %s: %w", ex.Date, err)
		}
		e.exceptions[ex.Date] = s
	}

	return e, nil
}

func buildSession(win Window) (*session, error) {
	open, err := parseMinute(win.Open)
	if err != nil {
		return nil, err
	}
	cls, err := parseMinute(win.Close)
	if err != nil {
		return nil, err
	}
	return &session{open: open, close: cls}, nil
}
