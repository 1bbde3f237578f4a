package config

import (
	"errors"
	"fmt"
	"regexp"
)

var isinPattern = regexp.MustCompile(`^[A-Z0-9]{12}$`)

// Validate checks that all required fields are set and values are valid.
// Instrument entries that fail validation are rejected here so they never
// reach the scheduler.
func (c *ServiceConfig) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}

	if c.Scheduler.BackoffCap < c.Scheduler.BackoffBase {
		return fmt.Errorf("scheduler.backoff_cap (%v) cannot be below backoff_base (%v)",
			c.Scheduler.BackoffCap, c.Scheduler.BackoffBase)
	}
	if c.Scheduler.DegradedThreshold < 1 {
		return errors.New("scheduler.degraded_threshold must be >= 1")
	}

	if c.Database != nil {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
		if c.Recorder.BufferSize < 1 {
			return errors.New("recorder.buffer_size must be >= 1")
		}
	}

	if len(c.Instruments) == 0 {
		return errors.New("at least one instrument is required")
	}
	seen := make(map[string]bool, len(c.Instruments))
	for i, inst := range c.Instruments {
		if err := inst.validate(); err != nil {
			return fmt.Errorf("instruments[%d]: %w", i, err)
		}
		key := inst.Key().String()
		if seen[key] {
			return fmt.Errorf("instruments[%d]: duplicate entry %s", i, key)
		}
		seen[key] = true
	}

	return nil
}

func (i InstrumentConfig) validate() error {
	if !isinPattern.MatchString(i.ISIN) {
		return fmt.Errorf("isin %q must be 12 uppercase alphanumeric characters", i.ISIN)
	}
	if i.Exchange == "" {
		return errors.New("exchange is required")
	}
	if i.Currency == "" {
		return errors.New("currency is required")
	}
	if i.IntervalSeconds < 1 {
		return fmt.Errorf("interval_seconds must be >= 1, got %d", i.IntervalSeconds)
	}
	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
