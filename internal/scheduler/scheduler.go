package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AndrewSteel/isin-quotes/internal/api"
	"github.com/AndrewSteel/isin-quotes/internal/calendar"
	"github.com/AndrewSteel/isin-quotes/internal/model"
	"github.com/AndrewSteel/isin-quotes/internal/quote"
)

// Fetcher fetches one quote. *api.Client satisfies this through a small
// adapter; tests substitute their own.
type Fetcher interface {
	FetchQuote(ctx context.Context, isin, exchange string) (model.QuoteSample, error)
}

// FetcherFunc is a function adapter for Fetcher.
type FetcherFunc func(ctx context.Context, isin, exchange string) (model.QuoteSample, error)

func (f FetcherFunc) FetchQuote(ctx context.Context, isin, exchange string) (model.QuoteSample, error) {
	return f(ctx, isin, exchange)
}

// Calendar answers session-state questions. *calendar.Calendar satisfies it.
type Calendar interface {
	Status(exchange string, t time.Time) calendar.Status
	NextBoundary(exchange string, t time.Time) (time.Time, bool)
	Realtime(exchange string) bool
}

// Config holds scheduler tuning.
type Config struct {
	RealtimeInterval  time.Duration // Open-market interval on realtime exchanges (default: 15s)
	FetchTimeout      time.Duration // Per-fetch deadline (default: 10s)
	SafetyCeiling     time.Duration // Max closed-market sleep (default: 4h)
	BackoffBase       time.Duration // First retry wait (default: 30s)
	BackoffCap        time.Duration // Max retry wait (default: 30m)
	RateLimitCooldown time.Duration // Mandatory wait after throttling (default: 5m)
	DegradedThreshold int           // Consecutive failures before degraded (default: 3)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RealtimeInterval:  15 * time.Second,
		FetchTimeout:      10 * time.Second,
		SafetyCeiling:     4 * time.Hour,
		BackoffBase:       30 * time.Second,
		BackoffCap:        30 * time.Minute,
		RateLimitCooldown: 5 * time.Minute,
		DegradedThreshold: quote.DefaultDegradedThreshold,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.RealtimeInterval <= 0 {
		c.RealtimeInterval = d.RealtimeInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = d.FetchTimeout
	}
	if c.SafetyCeiling <= 0 {
		c.SafetyCeiling = d.SafetyCeiling
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = d.BackoffBase
	}
	if c.BackoffCap <= 0 {
		c.BackoffCap = d.BackoffCap
	}
	if c.RateLimitCooldown <= 0 {
		c.RateLimitCooldown = d.RateLimitCooldown
	}
	if c.DegradedThreshold <= 0 {
		c.DegradedThreshold = d.DegradedThreshold
	}
}

// Instrument is one unit of tracking work.
type Instrument struct {
	Key              model.InstrumentKey
	FallbackInterval time.Duration // User-configured interval for non-realtime exchanges
}

// InstrumentStatus is a point-in-time view of one tracked instrument.
type InstrumentStatus struct {
	ID       uuid.UUID             `json:"id"`
	Key      model.InstrumentKey   `json:"key"`
	State    model.InstrumentState `json:"state"`
	Failures int                   `json:"consecutive_failures"`
}

// Scheduler owns the tracked-instrument collection and all polling lanes.
type Scheduler struct {
	cfg     Config
	fetcher Fetcher
	cal     Calendar
	sink    quote.Sink
	logger  *slog.Logger

	// now is the clock; replaced in tests.
	now func() time.Time

	mu      sync.Mutex
	lanes   map[model.InstrumentKey]*lane
	started bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Scheduler.
func New(cfg Config, fetcher Fetcher, cal Calendar, sink quote.Sink, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	return &Scheduler{
		cfg:     cfg,
		fetcher: fetcher,
		cal:     cal,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
		lanes:   make(map[model.InstrumentKey]*lane),
	}
}

// Track registers an instrument and, once the scheduler is started, begins
// polling it immediately. Returns the subscription ID.
func (s *Scheduler) Track(inst Instrument) (uuid.UUID, error) {
	if inst.FallbackInterval <= 0 {
		return uuid.Nil, fmt.Errorf("instrument %s: fallback interval must be positive", inst.Key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.lanes[inst.Key]; exists {
		return uuid.Nil, fmt.Errorf("instrument %s already tracked", inst.Key)
	}

	l := &lane{
		id:      uuid.New(),
		inst:    inst,
		machine: quote.NewMachine(inst.Key, s.cfg.DegradedThreshold, s.sink, s.logger),
	}
	s.lanes[inst.Key] = l

	if s.started {
		s.startLane(l)
	}

	s.logger.Info("tracking instrument",
		"key", inst.Key.String(),
		"subscription", l.id,
		"fallback_interval", inst.FallbackInterval,
	)
	return l.id, nil
}

// Untrack cancels an instrument's lane. An in-flight fetch is allowed to
// finish but its result is discarded. Reports whether the key was tracked.
func (s *Scheduler) Untrack(key model.InstrumentKey) bool {
	s.mu.Lock()
	l, ok := s.lanes[key]
	if ok {
		delete(s.lanes, key)
	}
	s.mu.Unlock()

	if !ok {
		return false
	}
	if l.cancel != nil {
		l.cancel()
	}
	s.logger.Info("untracked instrument", "key", key.String(), "subscription", l.id)
	return true
}

// Start launches lanes for all tracked instruments.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("scheduler already started")
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true

	for _, l := range s.lanes {
		s.startLane(l)
	}

	s.logger.Info("scheduler started", "instruments", len(s.lanes))
	return nil
}

// Stop cancels all lanes and waits for them to drain.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the current status of every tracked instrument.
func (s *Scheduler) Snapshot() []InstrumentStatus {
	s.mu.Lock()
	lanes := make([]*lane, 0, len(s.lanes))
	for _, l := range s.lanes {
		lanes = append(lanes, l)
	}
	s.mu.Unlock()

	statuses := make([]InstrumentStatus, 0, len(lanes))
	for _, l := range lanes {
		statuses = append(statuses, l.status())
	}
	return statuses
}

// startLane spawns the lane goroutine. Caller holds s.mu.
func (s *Scheduler) startLane(l *lane) {
	laneCtx, cancel := context.WithCancel(s.ctx)
	l.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLane(laneCtx, l)
	}()
}

// runLane is the per-instrument loop: wait for the timer, act, reschedule.
// The first wake fires immediately.
func (s *Scheduler) runLane(ctx context.Context, l *lane) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		delay, park := s.wake(ctx, l)
		if park {
			// Suspended: no future wake until the configuration entry
			// is recreated.
			return
		}
		timer.Reset(delay)
	}
}

// wake runs one scheduling step and returns the delay until the next one.
// park is true when the lane must stop being scheduled.
func (s *Scheduler) wake(ctx context.Context, l *lane) (delay time.Duration, park bool) {
	now := s.now()
	key := l.inst.Key

	status := s.cal.Status(key.Exchange, now)
	if status == calendar.Closed {
		// No network call while closed; re-publish last values unchanged.
		l.republish()
		return s.closedDelay(key.Exchange, now), false
	}

	// Open or Unknown: fetch. Unknown exchanges must keep polling.
	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	sample, err := s.fetcher.FetchQuote(fetchCtx, key.ISIN, key.Exchange)
	cancel()

	if ctx.Err() != nil {
		// Lane cancelled while fetching: discard the result.
		return 0, true
	}

	if err != nil {
		return s.handleFailure(l, err)
	}

	l.applySample(sample)
	return s.effectiveInterval(l), false
}

// closedDelay sleeps to the next session boundary, capped by the safety
// ceiling so a wrong calendar can never park a lane indefinitely.
func (s *Scheduler) closedDelay(exchange string, now time.Time) time.Duration {
	next := now.Add(s.cfg.SafetyCeiling)
	if boundary, ok := s.cal.NextBoundary(exchange, now); ok && boundary.Before(next) {
		next = boundary
	}
	return next.Sub(now)
}

func (s *Scheduler) handleFailure(l *lane, err error) (time.Duration, bool) {
	key := l.inst.Key

	switch api.ErrKind(err) {
	case api.KindNotFound:
		s.logger.Warn("instrument rejected by upstream, suspending",
			"key", key.String(),
			"error", err,
		)
		l.suspend()
		return 0, true

	case api.KindRateLimited:
		// Mandatory cool-down, independent of the backoff ladder.
		s.logger.Warn("upstream rate limit, cooling down",
			"key", key.String(),
			"cooldown", s.cfg.RateLimitCooldown,
		)
		l.applyFailure()
		return s.cfg.RateLimitCooldown, false

	default:
		l.applyFailure()
		wait := backoff(s.cfg.BackoffBase, s.cfg.BackoffCap, l.failures())
		s.logger.Warn("fetch failed, backing off",
			"key", key.String(),
			"consecutive_failures", l.failures(),
			"backoff", wait,
			"error", err,
		)
		return wait, false
	}
}

// effectiveInterval picks the open-market poll interval for a lane.
func (s *Scheduler) effectiveInterval(l *lane) time.Duration {
	if s.cal.Realtime(l.inst.Key.Exchange) {
		return s.cfg.RealtimeInterval
	}
	return l.inst.FallbackInterval
}
