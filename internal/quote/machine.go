package quote

import (
	"log/slog"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// DefaultDegradedThreshold is the number of consecutive retryable failures
// after which an instrument is published as degraded.
const DefaultDegradedThreshold = 3

// Sink receives publish events. Implementations must not block for long;
// slow consumers should buffer.
type Sink interface {
	Publish(ev model.PublishEvent)
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(model.PublishEvent)

func (f SinkFunc) Publish(ev model.PublishEvent) { f(ev) }

// Machine is the quote state machine for one tracked instrument.
type Machine struct {
	key       model.InstrumentKey
	threshold int
	sink      Sink
	logger    *slog.Logger

	state    model.InstrumentState
	current  *model.QuoteSample
	previous *model.QuoteSample
	derived  model.DerivedValues
	failures int

	lastEvent *model.PublishEvent
}

// NewMachine creates a state machine in the Pending state.
func NewMachine(key model.InstrumentKey, threshold int, sink Sink, logger *slog.Logger) *Machine {
	if threshold <= 0 {
		threshold = DefaultDegradedThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		key:       key,
		threshold: threshold,
		sink:      sink,
		logger:    logger,
		state:     model.StatePending,
	}
}

// State returns the current lifecycle state.
func (m *Machine) State() model.InstrumentState { return m.state }

// Failures returns the consecutive failure count.
func (m *Machine) Failures() int { return m.failures }

// Current returns the current sample, nil when never successfully polled.
func (m *Machine) Current() *model.QuoteSample { return m.current }

// ApplySample feeds a successful fetch into the machine: rotates the sample
// pair, recomputes derived values, resets the failure counter, and publishes.
// Samples older than the current one are dropped to keep publish events
// monotonic in retrieved-at.
func (m *Machine) ApplySample(s model.QuoteSample) {
	if m.current != nil && s.RetrievedAt.Before(m.current.RetrievedAt) {
		m.logger.Debug("dropping out-of-order sample",
			"key", m.key.String(),
			"retrieved_at", s.RetrievedAt,
		)
		return
	}

	prevState := m.state
	m.previous = m.current
	m.current = &s
	m.derived = model.Derive(m.previous, m.current)
	m.failures = 0
	m.state = model.StateFresh

	if prevState != m.state {
		m.logger.Info("instrument state changed",
			"key", m.key.String(),
			"from", prevState,
			"to", m.state,
		)
	}
	m.publish()
}

// ApplyFailure records a retryable failure. The previous sample stays
// untouched. Crossing the degraded threshold publishes the state change.
func (m *Machine) ApplyFailure() {
	if m.state == model.StateSuspended {
		return
	}

	m.failures++
	if m.state == model.StateDegraded || m.failures < m.threshold {
		return
	}

	m.state = model.StateDegraded
	m.logger.Warn("instrument degraded",
		"key", m.key.String(),
		"consecutive_failures", m.failures,
	)
	m.publish()
}

// Suspend marks the instrument as rejected by upstream. Only recreating the
// configuration entry leaves this state.
func (m *Machine) Suspend() {
	if m.state == model.StateSuspended {
		return
	}
	m.state = model.StateSuspended
	m.logger.Warn("instrument suspended", "key", m.key.String())
	m.publish()
}

// Republish re-emits the last publish event unchanged. Used on closed-market
// ticks where no fetch was attempted; derived values and retrieved-at are
// NOT recomputed. A machine that never published stays silent.
func (m *Machine) Republish() {
	if m.lastEvent == nil || m.sink == nil {
		return
	}
	m.sink.Publish(*m.lastEvent)
}

// publish builds the event for the current state and delivers it.
func (m *Machine) publish() {
	ev := model.PublishEvent{
		Key:            m.key,
		State:          m.state,
		ChangePercent:  m.derived.ChangePercent,
		ChangeAbsolute: m.derived.ChangeAbsolute,
		ChangeUnit:     m.derived.ChangeUnit,
	}
	if m.current != nil {
		price := m.current.Price
		ev.Price = &price
		ev.CurrencySign = m.current.CurrencySign
		ev.RetrievedAt = m.current.RetrievedAt
	}

	m.lastEvent = &ev
	if m.sink != nil {
		m.sink.Publish(ev)
	}
}
