package scheduler

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/AndrewSteel/isin-quotes/internal/model"
	"github.com/AndrewSteel/isin-quotes/internal/quote"
)

// lane is the scheduling state for one tracked instrument. The machine is
// driven only from the lane goroutine; the mutex exists solely so Snapshot
// can read state from outside.
type lane struct {
	id   uuid.UUID
	inst Instrument

	mu      sync.Mutex
	machine *quote.Machine

	cancel context.CancelFunc
}

func (l *lane) applySample(s model.QuoteSample) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.machine.ApplySample(s)
}

func (l *lane) applyFailure() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.machine.ApplyFailure()
}

func (l *lane) suspend() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.machine.Suspend()
}

func (l *lane) republish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.machine.Republish()
}

func (l *lane) failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.machine.Failures()
}

func (l *lane) status() InstrumentStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return InstrumentStatus{
		ID:       l.id,
		Key:      l.inst.Key,
		State:    l.machine.State(),
		Failures: l.machine.Failures(),
	}
}
