package publish

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AndrewSteel/isin-quotes/internal/model"
	"github.com/AndrewSteel/isin-quotes/internal/quote"
)

// DefaultQueueCapacity is the initial event queue size.
const DefaultQueueCapacity = 256

// Dispatcher buffers publish events and fans them out to sinks in order.
// It implements quote.Sink and is safe for concurrent publishers.
type Dispatcher struct {
	logger *slog.Logger
	events *queue[model.PublishEvent]

	mu    sync.RWMutex
	sinks []quote.Sink

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewDispatcher creates a dispatcher. Sinks may be attached before Start.
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		logger: logger,
		events: newQueue[model.PublishEvent](DefaultQueueCapacity),
	}
}

// Attach registers a sink to receive dispatched events.
func (d *Dispatcher) Attach(s quote.Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Publish enqueues an event. Never blocks.
func (d *Dispatcher) Publish(ev model.PublishEvent) {
	if !d.events.enqueue(ev) {
		d.logger.Debug("dropping publish event after shutdown", "key", ev.Key.String())
	}
}

// Start begins dispatching on a single goroutine.
func (d *Dispatcher) Start(ctx context.Context) error {
	ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.run(ctx)
	}()

	d.logger.Info("publish dispatcher started")
	return nil
}

// Stop drains the queue and shuts down.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.events.close()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("publish dispatcher stopped")
		return nil
	case <-ctx.Done():
		if d.cancel != nil {
			d.cancel()
		}
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	for {
		ev, ok := d.events.dequeue()
		if !ok {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		d.mu.RLock()
		sinks := d.sinks
		d.mu.RUnlock()

		for _, s := range sinks {
			s.Publish(ev)
		}
	}
}

// Pending reports the number of undelivered events.
func (d *Dispatcher) Pending() int {
	return d.events.len()
}
