package recorder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AndrewSteel/isin-quotes/internal/config"
	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// Metrics counts recorder activity.
type Metrics struct {
	Inserts   int64
	Conflicts int64
	Errors    int64
	Flushes   int64
	Dropped   int64
}

// Recorder archives publish events into the publish_events table. It is a
// publication sink: attach it to the dispatcher alongside the hub.
type Recorder struct {
	cfg    config.RecorderConfig
	logger *slog.Logger

	// Input from the publication dispatcher
	input chan model.PublishEvent

	// Database
	db *pgxpool.Pool

	// Batching
	batch   []eventRow
	batchMu sync.Mutex

	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics Metrics
}

// eventRow is one publish_events row.
type eventRow struct {
	ISIN           string
	Exchange       string
	Currency       string
	State          string
	Price          *float64
	CurrencySign   string
	ChangePercent  *float64
	ChangeAbsolute *float64
	ChangeUnit     string
	RetrievedAt    time.Time
}

// New creates a Recorder writing to the given pool.
func New(cfg config.RecorderConfig, db *pgxpool.Pool, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan model.PublishEvent, cfg.BufferSize),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Publish queues an event for archival. When the buffer is full the event is
// dropped and counted; archival never blocks the publication path.
func (r *Recorder) Publish(ev model.PublishEvent) {
	select {
	case r.input <- ev:
	default:
		r.batchMu.Lock()
		r.metrics.Dropped++
		r.batchMu.Unlock()
	}
}

// Start begins consuming events and writing to the database.
func (r *Recorder) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.flushTicker = time.NewTicker(r.cfg.FlushInterval)

	r.wg.Add(1)
	go r.consumeLoop()

	r.wg.Add(1)
	go r.flushLoop()

	r.logger.Info("recorder started",
		"batch_size", r.cfg.BatchSize,
		"flush_interval", r.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the recorder.
func (r *Recorder) Stop(ctx context.Context) error {
	r.logger.Info("stopping recorder")

	if r.cancel != nil {
		r.cancel()
	}
	if r.flushTicker != nil {
		r.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("recorder stopped")
	case <-ctx.Done():
		r.logger.Warn("recorder stop timed out")
	}

	// Final flush runs on the caller's context; r.ctx is already cancelled.
	r.flushWith(ctx)

	return nil
}

// Stats returns current metrics.
func (r *Recorder) Stats() Metrics {
	r.batchMu.Lock()
	defer r.batchMu.Unlock()
	return r.metrics
}

// consumeLoop reads events and accumulates batches.
func (r *Recorder) consumeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case ev := <-r.input:
			r.handleEvent(ev)
		}
	}
}

// flushLoop periodically flushes the batch.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-r.flushTicker.C:
			r.flush()
		}
	}
}

func (r *Recorder) flush() { r.flushWith(r.ctx) }

// handleEvent transforms and adds an event to the batch.
func (r *Recorder) handleEvent(ev model.PublishEvent) {
	row := r.transform(ev)

	r.batchMu.Lock()
	r.batch = append(r.batch, row)
	shouldFlush := len(r.batch) >= r.cfg.BatchSize
	r.batchMu.Unlock()

	if shouldFlush {
		r.flush()
	}
}

// transform converts a PublishEvent to an eventRow.
func (r *Recorder) transform(ev model.PublishEvent) eventRow {
	return eventRow{
		ISIN:           ev.Key.ISIN,
		Exchange:       ev.Key.Exchange,
		Currency:       ev.Key.Currency,
		State:          ev.State.String(),
		Price:          ev.Price,
		CurrencySign:   ev.CurrencySign,
		ChangePercent:  ev.ChangePercent,
		ChangeAbsolute: ev.ChangeAbsolute,
		ChangeUnit:     ev.ChangeUnit,
		RetrievedAt:    ev.RetrievedAt,
	}
}

// flushWith writes the current batch to the database.
func (r *Recorder) flushWith(ctx context.Context) {
	r.batchMu.Lock()
	if len(r.batch) == 0 {
		r.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	batch := r.batch
	r.batch = make([]eventRow, 0, r.cfg.BatchSize)
	r.batchMu.Unlock()

	start := time.Now()

	conflicts, err := r.batchInsert(ctx, batch)
	if err != nil {
		r.logger.Error("batch insert failed", "error", err, "count", len(batch))
		r.batchMu.Lock()
		r.metrics.Errors++
		r.batchMu.Unlock()
		return
	}

	r.batchMu.Lock()
	r.metrics.Inserts += int64(len(batch) - conflicts)
	r.metrics.Conflicts += int64(conflicts)
	r.metrics.Flushes++
	r.batchMu.Unlock()

	r.logger.Debug("flushed publish events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
// Re-published events carry their original retrieved-at, so the conflict
// target makes closed-market re-publishes idempotent in the archive.
func (r *Recorder) batchInsert(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO publish_events (isin, exchange, currency, state, price, currency_sign, change_percent, change_absolute, change_unit, retrieved_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (isin, exchange, currency, retrieved_at) DO NOTHING
		`, row.ISIN, row.Exchange, row.Currency, row.State, row.Price, row.CurrencySign, row.ChangePercent, row.ChangeAbsolute, row.ChangeUnit, row.RetrievedAt)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
