package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/config"
	"github.com/AndrewSteel/isin-quotes/internal/model"
)

func testCfg() config.RecorderConfig {
	return config.RecorderConfig{
		BatchSize:     100,
		FlushInterval: time.Hour,
		BufferSize:    10,
	}
}

func TestRecorder_Transform(t *testing.T) {
	r := New(testCfg(), nil, nil)

	price := 101.5
	pct := 2.0
	abs := 2.0
	retrieved := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	ev := model.PublishEvent{
		Key:            model.InstrumentKey{ISIN: "DE0005140008", Exchange: "ETR", Currency: "EUR"},
		State:          model.StateFresh,
		Price:          &price,
		CurrencySign:   "EUR",
		ChangePercent:  &pct,
		ChangeAbsolute: &abs,
		ChangeUnit:     "EUR",
		RetrievedAt:    retrieved,
	}

	row := r.transform(ev)

	if row.ISIN != "DE0005140008" || row.Exchange != "ETR" || row.Currency != "EUR" {
		t.Errorf("key = %s/%s/%s", row.ISIN, row.Exchange, row.Currency)
	}
	if row.State != "fresh" {
		t.Errorf("State = %q, want %q", row.State, "fresh")
	}
	if row.Price == nil || *row.Price != 101.5 {
		t.Errorf("Price = %v, want 101.5", row.Price)
	}
	if !row.RetrievedAt.Equal(retrieved) {
		t.Errorf("RetrievedAt = %v, want %v", row.RetrievedAt, retrieved)
	}
}

func TestRecorder_Transform_PendingEvent(t *testing.T) {
	r := New(testCfg(), nil, nil)

	row := r.transform(model.PublishEvent{
		Key:   model.InstrumentKey{ISIN: "DE0005140008", Exchange: "ETR", Currency: "EUR"},
		State: model.StateDegraded,
	})

	if row.Price != nil {
		t.Errorf("Price = %v, want nil for an event without a sample", row.Price)
	}
	if row.ChangePercent != nil {
		t.Errorf("ChangePercent = %v, want nil", row.ChangePercent)
	}
	if row.State != "degraded" {
		t.Errorf("State = %q, want %q", row.State, "degraded")
	}
}

func TestRecorder_HandleEvent_AddsToBatch(t *testing.T) {
	r := New(testCfg(), nil, nil)

	for i := 0; i < 5; i++ {
		r.handleEvent(model.PublishEvent{
			Key:         model.InstrumentKey{ISIN: "DE0005140008", Exchange: "ETR", Currency: "EUR"},
			State:       model.StateFresh,
			RetrievedAt: time.Now(),
		})
	}

	r.batchMu.Lock()
	got := len(r.batch)
	r.batchMu.Unlock()
	if got != 5 {
		t.Errorf("batch has %d rows, want 5", got)
	}
}

func TestRecorder_Publish_DropsWhenFull(t *testing.T) {
	cfg := testCfg()
	cfg.BufferSize = 2
	r := New(cfg, nil, nil)

	// Not started: nothing consumes, so the third publish must drop.
	for i := 0; i < 3; i++ {
		r.Publish(model.PublishEvent{State: model.StateFresh})
	}

	if got := r.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
	if len(r.input) != 2 {
		t.Errorf("buffered = %d, want 2", len(r.input))
	}
}

func TestRecorder_Lifecycle(t *testing.T) {
	cfg := config.RecorderConfig{
		BatchSize:     10,
		FlushInterval: 100 * time.Millisecond,
		BufferSize:    10,
	}
	r := New(cfg, nil, nil)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Stop(stopCtx); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
}
