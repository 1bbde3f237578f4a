package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/api"
	"github.com/AndrewSteel/isin-quotes/internal/model"
)

type stubFetcher struct {
	data *api.ChartData
	err  error

	ranges    []model.TimeRange
	rangesErr error

	lastOHLC bool
	calls    int
}

func (f *stubFetcher) GetTimeRanges(context.Context, string) ([]model.TimeRange, error) {
	if f.rangesErr != nil {
		return nil, f.rangesErr
	}
	if f.ranges != nil {
		return f.ranges, nil
	}
	return model.TimeRanges(), nil
}

func (f *stubFetcher) GetChartData(_ context.Context, _ string, _ model.TimeRange, _, _ int, ohlc bool) (*api.ChartData, error) {
	f.calls++
	f.lastOHLC = ohlc
	return f.data, f.err
}

func lineData() *api.ChartData {
	return &api.ChartData{
		Line: []model.HistoryPoint{
			{Timestamp: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), Price: 100},
			{Timestamp: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), Price: 101.5},
		},
	}
}

func TestFilename(t *testing.T) {
	req := Request{ISIN: "DE0005140008", TimeRange: model.RangeOneYear, ExchangeID: 2779, CurrencyID: 814, OHLC: true}
	want := "DE0005140008__2779_814__OneYear__ohlc.json"
	if got := Filename(req); got != want {
		t.Errorf("Filename = %q, want %q", got, want)
	}

	req.OHLC = false
	if got := Filename(req); got != "DE0005140008__2779_814__OneYear__line.json" {
		t.Errorf("Filename = %q", got)
	}
}

func TestFetchWritesArtifactAndRetains(t *testing.T) {
	dir := t.TempDir()
	fetcher := &stubFetcher{data: lineData()}
	svc := New(fetcher, dir, nil)

	req := Request{ISIN: "DE0005140008", TimeRange: model.RangeOneYear, ExchangeID: 2779, CurrencyID: 814}
	payload, err := svc.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if payload.Meta.Source != "live" {
		t.Errorf("Source = %q, want live", payload.Meta.Source)
	}
	if len(payload.Line) != 2 {
		t.Fatalf("len(Line) = %d, want 2", len(payload.Line))
	}

	path := filepath.Join(dir, Filename(req))
	if _, err := os.Stat(path); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
	if got := svc.Last(); got != payload {
		t.Error("Last() must return the retained payload")
	}
}

func TestFetchIntradayClampsOHLC(t *testing.T) {
	fetcher := &stubFetcher{data: lineData()}
	svc := New(fetcher, t.TempDir(), nil)

	req := Request{ISIN: "DE0005140008", TimeRange: model.RangeIntraday, ExchangeID: 1, CurrencyID: 1, OHLC: true}
	payload, err := svc.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if fetcher.lastOHLC {
		t.Error("intraday request must not ask upstream for candles")
	}
	if payload.Meta.OHLC {
		t.Error("payload metadata must reflect the cleared flag")
	}
	if filepath.Base(payload.Meta.FilePath) != "DE0005140008__1_1__Intraday__line.json" {
		t.Errorf("artifact name = %q", filepath.Base(payload.Meta.FilePath))
	}
}

func TestFetchServesCacheOnFailure(t *testing.T) {
	dir := t.TempDir()
	req := Request{ISIN: "DE0005140008", TimeRange: model.RangeOneYear, ExchangeID: 2779, CurrencyID: 814}

	// Prime the cache with a successful fetch.
	fetcher := &stubFetcher{data: lineData()}
	svc := New(fetcher, dir, nil)
	if _, err := svc.Fetch(context.Background(), req); err != nil {
		t.Fatalf("priming Fetch: %v", err)
	}

	// A fresh service hitting a dead upstream must fall back to the artifact.
	broken := &stubFetcher{err: errors.New("upstream down")}
	svc = New(broken, dir, nil)
	payload, err := svc.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch with cache: %v", err)
	}

	if payload.Meta.Source != "cache" {
		t.Errorf("Source = %q, want cache", payload.Meta.Source)
	}
	if len(payload.Line) != 2 {
		t.Errorf("len(Line) = %d, want the cached series", len(payload.Line))
	}
}

func TestFetchFailsWithoutCache(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream down")}
	svc := New(fetcher, t.TempDir(), nil)

	req := Request{ISIN: "DE0005140008", TimeRange: model.RangeOneYear, ExchangeID: 1, CurrencyID: 1}
	if _, err := svc.Fetch(context.Background(), req); err == nil {
		t.Fatal("Fetch succeeded, want error without cache")
	}
	if svc.Last() != nil {
		t.Error("Last() must stay nil after a failed fetch")
	}
}

func TestFetchRejectsUnofferedRange(t *testing.T) {
	fetcher := &stubFetcher{
		data:   lineData(),
		ranges: []model.TimeRange{model.RangeIntraday, model.RangeOneWeek},
	}
	svc := New(fetcher, t.TempDir(), nil)

	req := Request{ISIN: "DE0005140008", TimeRange: model.RangeFiveYears, ExchangeID: 1, CurrencyID: 1}
	if _, err := svc.Fetch(context.Background(), req); err == nil {
		t.Fatal("Fetch accepted a range the upstream does not offer")
	}
	if fetcher.calls != 0 {
		t.Errorf("chart data fetched %d times, want 0 for a rejected range", fetcher.calls)
	}
}

func TestFetchProceedsWhenRangeListingUnavailable(t *testing.T) {
	fetcher := &stubFetcher{
		data:      lineData(),
		rangesErr: errors.New("meta endpoint down"),
	}
	svc := New(fetcher, t.TempDir(), nil)

	req := Request{ISIN: "DE0005140008", TimeRange: model.RangeOneYear, ExchangeID: 1, CurrencyID: 1}
	if _, err := svc.Fetch(context.Background(), req); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("chart data fetched %d times, want 1", fetcher.calls)
	}
}

func TestFetchLastWriteWins(t *testing.T) {
	fetcher := &stubFetcher{data: lineData()}
	svc := New(fetcher, t.TempDir(), nil)

	first := Request{ISIN: "DE0005140008", TimeRange: model.RangeOneYear, ExchangeID: 1, CurrencyID: 1}
	second := Request{ISIN: "US0378331005", TimeRange: model.RangeOneWeek, ExchangeID: 2, CurrencyID: 2}

	if _, err := svc.Fetch(context.Background(), first); err != nil {
		t.Fatalf("Fetch first: %v", err)
	}
	if _, err := svc.Fetch(context.Background(), second); err != nil {
		t.Fatalf("Fetch second: %v", err)
	}

	last := svc.Last()
	if last == nil || last.Meta.ISIN != "US0378331005" {
		t.Errorf("Last() = %+v, want the second instrument's payload", last)
	}
}
