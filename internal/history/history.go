package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/api"
	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// Fetcher retrieves a historical series and the ranges the upstream offers
// for an instrument. *api.Client satisfies this.
type Fetcher interface {
	GetTimeRanges(ctx context.Context, isin string) ([]model.TimeRange, error)
	GetChartData(ctx context.Context, isin string, timeRange model.TimeRange, exchangeID, currencyID int, ohlc bool) (*api.ChartData, error)
}

// Request selects one historical series.
type Request struct {
	ISIN       string
	TimeRange  model.TimeRange
	ExchangeID int
	CurrencyID int
	OHLC       bool
}

// Meta describes where a payload came from.
type Meta struct {
	ISIN       string          `json:"isin"`
	TimeRange  model.TimeRange `json:"time_range"`
	ExchangeID int             `json:"exchange_id"`
	CurrencyID int             `json:"currency_id"`
	OHLC       bool            `json:"ohlc"`
	FilePath   string          `json:"file_path"`
	Source     string          `json:"source"` // "live" or "cache"
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Payload is one fetched series plus its metadata.
type Payload struct {
	OHLC    bool                 `json:"ohlc"`
	Line    []model.HistoryPoint `json:"line,omitempty"`
	Candles []model.OHLCPoint    `json:"candles,omitempty"`
	Meta    Meta                 `json:"meta"`
}

// artifact is the on-disk form: the series without metadata, so cached files
// stay valid however they were produced.
type artifact struct {
	OHLC    bool                 `json:"ohlc"`
	Line    []model.HistoryPoint `json:"line,omitempty"`
	Candles []model.OHLCPoint    `json:"candles,omitempty"`
}

// Service fetches historical series, persists them as JSON artifacts, and
// keeps the most recent payload. The retained payload is last-write-wins
// across all instruments, matching the single shared history surface.
type Service struct {
	fetcher Fetcher
	dir     string
	logger  *slog.Logger

	mu   sync.Mutex
	last *Payload
}

// New creates a history Service writing artifacts under dir.
func New(fetcher Fetcher, dir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{fetcher: fetcher, dir: dir, logger: logger}
}

// Filename returns the artifact name for a request:
// <isin>__<exchange>_<currency>__<range>__<line|ohlc>.json
func Filename(req Request) string {
	flag := "line"
	if req.OHLC {
		flag = "ohlc"
	}
	return fmt.Sprintf("%s__%d_%d__%s__%s.json",
		req.ISIN, req.ExchangeID, req.CurrencyID, req.TimeRange, flag)
}

// Fetch retrieves the series for the request, writes the artifact, and
// retains the payload. Intraday never has candles, so the OHLC flag is
// cleared for it. On a fetch failure a cached artifact is served instead,
// marked as coming from the cache.
func (s *Service) Fetch(ctx context.Context, req Request) (*Payload, error) {
	if req.TimeRange == model.RangeIntraday {
		req.OHLC = false
	}

	// The chart-meta endpoint lists the ranges actually offered for this
	// instrument; an unoffered range is an operator mistake, not an outage.
	// When the meta fetch itself fails the data fetch still gets its chance.
	if offered, err := s.fetcher.GetTimeRanges(ctx, req.ISIN); err == nil {
		if !containsRange(offered, req.TimeRange) {
			return nil, fmt.Errorf("time range %s not offered for %s (offered: %v)",
				req.TimeRange, req.ISIN, offered)
		}
	} else {
		s.logger.Debug("time range listing unavailable, skipping validation",
			"isin", req.ISIN,
			"error", err,
		)
	}

	path := filepath.Join(s.dir, Filename(req))

	data, err := s.fetcher.GetChartData(ctx, req.ISIN, req.TimeRange, req.ExchangeID, req.CurrencyID, req.OHLC)
	if err != nil {
		cached, cacheErr := s.readArtifact(path)
		if cacheErr != nil {
			return nil, fmt.Errorf("fetch history for %s/%s: %w", req.ISIN, req.TimeRange, err)
		}
		s.logger.Warn("history fetch failed, serving cached artifact",
			"isin", req.ISIN,
			"time_range", req.TimeRange,
			"error", err,
		)
		payload := s.retain(req, cached, path, "cache")
		return payload, nil
	}

	art := &artifact{OHLC: data.OHLC, Line: data.Line, Candles: data.Candles}
	if err := s.writeArtifact(path, art); err != nil {
		// The live payload is still good; losing the cache file is not fatal.
		s.logger.Warn("history artifact save failed", "path", path, "error", err)
	}

	payload := s.retain(req, art, path, "live")
	s.logger.Info("history ready",
		"isin", req.ISIN,
		"time_range", req.TimeRange,
		"ohlc", req.OHLC,
		"path", path,
	)
	return payload, nil
}

// Last returns the most recently retained payload, nil before the first
// successful fetch.
func (s *Service) Last() *Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *Service) retain(req Request, art *artifact, path, source string) *Payload {
	payload := &Payload{
		OHLC:    art.OHLC,
		Line:    art.Line,
		Candles: art.Candles,
		Meta: Meta{
			ISIN:       req.ISIN,
			TimeRange:  req.TimeRange,
			ExchangeID: req.ExchangeID,
			CurrencyID: req.CurrencyID,
			OHLC:       req.OHLC,
			FilePath:   path,
			Source:     source,
			UpdatedAt:  time.Now().UTC(),
		},
	}

	s.mu.Lock()
	s.last = payload
	s.mu.Unlock()
	return payload
}

func (s *Service) writeArtifact(path string, art *artifact) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(art)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func containsRange(offered []model.TimeRange, want model.TimeRange) bool {
	for _, r := range offered {
		if r == want {
			return true
		}
	}
	return false
}

func (s *Service) readArtifact(path string) (*artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var art artifact
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, err
	}
	return &art, nil
}
