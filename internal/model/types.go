package model

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Instrument Identity
// -----------------------------------------------------------------------------

// InstrumentKey uniquely identifies a tracked instrument.
type InstrumentKey struct {
	ISIN     string `json:"isin"`     // 12-char alphanumeric identifier
	Exchange string `json:"exchange"` // Exchange code (e.g., "ETR")
	Currency string `json:"currency"` // Currency sign or ISO code (e.g., "EUR")
}

// String returns the canonical key form used for logging and artifact names.
func (k InstrumentKey) String() string {
	return k.ISIN + "__" + k.Exchange + "__" + k.Currency
}

// -----------------------------------------------------------------------------
// Quote Samples
// -----------------------------------------------------------------------------

// QuoteSample is one successfully fetched quote. Immutable once created.
type QuoteSample struct {
	Price        float64   // Last price in instrument currency (or % of par for bonds)
	CurrencySign string    // Upstream currency sign (e.g., "EUR", "%")
	Bond         bool      // Bond change mode: absolute change in percentage points
	ObservedAt   time.Time // Upstream-reported price timestamp
	RetrievedAt  time.Time // Local receive timestamp
}

// DerivedValues holds change figures computed from the previous and current
// sample. Nil pointers mean "unavailable" (no previous sample), never zero.
type DerivedValues struct {
	ChangePercent  *float64
	ChangeAbsolute *float64
	ChangeUnit     string // Unit of ChangeAbsolute: currency sign, "%" for bonds
}

// Derive computes change values from the previous and current sample.
// Returns unavailable values when prev is nil or has a zero price.
func Derive(prev, cur *QuoteSample) DerivedValues {
	d := DerivedValues{ChangeUnit: changeUnit(cur)}
	if prev == nil || cur == nil || prev.Price == 0 {
		return d
	}
	pct := (cur.Price - prev.Price) / prev.Price * 100
	abs := cur.Price - prev.Price
	d.ChangePercent = &pct
	d.ChangeAbsolute = &abs
	return d
}

func changeUnit(s *QuoteSample) string {
	if s == nil {
		return ""
	}
	if s.Bond {
		return "%"
	}
	return s.CurrencySign
}

// -----------------------------------------------------------------------------
// Instrument State
// -----------------------------------------------------------------------------

// InstrumentState is the lifecycle state of a tracked instrument.
type InstrumentState int

const (
	// StatePending means the instrument has never been successfully polled.
	StatePending InstrumentState = iota

	// StateFresh means at least one sample has been fetched successfully.
	StateFresh

	// StateDegraded means the last N consecutive polls failed.
	StateDegraded

	// StateSuspended means upstream rejected the instrument; polling stops
	// until the configuration entry is recreated.
	StateSuspended
)

var stateNames = map[InstrumentState]string{
	StatePending:   "pending",
	StateFresh:     "fresh",
	StateDegraded:  "degraded",
	StateSuspended: "suspended",
}

func (s InstrumentState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler for JSON payloads.
func (s InstrumentState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// -----------------------------------------------------------------------------
// Publish Events
// -----------------------------------------------------------------------------

// PublishEvent is the value delivered to the publication sink on every state
// transition and on every closed-market re-tick. Nil pointer fields represent
// "unavailable", matching DerivedValues semantics.
type PublishEvent struct {
	Key            InstrumentKey   `json:"key"`
	State          InstrumentState `json:"state"`
	Price          *float64        `json:"price,omitempty"`
	CurrencySign   string          `json:"currency_sign,omitempty"`
	ChangePercent  *float64        `json:"change_percent,omitempty"`
	ChangeAbsolute *float64        `json:"change_absolute,omitempty"`
	ChangeUnit     string          `json:"change_unit,omitempty"`
	RetrievedAt    time.Time       `json:"retrieved_at"`
}

// -----------------------------------------------------------------------------
// Historical Series
// -----------------------------------------------------------------------------

// TimeRange selects the span of a historical series request.
type TimeRange string

const (
	RangeIntraday  TimeRange = "Intraday"
	RangeOneWeek   TimeRange = "OneWeek"
	RangeOneMonth  TimeRange = "OneMonth"
	RangeOneYear   TimeRange = "OneYear"
	RangeFiveYears TimeRange = "FiveYears"
	RangeMaximum   TimeRange = "Maximum"
)

// TimeRanges lists all valid ranges in display order.
func TimeRanges() []TimeRange {
	return []TimeRange{
		RangeIntraday, RangeOneWeek, RangeOneMonth,
		RangeOneYear, RangeFiveYears, RangeMaximum,
	}
}

// ParseTimeRange validates a raw range string.
func ParseTimeRange(s string) (TimeRange, error) {
	for _, r := range TimeRanges() {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown time range %q", s)
}

// HistoryPoint is one entry of a line-mode historical series.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// OHLCPoint is one entry of an OHLC-mode historical series.
type OHLCPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// -----------------------------------------------------------------------------
// Exchange Catalog
// -----------------------------------------------------------------------------

// ExchangeListing is one selectable exchange/currency pair for an ISIN, as
// reported by the upstream exchanges endpoint.
type ExchangeListing struct {
	Code         string // Exchange code (e.g., "ETR")
	Name         string // Display name (e.g., "XETRA")
	ExchangeID   int    // Numeric ID used by the chart endpoint
	CurrencyID   int    // Numeric ID used by the chart endpoint
	CurrencySign string // e.g., "EUR"
	CurrencyName string // e.g., "Euro"
	Default      bool   // Upstream-preferred listing
	Realtime     bool   // Eligible for the shorter open-market poll interval
	SortOrder    int    // Upstream ordering hint
}
