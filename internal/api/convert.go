package api

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// assetClassDE2EN maps the upstream's German asset class labels to the
// English variants the logo endpoint expects.
var assetClassDE2EN = map[string]string{
	"Devisenkurs":  "ExchangeRate",
	"ETF":          "Fund",
	"Fonds":        "Fund",
	"Rohstoff":     "Commodity",
	"Aktie":        "Share",
	"Anleihe":      "Bond",
	"Zertifikate":  "Derivative",
	"Hebelprodukt": "Derivative",
}

// AssetClass returns the English asset class of the instrument, or "" when
// the header carries no meta information.
func (h *InstrumentHeader) AssetClass() string {
	if len(h.AdditionalMetaInformation) == 0 {
		return ""
	}
	raw := strings.TrimSpace(h.AdditionalMetaInformation[0])
	if en, ok := assetClassDE2EN[raw]; ok {
		return en
	}
	return raw
}

// Bond reports whether the instrument prices in percentage of par.
func (h *InstrumentHeader) Bond() bool {
	if strings.TrimSpace(h.CurrencySign) == "%" {
		return true
	}
	if len(h.AdditionalMetaInformation) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(h.AdditionalMetaInformation[0]), "anleihe")
}

// Sample converts the header into a quote sample. A header without a price
// is an invalid response.
func (h *InstrumentHeader) Sample(retrievedAt time.Time) (model.QuoteSample, error) {
	if h.Price == nil {
		return model.QuoteSample{}, &Error{
			Kind:    KindInvalidResponse,
			Message: "instrument header has no price",
		}
	}

	observed := parseObservedAt(h.PriceChangeDate)
	if observed.IsZero() {
		observed = retrievedAt
	}

	return model.QuoteSample{
		Price:        *h.Price,
		CurrencySign: h.CurrencySign,
		Bond:         h.Bond(),
		ObservedAt:   observed,
		RetrievedAt:  retrievedAt,
	}, nil
}

// parseObservedAt handles the three timestamp shapes upstream has been seen
// to produce: RFC3339 strings, epoch seconds, and epoch milliseconds.
func parseObservedAt(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts
			}
		}
		return time.Time{}
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n > 1e11 { // epoch milliseconds
			return time.UnixMilli(int64(n)).UTC()
		}
		return time.Unix(int64(n), 0).UTC()
	}

	return time.Time{}
}

// convertLine converts raw chart rows into line-mode history points.
// Rows are [epoch_ms, price].
func convertLine(rows [][]float64) ([]model.HistoryPoint, error) {
	points := make([]model.HistoryPoint, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, &Error{
				Kind:    KindInvalidResponse,
				Message: "chart row " + strconv.Itoa(i) + " has " + strconv.Itoa(len(row)) + " fields, want 2",
			}
		}
		points = append(points, model.HistoryPoint{
			Timestamp: time.UnixMilli(int64(row[0])).UTC(),
			Price:     row[1],
		})
	}
	return points, nil
}

// convertOHLC converts raw chart rows into OHLC history points.
// Rows are [epoch_ms, open, high, low, close].
func convertOHLC(rows [][]float64) ([]model.OHLCPoint, error) {
	points := make([]model.OHLCPoint, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, &Error{
				Kind:    KindInvalidResponse,
				Message: "ohlc row " + strconv.Itoa(i) + " has " + strconv.Itoa(len(row)) + " fields, want 5",
			}
		}
		points = append(points, model.OHLCPoint{
			Timestamp: time.UnixMilli(int64(row[0])).UTC(),
			Open:      row[1],
			High:      row[2],
			Low:       row[3],
			Close:     row[4],
		})
	}
	return points, nil
}
