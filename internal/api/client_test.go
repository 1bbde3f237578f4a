package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, WithTimeout(5*time.Second))
}

func TestGetInstrumentHeader(t *testing.T) {
	var gotPath, gotQuery string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"isin":                      "DE0008469008",
			"name":                      "DAX",
			"price":                     18500.25,
			"currencySign":              "EUR",
			"priceChangeDate":           "2026-08-31T14:05:00Z",
			"exchangeCode":              "ETR",
			"additionalMetaInformation": []string{"Aktie"},
		})
	})

	h, err := client.GetInstrumentHeader(context.Background(), "DE0008469008", "ETR")
	if err != nil {
		t.Fatalf("GetInstrumentHeader failed: %v", err)
	}
	if gotPath != "/components-ng/instrumentheader/DE0008469008" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "exchangeCode=ETR" {
		t.Errorf("query = %q", gotQuery)
	}
	if h.Price == nil || *h.Price != 18500.25 {
		t.Errorf("Price = %v, want 18500.25", h.Price)
	}
	if h.AssetClass() != "Share" {
		t.Errorf("AssetClass = %q, want Share", h.AssetClass())
	}
	if h.Bond() {
		t.Error("Bond() = true for a share")
	}
}

func TestFetchQuoteFallsBackOnMissingPrice(t *testing.T) {
	var calls []string
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("exchangeCode") != "" {
			// Selected exchange has no price.
			json.NewEncoder(w).Encode(map[string]any{"isin": "X", "price": nil})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"isin": "X", "price": 42.5, "currencySign": "USD",
		})
	})

	sample, _, err := client.FetchQuote(context.Background(), "US0000000001", "XNAS")
	if err != nil {
		t.Fatalf("FetchQuote failed: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2 (primary + default fallback)", len(calls))
	}
	if sample.Price != 42.5 {
		t.Errorf("Price = %v, want 42.5", sample.Price)
	}
	if sample.RetrievedAt.IsZero() {
		t.Error("RetrievedAt not set")
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		want   Kind
	}{
		{"NotFound404", http.StatusNotFound, KindNotFound},
		{"BadRequest400", http.StatusBadRequest, KindNotFound},
		{"RateLimited429", http.StatusTooManyRequests, KindRateLimited},
		{"ServerError500", http.StatusInternalServerError, KindUnreachable},
		{"BadGateway502", http.StatusBadGateway, KindUnreachable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tc.status)
			})

			_, err := client.GetInstrumentHeader(context.Background(), "X", "")
			if err == nil {
				t.Fatal("expected error")
			}
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("error is %T, want *Error", err)
			}
			if apiErr.Kind != tc.want {
				t.Errorf("Kind = %v, want %v", apiErr.Kind, tc.want)
			}
			if got := ErrKind(err); got != tc.want {
				t.Errorf("ErrKind = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestErrorTransport(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", WithTimeout(200*time.Millisecond))

	_, err := client.GetInstrumentHeader(context.Background(), "X", "")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if got := ErrKind(err); got != KindUnreachable {
		t.Errorf("ErrKind = %v, want unreachable", got)
	}
}

func TestErrorMalformedPayload(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.GetInstrumentHeader(context.Background(), "X", "")
	if got := ErrKind(err); got != KindInvalidResponse {
		t.Errorf("ErrKind = %v, want invalid_response", got)
	}
}

func TestErrorRetryable(t *testing.T) {
	cases := []struct {
		kind Kind
		want bool
	}{
		{KindUnreachable, true},
		{KindInvalidResponse, true},
		{KindRateLimited, true},
		{KindNotFound, false},
	}
	for _, tc := range cases {
		e := &Error{Kind: tc.kind}
		if got := e.Retryable(); got != tc.want {
			t.Errorf("Retryable(%v) = %v, want %v", tc.kind, got, tc.want)
		}
	}
}

func TestGetExchanges(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"exchangeCode": "ETR", "exchangeName": "XETRA",
					"exchangeId": 2779, "currencyId": 814,
					"currencySign": "EUR", "currencyName": "Euro",
					"isDefault": true, "isRealtime": false, "sortOrder": 1,
				},
				{
					"exchangeCode": "FRA", "exchangeName": "Frankfurt",
					"exchangeId": 2547, "currencyId": 814,
					"currencyIsoCode": "EUR",
				},
			},
		})
	})

	listings, err := client.GetExchanges(context.Background(), "DE0008469008")
	if err != nil {
		t.Fatalf("GetExchanges failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("len = %d, want 2", len(listings))
	}
	if !listings[0].Default {
		t.Error("first listing should be default")
	}
	if listings[1].CurrencySign != "EUR" {
		t.Errorf("CurrencySign fallback = %q, want EUR from ISO code", listings[1].CurrencySign)
	}
	if listings[1].SortOrder != 9999 {
		t.Errorf("missing sortOrder = %d, want 9999", listings[1].SortOrder)
	}
}

func TestGetChartData(t *testing.T) {
	t.Run("Line", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("ohlc"); got != "false" {
				t.Errorf("ohlc query = %q, want false", got)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"instruments": []map[string]any{
					{"data": [][]float64{{1725100000000, 100.5}, {1725100600000, 101.0}}},
				},
			})
		})

		data, err := client.GetChartData(context.Background(), "X", "OneWeek", 2779, 814, false)
		if err != nil {
			t.Fatalf("GetChartData failed: %v", err)
		}
		if len(data.Line) != 2 {
			t.Fatalf("len(Line) = %d, want 2", len(data.Line))
		}
		if data.Line[0].Price != 100.5 {
			t.Errorf("Price = %v, want 100.5", data.Line[0].Price)
		}
		if data.Line[0].Timestamp.UnixMilli() != 1725100000000 {
			t.Errorf("Timestamp = %v", data.Line[0].Timestamp)
		}
	})

	t.Run("OHLC", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"instruments": []map[string]any{
					{"data": [][]float64{{1725100000000, 100, 102, 99, 101}}},
				},
			})
		})

		data, err := client.GetChartData(context.Background(), "X", "OneYear", 2779, 814, true)
		if err != nil {
			t.Fatalf("GetChartData failed: %v", err)
		}
		if len(data.Candles) != 1 {
			t.Fatalf("len(Candles) = %d, want 1", len(data.Candles))
		}
		c := data.Candles[0]
		if c.Open != 100 || c.High != 102 || c.Low != 99 || c.Close != 101 {
			t.Errorf("candle = %+v", c)
		}
	})

	t.Run("MalformedRows", func(t *testing.T) {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"instruments": []map[string]any{
					{"data": [][]float64{{1725100000000}}},
				},
			})
		})

		_, err := client.GetChartData(context.Background(), "X", "OneWeek", 1, 1, false)
		if got := ErrKind(err); got != KindInvalidResponse {
			t.Errorf("ErrKind = %v, want invalid_response", got)
		}
	})
}

func TestGetTimeRanges(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"timeRanges": []string{"Intraday", "OneWeek", "Weird", "Maximum"},
		})
	})

	ranges, err := client.GetTimeRanges(context.Background(), "X")
	if err != nil {
		t.Fatalf("GetTimeRanges failed: %v", err)
	}
	if len(ranges) != 3 {
		t.Errorf("len = %d, want 3 (unknown range dropped)", len(ranges))
	}
}

func TestGetLogo(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("assetClass"); got != "Share" {
			t.Errorf("assetClass = %q, want Share", got)
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`))
	})

	data, ctype, err := client.GetLogo(context.Background(), "X", "Share")
	if err != nil {
		t.Fatalf("GetLogo failed: %v", err)
	}
	if ctype != "image/svg+xml" {
		t.Errorf("contentType = %q", ctype)
	}
	if len(data) == 0 {
		t.Error("empty logo payload")
	}
}
