package api

import (
	"encoding/json"
	"testing"
	"time"
)

func floatPtr(v float64) *float64 { return &v }

func TestHeaderBondDetection(t *testing.T) {
	cases := []struct {
		name   string
		header InstrumentHeader
		want   bool
	}{
		{"PercentSign", InstrumentHeader{CurrencySign: "%"}, true},
		{"AnleiheMeta", InstrumentHeader{CurrencySign: "EUR", AdditionalMetaInformation: []string{"Anleihe"}}, true},
		{"AnleiheCaseInsensitive", InstrumentHeader{AdditionalMetaInformation: []string{" anleihe "}}, true},
		{"Share", InstrumentHeader{CurrencySign: "EUR", AdditionalMetaInformation: []string{"Aktie"}}, false},
		{"NoMeta", InstrumentHeader{CurrencySign: "EUR"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.header.Bond(); got != tc.want {
				t.Errorf("Bond() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHeaderAssetClass(t *testing.T) {
	cases := []struct {
		meta []string
		want string
	}{
		{[]string{"Aktie"}, "Share"},
		{[]string{"Anleihe"}, "Bond"},
		{[]string{"ETF"}, "Fund"},
		{[]string{"Fonds"}, "Fund"},
		{[]string{"Hebelprodukt"}, "Derivative"},
		{[]string{"Somethingelse"}, "Somethingelse"},
		{nil, ""},
	}
	for _, tc := range cases {
		h := InstrumentHeader{AdditionalMetaInformation: tc.meta}
		if got := h.AssetClass(); got != tc.want {
			t.Errorf("AssetClass(%v) = %q, want %q", tc.meta, got, tc.want)
		}
	}
}

func TestHeaderSample(t *testing.T) {
	now := time.Date(2026, time.August, 31, 12, 0, 0, 0, time.UTC)

	t.Run("WithTimestamp", func(t *testing.T) {
		h := InstrumentHeader{
			Price:           floatPtr(99.5),
			CurrencySign:    "EUR",
			PriceChangeDate: json.RawMessage(`"2026-08-31T10:30:00Z"`),
		}
		s, err := h.Sample(now)
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		want := time.Date(2026, time.August, 31, 10, 30, 0, 0, time.UTC)
		if !s.ObservedAt.Equal(want) {
			t.Errorf("ObservedAt = %v, want %v", s.ObservedAt, want)
		}
		if !s.RetrievedAt.Equal(now) {
			t.Errorf("RetrievedAt = %v, want %v", s.RetrievedAt, now)
		}
	})

	t.Run("NoPrice", func(t *testing.T) {
		h := InstrumentHeader{}
		if _, err := h.Sample(now); ErrKind(err) != KindInvalidResponse {
			t.Errorf("err = %v, want invalid_response", err)
		}
	})

	t.Run("MissingTimestampFallsBackToRetrieval", func(t *testing.T) {
		h := InstrumentHeader{Price: floatPtr(1)}
		s, err := h.Sample(now)
		if err != nil {
			t.Fatalf("Sample failed: %v", err)
		}
		if !s.ObservedAt.Equal(now) {
			t.Errorf("ObservedAt = %v, want retrieval time", s.ObservedAt)
		}
	})
}

func TestParseObservedAt(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"RFC3339", `"2026-08-31T10:30:00Z"`, time.Date(2026, time.August, 31, 10, 30, 0, 0, time.UTC)},
		{"EpochSeconds", `1725100000`, time.Unix(1725100000, 0).UTC()},
		{"EpochMillis", `1725100000000`, time.UnixMilli(1725100000000).UTC()},
		{"Null", `null`, time.Time{}},
		{"Garbage", `"tomorrow"`, time.Time{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseObservedAt(json.RawMessage(tc.raw))
			if !got.Equal(tc.want) {
				t.Errorf("parseObservedAt(%s) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}
