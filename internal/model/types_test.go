package model

import (
	"testing"
	"time"
)

func TestInstrumentKeyString(t *testing.T) {
	k := InstrumentKey{ISIN: "DE0008469008", Exchange: "ETR", Currency: "EUR"}
	if got, want := k.String(), "DE0008469008__ETR__EUR"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestDerive(t *testing.T) {
	now := time.Now()

	t.Run("NoPreviousSample", func(t *testing.T) {
		cur := &QuoteSample{Price: 100.00, CurrencySign: "EUR", RetrievedAt: now}
		d := Derive(nil, cur)
		if d.ChangePercent != nil {
			t.Errorf("ChangePercent = %v, want unavailable", *d.ChangePercent)
		}
		if d.ChangeAbsolute != nil {
			t.Errorf("ChangeAbsolute = %v, want unavailable", *d.ChangeAbsolute)
		}
		if d.ChangeUnit != "EUR" {
			t.Errorf("ChangeUnit = %q, want %q", d.ChangeUnit, "EUR")
		}
	})

	t.Run("SecondSample", func(t *testing.T) {
		prev := &QuoteSample{Price: 100.00, CurrencySign: "EUR"}
		cur := &QuoteSample{Price: 102.00, CurrencySign: "EUR", RetrievedAt: now}
		d := Derive(prev, cur)
		if d.ChangePercent == nil || *d.ChangePercent != 2.0 {
			t.Errorf("ChangePercent = %v, want 2.0", d.ChangePercent)
		}
		if d.ChangeAbsolute == nil || *d.ChangeAbsolute != 2.00 {
			t.Errorf("ChangeAbsolute = %v, want 2.00", d.ChangeAbsolute)
		}
	})

	t.Run("BondChangeUnit", func(t *testing.T) {
		prev := &QuoteSample{Price: 98.50, CurrencySign: "%", Bond: true}
		cur := &QuoteSample{Price: 99.25, CurrencySign: "%", Bond: true}
		d := Derive(prev, cur)
		if d.ChangeUnit != "%" {
			t.Errorf("ChangeUnit = %q, want %%", d.ChangeUnit)
		}
		if d.ChangeAbsolute == nil {
			t.Fatal("ChangeAbsolute unavailable, want value")
		}
		if got := *d.ChangeAbsolute; got < 0.74999 || got > 0.75001 {
			t.Errorf("ChangeAbsolute = %v, want 0.75", got)
		}
	})

	t.Run("ZeroPreviousPrice", func(t *testing.T) {
		prev := &QuoteSample{Price: 0}
		cur := &QuoteSample{Price: 10, CurrencySign: "USD"}
		if d := Derive(prev, cur); d.ChangePercent != nil {
			t.Errorf("ChangePercent = %v, want unavailable on zero base", *d.ChangePercent)
		}
	})
}

func TestInstrumentStateString(t *testing.T) {
	cases := []struct {
		state InstrumentState
		want  string
	}{
		{StatePending, "pending"},
		{StateFresh, "fresh"},
		{StateDegraded, "degraded"},
		{StateSuspended, "suspended"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("%d.String() = %q, want %q", tc.state, got, tc.want)
		}
	}
}

func TestParseTimeRange(t *testing.T) {
	for _, r := range TimeRanges() {
		got, err := ParseTimeRange(string(r))
		if err != nil {
			t.Errorf("ParseTimeRange(%q) error: %v", r, err)
		}
		if got != r {
			t.Errorf("ParseTimeRange(%q) = %q", r, got)
		}
	}
	if _, err := ParseTimeRange("Fortnight"); err == nil {
		t.Error("ParseTimeRange accepted unknown range")
	}
}
