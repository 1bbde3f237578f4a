package api

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// InstrumentHeader is the raw payload of the instrument header endpoint.
type InstrumentHeader struct {
	ISIN            string          `json:"isin"`
	Name            string          `json:"name"`
	Price           *float64        `json:"price"`
	CurrencySign    string          `json:"currencySign"`
	PriceChangeDate json.RawMessage `json:"priceChangeDate"`
	ExchangeCode    string          `json:"exchangeCode"`
	ExchangeName    string          `json:"exchangeName"`

	// AdditionalMetaInformation carries the asset class in its first entry
	// (German display form, e.g. "Aktie", "Anleihe").
	AdditionalMetaInformation []string `json:"additionalMetaInformation"`
}

// GetInstrumentHeader fetches the current quote header for an ISIN.
// exchangeCode may be empty to request the upstream default listing.
func (c *Client) GetInstrumentHeader(ctx context.Context, isin, exchangeCode string) (*InstrumentHeader, error) {
	query := url.Values{}
	if exchangeCode != "" {
		query.Set("exchangeCode", exchangeCode)
	}

	var h InstrumentHeader
	if err := c.get(ctx, pathInstrumentHeader+url.PathEscape(isin), query, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// FetchQuote fetches a quote sample for the instrument. When the selected
// exchange reports no price, the upstream default listing is consulted once
// before the response is rejected as invalid.
func (c *Client) FetchQuote(ctx context.Context, isin, exchangeCode string) (model.QuoteSample, *InstrumentHeader, error) {
	h, err := c.GetInstrumentHeader(ctx, isin, exchangeCode)
	if err != nil {
		return model.QuoteSample{}, nil, err
	}

	if h.Price == nil && exchangeCode != "" {
		c.logger.Debug("no price on selected exchange, falling back to default listing",
			"isin", isin,
			"exchange", exchangeCode,
		)
		h, err = c.GetInstrumentHeader(ctx, isin, "")
		if err != nil {
			return model.QuoteSample{}, nil, err
		}
	}

	sample, err := h.Sample(time.Now())
	if err != nil {
		return model.QuoteSample{}, h, err
	}
	return sample, h, nil
}
