package api

import (
	"context"
	"net/url"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// exchangeItem is one raw entry of the exchanges endpoint.
type exchangeItem struct {
	ExchangeCode    string `json:"exchangeCode"`
	ExchangeName    string `json:"exchangeName"`
	ExchangeID      int    `json:"exchangeId"`
	CurrencyID      int    `json:"currencyId"`
	CurrencySign    string `json:"currencySign"`
	CurrencyISOCode string `json:"currencyIsoCode"`
	CurrencyName    string `json:"currencyName"`
	IsDefault       bool   `json:"isDefault"`
	IsRealtime      bool   `json:"isRealtime"`
	SortOrder       *int   `json:"sortOrder"`
}

type exchangesResponse struct {
	Items []exchangeItem `json:"items"`
}

// GetExchanges fetches the selectable exchange/currency listings for an ISIN.
// An ISIN unknown to upstream yields an empty slice, not an error.
func (c *Client) GetExchanges(ctx context.Context, isin string) ([]model.ExchangeListing, error) {
	var resp exchangesResponse
	if err := c.get(ctx, pathExchanges+url.PathEscape(isin), nil, &resp); err != nil {
		return nil, err
	}

	listings := make([]model.ExchangeListing, 0, len(resp.Items))
	for _, it := range resp.Items {
		sign := it.CurrencySign
		if sign == "" {
			sign = it.CurrencyISOCode
		}
		sortOrder := 9999
		if it.SortOrder != nil {
			sortOrder = *it.SortOrder
		}
		listings = append(listings, model.ExchangeListing{
			Code:         it.ExchangeCode,
			Name:         it.ExchangeName,
			ExchangeID:   it.ExchangeID,
			CurrencyID:   it.CurrencyID,
			CurrencySign: sign,
			CurrencyName: it.CurrencyName,
			Default:      it.IsDefault,
			Realtime:     it.IsRealtime,
			SortOrder:    sortOrder,
		})
	}
	return listings, nil
}
