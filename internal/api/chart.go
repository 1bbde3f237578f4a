package api

import (
	"context"
	"net/url"
	"strconv"

	"github.com/AndrewSteel/isin-quotes/internal/model"
)

// ChartData is a normalized historical series. Exactly one of Line or OHLC
// is populated, according to the requested mode.
type ChartData struct {
	OHLC    bool
	Line    []model.HistoryPoint
	Candles []model.OHLCPoint
}

type chartMetaResponse struct {
	TimeRanges []string `json:"timeRanges"`
}

type chartDataResponse struct {
	Instruments []struct {
		Data [][]float64 `json:"data"`
	} `json:"instruments"`
}

// GetTimeRanges fetches the chart ranges available for an ISIN. Ranges the
// client does not know are dropped.
func (c *Client) GetTimeRanges(ctx context.Context, isin string) ([]model.TimeRange, error) {
	var resp chartMetaResponse
	if err := c.get(ctx, pathChartMeta+url.PathEscape(isin), nil, &resp); err != nil {
		return nil, err
	}

	ranges := make([]model.TimeRange, 0, len(resp.TimeRanges))
	for _, raw := range resp.TimeRanges {
		r, err := model.ParseTimeRange(raw)
		if err != nil {
			c.logger.Debug("skipping unknown time range", "isin", isin, "range", raw)
			continue
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// GetChartData fetches a historical series for the instrument.
func (c *Client) GetChartData(ctx context.Context, isin string, timeRange model.TimeRange, exchangeID, currencyID int, ohlc bool) (*ChartData, error) {
	query := url.Values{}
	query.Set("timeRange", string(timeRange))
	query.Set("exchangeId", strconv.Itoa(exchangeID))
	query.Set("currencyId", strconv.Itoa(currencyID))
	query.Set("ohlc", strconv.FormatBool(ohlc))

	var resp chartDataResponse
	if err := c.get(ctx, pathChartData+url.PathEscape(isin), query, &resp); err != nil {
		return nil, err
	}

	if len(resp.Instruments) == 0 {
		return nil, &Error{
			Kind:    KindInvalidResponse,
			Message: "chart data has no instruments",
		}
	}

	rows := resp.Instruments[0].Data
	data := &ChartData{OHLC: ohlc}
	var err error
	if ohlc {
		data.Candles, err = convertOHLC(rows)
	} else {
		data.Line, err = convertLine(rows)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}
