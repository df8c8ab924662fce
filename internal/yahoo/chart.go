package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"yfmcp/internal/market"
)

// chartResponse is the v8 chart API envelope. Bar values arrive as
// nullable arrays: holidays and halted sessions are nulls, not gaps.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *apiError     `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Currency             string `json:"currency"`
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

// Chart fetches OHLCV bars for a symbol. An unknown symbol maps to
// market.ErrNotFound; a known symbol with no bars in the window yields
// an empty, non-nil candle slice.
func (c *Client) Chart(ctx context.Context, symbol string, q market.ChartQuery) (*market.ChartResult, error) {
	v := url.Values{}
	interval := q.Interval
	if interval == "" {
		interval = "1d"
	}
	v.Set("interval", interval)
	if !q.Start.IsZero() {
		// period2 is exclusive upstream; push it one day past the
		// inclusive end of the requested window.
		end := q.End
		if end.IsZero() {
			end = time.Now()
		}
		v.Set("period1", strconv.FormatInt(q.Start.Unix(), 10))
		v.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	} else {
		rng := q.Range
		if rng == "" {
			rng = "1y"
		}
		v.Set("range", rng)
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), v.Encode())
	var resp chartResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", market.ErrNotFound, symbol, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s: empty chart result", market.ErrNotFound, symbol)
	}

	res := resp.Chart.Result[0]
	loc := time.UTC
	if tz := res.Meta.ExchangeTimezoneName; tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}

	candles := make([]market.Candle, 0, len(res.Timestamp))
	if len(res.Indicators.Quote) > 0 {
		quote := res.Indicators.Quote[0]
		for i, ts := range res.Timestamp {
			if i >= len(quote.Close) || quote.Close[i] == nil {
				continue // null bar (holiday, halted session)
			}
			candles = append(candles, market.Candle{
				Date:   time.Unix(ts, 0).In(loc).Format("2006-01-02"),
				Open:   fval(quote.Open, i),
				High:   fval(quote.High, i),
				Low:    fval(quote.Low, i),
				Close:  *quote.Close[i],
				Volume: ival(quote.Volume, i),
			})
		}
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Date < candles[j].Date })

	return &market.ChartResult{Currency: res.Meta.Currency, Candles: candles}, nil
}

func fval(vs []*float64, i int) float64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}

func ival(vs []*int64, i int) int64 {
	if i >= len(vs) || vs[i] == nil {
		return 0
	}
	return *vs[i]
}
