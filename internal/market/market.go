package market

import (
	"context"
	"time"
)

// PriceSnapshot is the normalized latest-price view of a single listing.
// Fundamental fields are pointers because the upstream summary endpoint
// frequently omits them; nil means "not reported".
type PriceSnapshot struct {
	Source       string  `json:"source"`
	Code         string  `json:"code"`
	Ticker       string  `json:"ticker"`
	Date         string  `json:"date"`
	Close        float64 `json:"close"`
	Open         float64 `json:"open"`
	High         float64 `json:"high"`
	Low          float64 `json:"low"`
	Volume       int64   `json:"volume"`
	Currency     string  `json:"currency"`
	Week52High   float64 `json:"week52_high"`
	Week52Low    float64 `json:"week52_low"`
	AvgVolume30d *int64  `json:"avg_volume_30d,omitempty"`
	AvgVolume90d *int64  `json:"avg_volume_90d,omitempty"`

	TrailingPE    *float64 `json:"trailing_pe,omitempty"`
	ForwardPE     *float64 `json:"forward_pe,omitempty"`
	PriceToBook   *float64 `json:"price_to_book,omitempty"`
	MarketCap     *int64   `json:"market_cap,omitempty"`
	Sector        *string  `json:"sector,omitempty"`
	TrailingEPS   *float64 `json:"trailing_eps,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
}

// Candle is one trading day (or week/month) of OHLCV data.
// Date is an ISO calendar date in the listing's exchange timezone,
// so lexical order equals chronological order.
type Candle struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// PriceHistory is an ordered OHLCV series for one ticker.
// Candles are sorted by date ascending and may be empty when no
// trading occurred in the requested window.
type PriceHistory struct {
	Source  string   `json:"source"`
	Ticker  string   `json:"ticker"`
	Start   string   `json:"start"`
	End     string   `json:"end"`
	Candles []Candle `json:"data"`
}

// FXRate is a single currency-pair rate at a point in time.
type FXRate struct {
	Pair string    `json:"pair"`
	Rate float64   `json:"rate"`
	AsOf time.Time `json:"as_of"`
}

// TickerMatch is one search hit, in provider relevance order.
type TickerMatch struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"short_name"`
	LongName  string `json:"long_name"`
	Exchange  string `json:"exchange"`
	Type      string `json:"type"`
}

// Fundamentals carries the optional valuation fields attached to a
// PriceSnapshot. All fields are nil when not reported.
type Fundamentals struct {
	TrailingPE    *float64
	ForwardPE     *float64
	PriceToBook   *float64
	MarketCap     *int64
	Sector        *string
	TrailingEPS   *float64
	DividendYield *float64
}

// ChartQuery selects the window and resolution of a Chart call.
// When Start/End are non-zero they take precedence over Range.
type ChartQuery struct {
	Interval string // "1d", "1wk", "1mo"
	Range    string // e.g. "5d", "1y"; ignored when Start is set
	Start    time.Time
	End      time.Time // inclusive
}

// ChartResult is the raw bar series plus the listing metadata the
// provider reports alongside it.
type ChartResult struct {
	Currency string
	Candles  []Candle
}

// Source is the upstream market-data contract. Implementations make
// exactly one upstream attempt per call and classify failures with the
// error sentinels in this package. A Source holds no per-request state
// and is safe for concurrent use.
type Source interface {
	Name() string
	Chart(ctx context.Context, symbol string, q ChartQuery) (*ChartResult, error)
	Fundamentals(ctx context.Context, symbol string) (*Fundamentals, error)
	Search(ctx context.Context, query string, limit int) ([]TickerMatch, error)
}
