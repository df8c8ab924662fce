// Package query is the facade between the presentation shells (MCP
// tools, CLI) and the upstream market-data source. Every operation is
// stateless: validate, delegate once, reshape.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"yfmcp/internal/market"
)

// pair maps an FX pair name to its provider symbol.
type pair struct {
	Name   string
	Symbol string
}

// fxPairs is the fixed JPY pair set, in output order.
var fxPairs = []pair{
	{"USDJPY", "USDJPY=X"},
	{"EURJPY", "EURJPY=X"},
	{"GBPJPY", "GBPJPY=X"},
	{"CNYJPY", "CNYJPY=X"},
}

// tickerSuffix is appended to TSE codes to form the provider symbol.
const tickerSuffix = ".T"

// Service answers the four lookup operations against a single Source.
type Service struct {
	src market.Source
	now func() time.Time
}

type Option func(*Service)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(src market.Source, options ...Option) *Service {
	s := &Service{src: src, now: time.Now}
	for _, option := range options {
		option(s)
	}
	return s
}

// StockPrice returns the latest snapshot for a TSE-listed stock.
// The one-year daily window also yields the 52-week high/low and the
// 30/90-day average volumes. Fundamentals are best effort: a failing
// summary call never fails the price call.
func (s *Service) StockPrice(ctx context.Context, code string) (*market.PriceSnapshot, error) {
	if err := validateCode(code); err != nil {
		return nil, err
	}
	ticker := code + tickerSuffix

	chart, err := s.src.Chart(ctx, ticker, market.ChartQuery{Interval: "1d", Range: "1y"})
	if err != nil {
		return nil, classify(err)
	}
	bars := chart.Candles
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no data for code=%s (ticker %s)", market.ErrNotFound, code, ticker)
	}

	last := bars[len(bars)-1]
	snap := &market.PriceSnapshot{
		Source:     s.src.Name(),
		Code:       code,
		Ticker:     ticker,
		Date:       last.Date,
		Close:      last.Close,
		Open:       last.Open,
		High:       last.High,
		Low:        last.Low,
		Volume:     last.Volume,
		Currency:   chart.Currency,
		Week52High: last.High,
		Week52Low:  last.Low,
	}
	for _, b := range bars {
		if b.High > snap.Week52High {
			snap.Week52High = b.High
		}
		if b.Low < snap.Week52Low {
			snap.Week52Low = b.Low
		}
	}
	if v, ok := avgVolume(bars, 30); ok {
		snap.AvgVolume30d = &v
	}
	if v, ok := avgVolume(bars, 90); ok {
		snap.AvgVolume90d = &v
	}

	if f, err := s.src.Fundamentals(ctx, ticker); err == nil && f != nil {
		snap.TrailingPE = f.TrailingPE
		snap.ForwardPE = f.ForwardPE
		snap.PriceToBook = f.PriceToBook
		snap.MarketCap = f.MarketCap
		snap.Sector = f.Sector
		snap.TrailingEPS = f.TrailingEPS
		snap.DividendYield = f.DividendYield
	}
	return snap, nil
}

// StockHistory returns the OHLCV series for an inclusive date window.
// end defaults to today, interval to "1d". The series may be empty when
// no trading occurred in the window.
func (s *Service) StockHistory(ctx context.Context, code, start, end, interval string) (*market.PriceHistory, error) {
	req, err := parseHistoryRequest(code, start, end, interval, s.now)
	if err != nil {
		return nil, err
	}
	ticker := code + tickerSuffix

	chart, err := s.src.Chart(ctx, ticker, market.ChartQuery{
		Interval: req.interval,
		Start:    req.start,
		End:      req.end,
	})
	if err != nil {
		return nil, classify(err)
	}

	hist := &market.PriceHistory{
		Source:  s.src.Name(),
		Ticker:  ticker,
		Candles: chart.Candles,
	}
	if n := len(chart.Candles); n > 0 {
		hist.Start = chart.Candles[0].Date
		hist.End = chart.Candles[n-1].Date
	}
	return hist, nil
}

// FXRates fetches the JPY rates for the given pair names, or all four
// when pairs is empty. Pairs are fetched concurrently; any failure
// fails the whole call so a successful result always carries one rate
// per requested pair.
func (s *Service) FXRates(ctx context.Context, pairs []string) ([]market.FXRate, error) {
	selected, err := selectPairs(pairs)
	if err != nil {
		return nil, err
	}

	rates := make([]market.FXRate, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(selected))
	for i, p := range selected {
		g.Go(func() error {
			chart, err := s.src.Chart(gctx, p.Symbol, market.ChartQuery{Interval: "1d", Range: "5d"})
			if err != nil {
				return classifyFX(p.Name, err)
			}
			n := len(chart.Candles)
			if n == 0 {
				return fmt.Errorf("%w: no rate for %s", market.ErrUpstreamUnavailable, p.Name)
			}
			last := chart.Candles[n-1]
			asOf, _ := time.Parse("2006-01-02", last.Date)
			rates[i] = market.FXRate{Pair: p.Name, Rate: last.Close, AsOf: asOf}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rates, nil
}

// SearchTicker looks up tickers by company name or keyword, in provider
// relevance order. No matches is an empty, non-nil slice.
func (s *Service) SearchTicker(ctx context.Context, q string) ([]market.TickerMatch, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	matches, err := s.src.Search(ctx, q, 10)
	if err != nil {
		return nil, classify(err)
	}
	if matches == nil {
		matches = []market.TickerMatch{}
	}
	return matches, nil
}

func avgVolume(bars []market.Candle, n int) (int64, bool) {
	if len(bars) < n {
		return 0, false
	}
	var sum int64
	for _, b := range bars[len(bars)-n:] {
		sum += b.Volume
	}
	return sum / int64(n), true
}

// classify keeps the typed failures and folds anything else into
// UpstreamUnavailable, so callers only ever see the three error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, market.ErrInvalidInput),
		errors.Is(err, market.ErrNotFound),
		errors.Is(err, market.ErrUpstreamUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", market.ErrUpstreamUnavailable, err)
	}
}

// classifyFX additionally folds NotFound into UpstreamUnavailable: the
// pair set is fixed, so a missing pair is a provider problem, not a bad
// symbol.
func classifyFX(pair string, err error) error {
	if errors.Is(err, market.ErrUpstreamUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", market.ErrUpstreamUnavailable, pair, err)
}
