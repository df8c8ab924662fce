// Package ratelimit gates an upstream market.Source so repeated tool
// calls cannot hammer the provider. Both gates are off unless wired in
// by configuration; they pace calls, they never retry or drop them.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"yfmcp/internal/market"
)

// MinInterval wraps a source and enforces a minimum time between
// upstream calls. Concurrent calls wait until the interval has elapsed
// since the last call, or return early if the context is canceled.
type MinInterval struct {
	S        market.Source
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

func (m *MinInterval) Name() string { return m.S.Name() }

func (m *MinInterval) Chart(ctx context.Context, symbol string, q market.ChartQuery) (*market.ChartResult, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	defer m.mark()
	return m.S.Chart(ctx, symbol, q)
}

func (m *MinInterval) Fundamentals(ctx context.Context, symbol string) (*market.Fundamentals, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	defer m.mark()
	return m.S.Fundamentals(ctx, symbol)
}

func (m *MinInterval) Search(ctx context.Context, query string, limit int) ([]market.TickerMatch, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}
	defer m.mark()
	return m.S.Search(ctx, query, limit)
}

func (m *MinInterval) wait(ctx context.Context) error {
	if m.Interval <= 0 {
		return nil
	}
	m.mu.Lock()
	wait := time.Until(m.last.Add(m.Interval))
	m.mu.Unlock()
	if wait <= 0 {
		return nil
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (m *MinInterval) mark() {
	if m.Interval <= 0 {
		return
	}
	m.mu.Lock()
	m.last = time.Now()
	m.mu.Unlock()
}
