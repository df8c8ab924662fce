package yahoo_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"yfmcp/internal/market"
	"yfmcp/internal/yahoo"
)

func chartBody(tz string, timestamps []int64, closes []string) string {
	ts := make([]string, len(timestamps))
	for i, v := range timestamps {
		ts[i] = strconv.FormatInt(v, 10)
	}
	opens, highs, lows, volumes := make([]string, len(closes)), make([]string, len(closes)), make([]string, len(closes)), make([]string, len(closes))
	for i, c := range closes {
		if c == "null" {
			opens[i], highs[i], lows[i], volumes[i] = "null", "null", "null", "null"
			continue
		}
		opens[i] = c
		highs[i] = c
		lows[i] = c
		volumes[i] = "1000"
	}
	return fmt.Sprintf(`{"chart":{"result":[{
		"meta":{"currency":"JPY","symbol":"7203.T","exchangeTimezoneName":%q},
		"timestamp":[%s],
		"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}
	}],"error":null}}`,
		tz, join(ts), join(opens), join(highs), join(lows), join(closes), join(volumes))
}

func join(ss []string) string {
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}

func TestChart_ParsesBarsAndSkipsNulls(t *testing.T) {
	t.Parallel()

	jst, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	day := func(d int) int64 { return time.Date(2025, 1, d, 9, 0, 0, 0, jst).Unix() }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v8/finance/chart/7203.T", r.URL.Path)
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		require.Equal(t, "1y", r.URL.Query().Get("range"))
		// middle bar is a holiday null
		fmt.Fprint(w, chartBody("Asia/Tokyo",
			[]int64{day(6), day(7), day(8)},
			[]string{"2500.5", "null", "2510.0"},
		))
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL))
	res, err := client.Chart(t.Context(), "7203.T", market.ChartQuery{Interval: "1d", Range: "1y"})
	require.NoError(t, err)
	require.Equal(t, "JPY", res.Currency)
	require.Len(t, res.Candles, 2)
	require.Equal(t, "2025-01-06", res.Candles[0].Date)
	require.Equal(t, "2025-01-08", res.Candles[1].Date)
	require.Equal(t, 2500.5, res.Candles[0].Close)
	require.Equal(t, int64(1000), res.Candles[0].Volume)
}

func TestChart_InclusiveDateWindow(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, strconv.FormatInt(start.Unix(), 10), r.URL.Query().Get("period1"))
		// period2 is exclusive upstream, so the client sends end + 1 day
		require.Equal(t, strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10), r.URL.Query().Get("period2"))
		require.Empty(t, r.URL.Query().Get("range"))
		fmt.Fprint(w, chartBody("UTC", []int64{start.Unix()}, []string{"2500.0"}))
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL))
	res, err := client.Chart(t.Context(), "7203.T", market.ChartQuery{Interval: "1d", Start: start, End: end})
	require.NoError(t, err)
	require.Len(t, res.Candles, 1)
}

func TestChart_UnknownSymbolIs404NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL))
	_, err := client.Chart(t.Context(), "0000.T", market.ChartQuery{})
	require.ErrorIs(t, err, market.ErrNotFound)
}

func TestChart_ErrorEnvelopeIsNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"no data"}}}`)
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL))
	_, err := client.Chart(t.Context(), "0000.T", market.ChartQuery{})
	require.ErrorIs(t, err, market.ErrNotFound)
}

func TestChart_ServerErrorIsUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL))
	_, err := client.Chart(t.Context(), "7203.T", market.ChartQuery{})
	require.ErrorIs(t, err, market.ErrUpstreamUnavailable)
}

func TestChart_RateLimitedIsUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL))
	_, err := client.Chart(t.Context(), "7203.T", market.ChartQuery{})
	require.ErrorIs(t, err, market.ErrUpstreamUnavailable)
}

func TestChart_EmptyWindowYieldsEmptyCandles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{
			"meta":{"currency":"JPY","symbol":"7203.T","exchangeTimezoneName":"Asia/Tokyo"},
			"indicators":{"quote":[{}]}
		}],"error":null}}`)
	}))
	defer srv.Close()

	client := yahoo.NewClient(yahoo.WithBaseURL(srv.URL))
	res, err := client.Chart(t.Context(), "7203.T", market.ChartQuery{Interval: "1d", Range: "5d"})
	require.NoError(t, err)
	require.Empty(t, res.Candles)
}
