package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"yfmcp/internal/market"
)

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search looks up tickers by company name or keyword. Results keep the
// provider's relevance order; no matches is an empty slice, not an error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]market.TickerMatch, error) {
	if limit <= 0 {
		limit = 10
	}
	v := url.Values{}
	v.Set("q", query)
	v.Set("quotesCount", strconv.Itoa(limit))
	v.Set("newsCount", "0")
	u := fmt.Sprintf("%s/v1/finance/search?%s", c.baseURL, v.Encode())

	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	matches := make([]market.TickerMatch, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		matches = append(matches, market.TickerMatch{
			Symbol:    q.Symbol,
			ShortName: q.ShortName,
			LongName:  q.LongName,
			Exchange:  q.Exchange,
			Type:      q.QuoteType,
		})
		if len(matches) >= limit {
			break
		}
	}
	return matches, nil
}
