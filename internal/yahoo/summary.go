package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"yfmcp/internal/market"
)

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} number wrapper.
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail struct {
				TrailingPE    rawValue `json:"trailingPE"`
				ForwardPE     rawValue `json:"forwardPE"`
				DividendYield rawValue `json:"dividendYield"`
				MarketCap     rawValue `json:"marketCap"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				PriceToBook rawValue `json:"priceToBook"`
				TrailingEps rawValue `json:"trailingEps"`
			} `json:"defaultKeyStatistics"`
			AssetProfile struct {
				Sector string `json:"sector"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteSummary"`
}

// Fundamentals fetches the valuation fields reported by the v10
// quoteSummary endpoint. Missing fields come back nil.
func (c *Client) Fundamentals(ctx context.Context, symbol string) (*market.Fundamentals, error) {
	v := url.Values{}
	v.Set("modules", "summaryDetail,defaultKeyStatistics,assetProfile")
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.baseURL, url.PathEscape(symbol), v.Encode())

	var resp summaryResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("%w: %s: %s", market.ErrNotFound, symbol, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s: empty summary result", market.ErrNotFound, symbol)
	}

	res := resp.QuoteSummary.Result[0]
	f := &market.Fundamentals{
		TrailingPE:  res.SummaryDetail.TrailingPE.Raw,
		ForwardPE:   res.SummaryDetail.ForwardPE.Raw,
		PriceToBook: res.DefaultKeyStatistics.PriceToBook.Raw,
		TrailingEPS: res.DefaultKeyStatistics.TrailingEps.Raw,
	}
	if mc := res.SummaryDetail.MarketCap.Raw; mc != nil {
		mcap := int64(*mc)
		f.MarketCap = &mcap
	}
	if s := res.AssetProfile.Sector; s != "" {
		f.Sector = &s
	}
	// Yahoo reports dividend yield sometimes as a percentage and
	// sometimes as a fraction; normalize to a fraction.
	if dy := res.SummaryDetail.DividendYield.Raw; dy != nil && *dy > 0 {
		frac := *dy
		if frac >= 1.0 {
			frac = frac / 100.0
		}
		f.DividendYield = &frac
	}
	return f, nil
}
