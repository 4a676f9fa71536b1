package yahoo

import (
	"context"
	"math"
	"net/url"

	"github.com/wonny/moat/internal/contracts"
)

type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			SummaryDetail *struct {
				FiftyTwoWeekLow  *rawValue `json:"fiftyTwoWeekLow"`
				FiftyTwoWeekHigh *rawValue `json:"fiftyTwoWeekHigh"`
			} `json:"summaryDetail"`
			Price *struct {
				ExchangeName string `json:"exchangeName"`
				Exchange     string `json:"exchange"`
			} `json:"price"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

// FetchPriceSummary fetches the 52-week range and exchange of a symbol.
// Missing bounds are NaN; nil, nil means no data at all.
// ⭐ SSOT: 52주 가격 범위 조회는 이 함수에서만
func (c *Client) FetchPriceSummary(ctx context.Context, symbol string) (*contracts.PriceSummary, error) {
	params := url.Values{}
	params.Set("modules", "summaryDetail,price")

	var resp quoteSummaryResponse
	ok, err := c.getJSON(ctx, "/v10/finance/quoteSummary/"+url.PathEscape(symbol), params, &resp)
	if err != nil || !ok {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil || len(resp.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	result := resp.QuoteSummary.Result[0]
	if result.SummaryDetail == nil {
		return nil, nil
	}

	summary := &contracts.PriceSummary{
		FiftyTwoWeekLow:  rawOrNaN(result.SummaryDetail.FiftyTwoWeekLow),
		FiftyTwoWeekHigh: rawOrNaN(result.SummaryDetail.FiftyTwoWeekHigh),
	}
	if result.Price != nil {
		summary.ExchangeName = result.Price.ExchangeName
		if summary.ExchangeName == "" {
			summary.ExchangeName = result.Price.Exchange
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"low":    summary.FiftyTwoWeekLow,
		"high":   summary.FiftyTwoWeekHigh,
	}).Debug("Fetched price summary")
	return summary, nil
}

func rawOrNaN(v *rawValue) float64 {
	if v == nil || v.Raw == nil {
		return math.NaN()
	}
	return *v.Raw
}
