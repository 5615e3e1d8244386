package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

const yahooAPIURL = "https://query1.finance.yahoo.com"

// YahooProvider implements Source against the Yahoo Finance JSON endpoints
// (free, no API key needed).
type YahooProvider struct {
	client  *http.Client
	baseURL string
}

// NewYahooProvider creates new Yahoo Finance market-data provider.
func NewYahooProvider(timeout time.Duration) *YahooProvider {
	return &YahooProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: yahooAPIURL,
	}
}

func (y *YahooProvider) GetName() string {
	return "yahoo_finance"
}

func (y *YahooProvider) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", y.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; tracker/1.0)")

	resp, err := y.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetQuote returns current market capitalization for a ticker. An absent
// marketCap field yields a null value, not an error.
func (y *YahooProvider) GetQuote(ctx context.Context, ticker string) (Quote, error) {
	var result struct {
		QuoteResponse struct {
			Result []struct {
				MarketCap *float64 `json:"marketCap"`
			} `json:"result"`
		} `json:"quoteResponse"`
	}

	path := fmt.Sprintf("/v7/finance/quote?symbols=%s", url.QueryEscape(ticker))
	if err := y.getJSON(ctx, path, &result); err != nil {
		return Quote{}, err
	}

	if len(result.QuoteResponse.Result) == 0 {
		return Quote{}, fmt.Errorf("ticker not found: %s", ticker)
	}

	var quote Quote
	if mc := result.QuoteResponse.Result[0].MarketCap; mc != nil {
		quote.MarketCap = decimal.NewNullDecimal(decimal.NewFromFloat(*mc))
	}
	return quote, nil
}

// GetPriceHistory returns daily closes for the trailing window, oldest
// first. Null closes (market holidays, halted sessions) are skipped.
func (y *YahooProvider) GetPriceHistory(ctx context.Context, ticker string, days int) ([]PriceBar, error) {
	var result struct {
		Chart struct {
			Result []struct {
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []*float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}

	path := fmt.Sprintf("/v8/finance/chart/%s?range=%dd&interval=1d", url.PathEscape(ticker), days)
	if err := y.getJSON(ctx, path, &result); err != nil {
		return nil, err
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no price history for %s", ticker)
	}

	chart := result.Chart.Result[0]
	closes := chart.Indicators.Quote[0].Close

	bars := make([]PriceBar, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		bars = append(bars, PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: decimal.NewFromFloat(*closes[i]),
		})
	}

	return bars, nil
}

// flexDate tolerates the two calendar date shapes seen in the wild: a bare
// epoch number and a {"raw": epoch, "fmt": "..."} object.
type flexDate struct {
	t *time.Time
}

func (f *flexDate) UnmarshalJSON(data []byte) error {
	var epoch int64
	if err := json.Unmarshal(data, &epoch); err == nil {
		t := time.Unix(epoch, 0).UTC()
		f.t = &t
		return nil
	}

	var wrapped struct {
		Raw *int64  `json:"raw"`
		Fmt *string `json:"fmt"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil {
		if wrapped.Raw != nil {
			t := time.Unix(*wrapped.Raw, 0).UTC()
			f.t = &t
			return nil
		}
		if wrapped.Fmt != nil {
			if t, err := time.Parse("2006-01-02", *wrapped.Fmt); err == nil {
				f.t = &t
				return nil
			}
		}
	}

	// Unrecognized shape degrades to nil rather than failing the decode.
	f.t = nil
	return nil
}

// GetEarningsDates returns last/next earnings dates parsed from the earnings
// calendar. Missing calendar sections degrade to nil dates.
func (y *YahooProvider) GetEarningsDates(ctx context.Context, ticker string) (EarningsDates, error) {
	var result struct {
		QuoteSummary struct {
			Result []struct {
				CalendarEvents *struct {
					Earnings struct {
						EarningsDate []flexDate `json:"earningsDate"`
					} `json:"earnings"`
				} `json:"calendarEvents"`
				EarningsHistory *struct {
					History []struct {
						Quarter flexDate `json:"quarter"`
					} `json:"history"`
				} `json:"earningsHistory"`
			} `json:"result"`
		} `json:"quoteSummary"`
	}

	path := fmt.Sprintf("/v10/finance/quoteSummary/%s?modules=calendarEvents%%2CearningsHistory", url.PathEscape(ticker))
	if err := y.getJSON(ctx, path, &result); err != nil {
		return EarningsDates{}, err
	}

	if len(result.QuoteSummary.Result) == 0 {
		return EarningsDates{}, fmt.Errorf("no calendar for %s", ticker)
	}

	var dates EarningsDates
	entry := result.QuoteSummary.Result[0]

	if entry.CalendarEvents != nil {
		for _, d := range entry.CalendarEvents.Earnings.EarningsDate {
			if d.t != nil {
				dates.Next = d.t
				break
			}
		}
	}

	if entry.EarningsHistory != nil {
		for _, h := range entry.EarningsHistory.History {
			if h.Quarter.t != nil && (dates.Last == nil || h.Quarter.t.After(*dates.Last)) {
				q := *h.Quarter.t
				dates.Last = &q
			}
		}
	}

	return dates, nil
}
