package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"filingsync/pkg/core/fetch"
)

// TokenSource supplies a bearer token for the quote provider. Implementations
// are expected to cache and refresh internally.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token. Useful
// for providers with long-lived API keys and for tests.
type StaticToken string

func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// Client fetches daily price history. All requests go through the shared
// rate-limited fetcher.
type Client struct {
	fetcher *fetch.Client
	baseURL string
	tokens  TokenSource
}

func NewClient(fetcher *fetch.Client, baseURL string, tokens TokenSource) *Client {
	return &Client{fetcher: fetcher, baseURL: baseURL, tokens: tokens}
}

// FetchDailyBars returns daily candles for symbol between from and to
// inclusive, oldest first. Dates are YYYY-MM-DD.
func (c *Client) FetchDailyBars(ctx context.Context, symbol, from, to string) ([]Bar, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("market token for %s: %w", symbol, err)
	}

	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("periodType", "year")
	q.Set("frequencyType", "daily")
	q.Set("frequency", "1")
	startMs, err := epochMillis(from)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q for %s: %w", from, symbol, err)
	}
	endMs, err := epochMillis(to)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q for %s: %w", to, symbol, err)
	}
	q.Set("startDate", fmt.Sprintf("%d", startMs))
	q.Set("endDate", fmt.Sprintf("%d", endMs))

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/pricehistory?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build price history request for %s: %w", symbol, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := c.fetcher.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload priceHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode price history for %s: %w", symbol, err)
	}
	if payload.Empty {
		return nil, nil
	}

	bars := make([]Bar, 0, len(payload.Candles))
	for _, cd := range payload.Candles {
		bars = append(bars, Bar{
			Symbol: symbol,
			Date:   time.UnixMilli(cd.Datetime).UTC().Format("2006-01-02"),
			Open:   cd.Open,
			High:   cd.High,
			Low:    cd.Low,
			Close:  cd.Close,
			Volume: cd.Volume,
		})
	}
	return bars, nil
}

func epochMillis(date string) (int64, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}
