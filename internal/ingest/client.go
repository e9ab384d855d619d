// Package ingest fetches company listings, annual fundamentals and daily
// prices from the Nasdaq Data Link tables API. It is the data-fetch
// collaborator: retries, rate limiting and pagination live here, never in
// the screening or backtest engines.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	baseURL        = "https://data.nasdaq.com/api/v3/datatables"
	defaultTimeout = 60 * time.Second
	rateLimit      = 2 // requests per second
	maxAttempts    = 3

	tickersTable      = "SHARADAR/TICKERS"
	fundamentalsTable = "SHARADAR/SF1"
	pricesTable       = "SHARADAR/SEP"
)

// Client is a rate-limited client for the tables API.
type Client struct {
	apiKey     string
	httpClient *http.Client
	limiter    *rateLimiter
}

// rateLimiter spaces calls out to a fixed interval.
type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	return &rateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
	}
}

func (r *rateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if elapsed := time.Since(r.lastCall); elapsed < r.interval {
		time.Sleep(r.interval - elapsed)
	}
	r.lastCall = time.Now()
}

// NewClient creates a new tables API client.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		limiter: newRateLimiter(rateLimit),
	}
}

// FetchTickers fetches company listings. An empty tickers slice fetches
// everything.
func (c *Client) FetchTickers(ctx context.Context, tickers []string) ([]TickerRow, error) {
	params := map[string]string{"table": "SF1"}
	if len(tickers) > 0 {
		params["ticker"] = strings.Join(tickers, ",")
	}

	resp, err := c.fetchTable(ctx, tickersTable, params)
	if err != nil {
		return nil, fmt.Errorf("fetching tickers: %w", err)
	}
	return ParseTickers(resp), nil
}

// FetchFundamentals fetches annual (MRY) fundamental periods. A zero
// since time fetches all history.
func (c *Client) FetchFundamentals(ctx context.Context, tickers []string, since time.Time) ([]FundamentalRow, error) {
	params := map[string]string{"dimension": "MRY"}
	if len(tickers) > 0 {
		params["ticker"] = strings.Join(tickers, ",")
	}
	if !since.IsZero() {
		params["lastupdated.gte"] = since.Format("2006-01-02")
	}

	resp, err := c.fetchTable(ctx, fundamentalsTable, params)
	if err != nil {
		return nil, fmt.Errorf("fetching fundamentals: %w", err)
	}
	return ParseFundamentals(resp), nil
}

// FetchDailyPrices fetches daily OHLCV bars. At least one ticker is
// required; a full-universe price fetch is never intentional.
func (c *Client) FetchDailyPrices(ctx context.Context, tickers []string, since time.Time) ([]EODRow, error) {
	if len(tickers) == 0 {
		return nil, fmt.Errorf("at least one ticker required for price fetch")
	}

	params := map[string]string{"ticker": strings.Join(tickers, ",")}
	if !since.IsZero() {
		params["date.gte"] = since.Format("2006-01-02")
	}

	resp, err := c.fetchTable(ctx, pricesTable, params)
	if err != nil {
		return nil, fmt.Errorf("fetching daily prices: %w", err)
	}
	return ParseEOD(resp), nil
}

// fetchTable fetches every page of a table, following cursors.
func (c *Client) fetchTable(ctx context.Context, table string, params map[string]string) (*Response, error) {
	all := &Response{}
	var cursorID *string

	for {
		resp, err := c.fetchPage(ctx, table, params, cursorID)
		if err != nil {
			return nil, err
		}

		if len(all.Datatable.Columns) == 0 {
			all.Datatable.Columns = resp.Datatable.Columns
		}
		all.Datatable.Data = append(all.Datatable.Data, resp.Datatable.Data...)

		if resp.Meta.NextCursorID == nil || *resp.Meta.NextCursorID == "" {
			break
		}
		cursorID = resp.Meta.NextCursorID
	}

	return all, nil
}

// fetchPage fetches a single page with retries and backoff. Context
// cancellation is never retried.
func (c *Client) fetchPage(ctx context.Context, table string, params map[string]string, cursorID *string) (*Response, error) {
	u, err := url.Parse(fmt.Sprintf("%s/%s.json", baseURL, table))
	if err != nil {
		return nil, fmt.Errorf("invalid table name: %w", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	for k, v := range params {
		q.Set(k, v)
	}
	if cursorID != nil {
		q.Set("qopts.cursor_id", *cursorID)
	}
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<attempt) * time.Second
			log.Printf("Retry attempt %d after %v", attempt, backoff)
			time.Sleep(backoff)
		}

		c.limiter.Wait()

		resp, err := c.doRequest(ctx, u.String())
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Printf("Request failed (attempt %d): %v", attempt+1, err)
	}

	return nil, fmt.Errorf("all retries failed: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, urlStr string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", httpResp.StatusCode, string(body))
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	return &resp, nil
}
