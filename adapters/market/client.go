// Package market fetches stock quotes and price history from the feed
// backend. The orchestrator passes this data through untouched apart from
// name resolution and the derived change percentage.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

const defaultRequestTimeout = 30 * time.Second

// Config holds configuration for the market data client.
// Required fields:
// - BaseURL: the stock feed base URL
type Config struct {
	BaseURL string
}

// NewConfigFromEnv creates a Config from MARKET_API_URL, falling back to
// ANALYSIS_API_URL (the original backend serves both).
func NewConfigFromEnv() Config {
	base := os.Getenv("MARKET_API_URL")
	if base == "" {
		base = os.Getenv("ANALYSIS_API_URL")
	}
	return Config{BaseURL: base}
}

// Client implements MarketData over the feed's HTTP API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure Client implements the MarketData interface
var _ repositories.MarketData = (*Client)(nil)

// NewClient creates a market data client
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("market base URL is required")
	}
	return &Client{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}, nil
}

type rawQuote struct {
	Price  float64 `json:"price"`
	Change float64 `json:"change"`
}

// Snapshot returns current quotes for every tracked symbol, sorted by symbol
func (c *Client) Snapshot(ctx context.Context) ([]repositories.Quote, error) {
	var raw map[string]rawQuote
	if err := c.getJSON(ctx, "/market_prices", &raw); err != nil {
		return nil, err
	}

	quotes := make([]repositories.Quote, 0, len(raw))
	for symbol, q := range raw {
		quotes = append(quotes, buildQuote(symbol, q))
	}
	sort.Slice(quotes, func(i, j int) bool { return quotes[i].Symbol < quotes[j].Symbol })
	return quotes, nil
}

// Quote returns the current quote for one symbol
func (c *Client) Quote(ctx context.Context, symbol string) (repositories.Quote, error) {
	var raw rawQuote
	if err := c.getJSON(ctx, "/market_price/"+url.PathEscape(symbol), &raw); err != nil {
		return repositories.Quote{}, err
	}
	return buildQuote(symbol, raw), nil
}

// History returns daily candles for a symbol between two YYYY-MM-DD dates.
// The feed encodes each day as a [date, open, high, low, close, volume] tuple.
func (c *Client) History(ctx context.Context, symbol, fromDate, toDate string) ([]repositories.Candle, error) {
	path := fmt.Sprintf("/time_series_price?company=%s&from_date=%s&to_date=%s",
		url.QueryEscape(symbol), url.QueryEscape(fromDate), url.QueryEscape(toDate))

	var rows [][]any
	if err := c.getJSON(ctx, path, &rows); err != nil {
		return nil, err
	}

	candles := make([]repositories.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			c.logger.Warn("Skipping short history row", zap.Int("fields", len(row)))
			continue
		}
		date, _ := row[0].(string)
		candles = append(candles, repositories.Candle{
			Date:   date,
			Open:   toFloat(row[1]),
			High:   toFloat(row[2]),
			Low:    toFloat(row[3]),
			Close:  toFloat(row[4]),
			Volume: toFloat(row[5]),
		})
	}
	return candles, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create market request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("market request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("market feed returned status %d for %s", resp.StatusCode, path)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode market response: %w", err)
	}
	return nil
}

func buildQuote(symbol string, raw rawQuote) repositories.Quote {
	quote := repositories.Quote{
		Symbol: symbol,
		Name:   CompanyName(symbol),
		Price:  raw.Price,
		Change: raw.Change,
	}
	if prev := raw.Price - raw.Change; prev != 0 {
		quote.ChangePercent = math.Round(raw.Change/prev*10000) / 100
	}
	return quote
}

func toFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
