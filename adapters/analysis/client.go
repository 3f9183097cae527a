package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

const (
	defaultStreamTimeout = 120 * time.Second
	readBufferSize       = 4096
)

// Config holds configuration for the analysis stream client.
// Required fields:
// - BaseURL: the analysis backend base URL
// Optional fields:
// - StreamTimeout: deadline for a whole analysis stream (default 120s, 0 disables)
type Config struct {
	BaseURL       string
	StreamTimeout time.Duration
}

// NewConfigFromEnv builds a Config from ANALYSIS_API_URL and
// ANALYSIS_TIMEOUT_SECONDS.
func NewConfigFromEnv() Config {
	config := Config{
		BaseURL:       os.Getenv("ANALYSIS_API_URL"),
		StreamTimeout: defaultStreamTimeout,
	}
	if s := os.Getenv("ANALYSIS_TIMEOUT_SECONDS"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs >= 0 {
			config.StreamTimeout = time.Duration(secs) * time.Second
		}
	}
	return config
}

// Client consumes the newline-delimited JSON analysis stream
type Client struct {
	baseURL       string
	streamTimeout time.Duration
	httpClient    *http.Client
	logger        *zap.Logger
}

// Ensure Client implements the NewsAnalyzer interface
var _ repositories.NewsAnalyzer = (*Client)(nil)

// NewClient creates an analysis stream client
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("analysis base URL is required")
	}
	return &Client{
		baseURL:       config.BaseURL,
		streamTimeout: config.StreamTimeout,
		httpClient:    &http.Client{},
		logger:        logger,
	}, nil
}

// Analyze POSTs the news article and decodes the response stream,
// emitting each record in arrival order. It returns a non-nil error when
// the stream cannot be opened, returns a non-success status, or is cut
// off mid-flight; records emitted before the failure stand.
func (c *Client) Analyze(ctx context.Context, req repositories.AnalysisRequest, emit func(repositories.AnalysisEvent)) error {
	if c.streamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.streamTimeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis request: %w", err)
	}

	url := c.baseURL + "/process_news"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("Opening analysis stream",
		zap.String("ticker", req.CompanyTicker),
		zap.String("url", url))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to open analysis stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("analysis stream returned status %d: %s", resp.StatusCode, errorBody)
	}

	decoder := NewDecoder(c.logger)
	buffer := make([]byte, readBufferSize)
	records := 0

	for {
		n, err := resp.Body.Read(buffer)
		if n > 0 {
			for _, ev := range decoder.Push(buffer[:n]) {
				records++
				emit(ev)
			}
		}
		if err == io.EOF {
			decoder.Finish()
			c.logger.Info("Analysis stream ended",
				zap.String("ticker", req.CompanyTicker),
				zap.Int("records", records))
			return nil
		}
		if err != nil {
			decoder.Finish()
			return fmt.Errorf("analysis stream read failed: %w", err)
		}
	}
}
