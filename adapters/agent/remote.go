// Package agent provides clients for the follow-up Q&A agent: the remote
// FinGReaT master agent and a direct Gemini fallback for offline use.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

const defaultRequestTimeout = 60 * time.Second

// RemoteConfig holds configuration for the remote master-agent client.
// Required fields:
// - BaseURL: the FinGReaT backend base URL
type RemoteConfig struct {
	BaseURL string
}

// NewRemoteConfigFromEnv creates a RemoteConfig from ANALYSIS_API_URL
// (the agent lives on the same backend as the analysis stream).
func NewRemoteConfigFromEnv() RemoteConfig {
	return RemoteConfig{BaseURL: os.Getenv("ANALYSIS_API_URL")}
}

// RemoteAgent talks to the master agent on the analysis backend
type RemoteAgent struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure RemoteAgent implements the ConversationalAgent interface
var _ repositories.ConversationalAgent = (*RemoteAgent)(nil)

// NewRemoteAgent creates a remote master-agent client
func NewRemoteAgent(config RemoteConfig, logger *zap.Logger) (*RemoteAgent, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("agent base URL is required")
	}
	return &RemoteAgent{
		baseURL:    config.BaseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}, nil
}

// Ask sends a query with its analysis context and returns the plain-text answer
func (a *RemoteAgent) Ask(ctx context.Context, query repositories.AgentQuery) (string, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return "", fmt.Errorf("failed to marshal agent query: %w", err)
	}

	url := fmt.Sprintf("%s/%s/agents/master_agent", a.baseURL, query.Company)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("agent request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("agent returned status %d: %s", resp.StatusCode, errorBody)
	}

	answer, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read agent answer: %w", err)
	}

	a.logger.Info("Agent answered",
		zap.String("ticker", query.Company),
		zap.Int("chars", len(answer)))
	return string(answer), nil
}

// Conversations lists the stored turns for a ticker, oldest first
func (a *RemoteAgent) Conversations(ctx context.Context, ticker string) ([]repositories.ConversationTurn, error) {
	url := fmt.Sprintf("%s/%s/agents/master_agent/conversations", a.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversations request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("conversations request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("conversations returned status %d", resp.StatusCode)
	}

	var turns []repositories.ConversationTurn
	if err := json.NewDecoder(resp.Body).Decode(&turns); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return turns, nil
}

// ClearConversations deletes the stored turns for a ticker
func (a *RemoteAgent) ClearConversations(ctx context.Context, ticker string) error {
	url := fmt.Sprintf("%s/%s/agents/master_agent/conversations", a.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create clear request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clear request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear returned status %d", resp.StatusCode)
	}

	a.logger.Info("Agent conversation cleared", zap.String("ticker", ticker))
	return nil
}
