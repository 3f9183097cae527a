package agent

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"

	geminiSystemPrompt = "You are a knowledgeable stock market assistant specializing in Indian " +
		"markets, particularly the NIFTY 50 index. Answer the user's question about the given " +
		"company using the provided movement prediction, its explanation, and the originating " +
		"news article. Be professional, concise, and helpful."
)

// GeminiConfig holds configuration for the Gemini agent.
// Required fields:
// - APIKey: Google AI API key
// Optional fields with defaults:
// - Model: generation model (default "gemini-2.0-flash")
type GeminiConfig struct {
	APIKey string
	Model  string
}

// NewGeminiConfigFromEnv creates a GeminiConfig from environment variables
func NewGeminiConfigFromEnv() GeminiConfig {
	return GeminiConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  os.Getenv("GEMINI_MODEL"),
	}
}

// GeminiAgent answers follow-up questions directly against Gemini when no
// remote master agent is configured. Turns are kept in memory per ticker;
// they do not survive a restart.
type GeminiAgent struct {
	client *genai.Client
	model  string
	logger *zap.Logger

	mu    sync.Mutex
	turns map[string][]repositories.ConversationTurn
}

// Ensure GeminiAgent implements the ConversationalAgent interface
var _ repositories.ConversationalAgent = (*GeminiAgent)(nil)

// NewGeminiAgent creates a new Gemini-backed agent
func NewGeminiAgent(ctx context.Context, config GeminiConfig, logger *zap.Logger) (*GeminiAgent, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultGeminiModel
		logger.Info("Using default Gemini model", zap.String("model", model))
	}

	return &GeminiAgent{
		client: client,
		model:  model,
		logger: logger,
		turns:  make(map[string][]repositories.ConversationTurn),
	}, nil
}

// Ask generates an answer from the query and its tagged analysis context
func (g *GeminiAgent) Ask(ctx context.Context, query repositories.AgentQuery) (string, error) {
	var sb strings.Builder
	sb.WriteString(geminiSystemPrompt)
	sb.WriteString("\n\nCompany: " + query.Company)
	if query.MovementPrediction != "" {
		sb.WriteString("\nPredicted movement: " + query.MovementPrediction)
	}
	if query.Explanation != "" {
		sb.WriteString("\nExplanation: " + query.Explanation)
	}
	if query.News != "" {
		sb.WriteString("\nNews article: " + query.News)
	}
	sb.WriteString("\n\nQuestion: " + query.Query)

	contents := []*genai.Content{genai.NewContentFromText(sb.String(), genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	answer := resp.Text()
	if answer == "" {
		return "", fmt.Errorf("gemini returned an empty answer")
	}

	g.mu.Lock()
	g.turns[query.Company] = append(g.turns[query.Company], repositories.ConversationTurn{
		User:      query.Query,
		Assistant: answer,
	})
	g.mu.Unlock()

	g.logger.Info("Gemini agent answered",
		zap.String("ticker", query.Company),
		zap.Int("chars", len(answer)))
	return answer, nil
}

// Conversations lists the in-memory turns for a ticker
func (g *GeminiAgent) Conversations(_ context.Context, ticker string) ([]repositories.ConversationTurn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	turns := make([]repositories.ConversationTurn, len(g.turns[ticker]))
	copy(turns, g.turns[ticker])
	return turns, nil
}

// ClearConversations forgets the in-memory turns for a ticker
func (g *GeminiAgent) ClearConversations(_ context.Context, ticker string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.turns, ticker)
	return nil
}
