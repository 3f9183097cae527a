package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// ErrEmptyQuery is returned when an agent question has no content
var ErrEmptyQuery = errors.New("query is empty")

// AgentService answers follow-up questions about a finished analysis.
// Each question is sent with tagged context rebuilt from the persisted
// session: the verdict, its explanation, and the original news article.
type AgentService struct {
	agent  repositories.ConversationalAgent
	store  *SessionStore
	logger *zap.Logger
}

// NewAgentService creates an agent service
func NewAgentService(agent repositories.ConversationalAgent, store *SessionStore, logger *zap.Logger) *AgentService {
	return &AgentService{
		agent:  agent,
		store:  store,
		logger: logger,
	}
}

// Ask sends a follow-up question for a ticker. The analysis context is
// attached when available; without a finished analysis the agent still
// gets the question, just untagged.
func (a *AgentService) Ask(ctx context.Context, ticker, query string) (string, error) {
	if ticker == "" {
		return "", ErrNoSession
	}
	if query == "" {
		return "", ErrEmptyQuery
	}

	agentQuery := repositories.AgentQuery{
		Company: ticker,
		Query:   query,
	}

	session := a.store.Load(ctx, ticker)
	if session.CurrentResult != nil {
		agentQuery.MovementPrediction = string(session.CurrentResult.Result)
		agentQuery.Explanation = session.CurrentResult.Explanation
	}
	agentQuery.News = session.FirstUserMessage()

	answer, err := a.agent.Ask(ctx, agentQuery)
	if err != nil {
		a.logger.Error("Agent query failed",
			zap.String("ticker", ticker),
			zap.Error(err))
		return "", err
	}

	a.logger.Info("Agent answered",
		zap.String("ticker", ticker),
		zap.Int("answer_length", len(answer)))
	return answer, nil
}

// History returns the stored conversation turns for a ticker
func (a *AgentService) History(ctx context.Context, ticker string) ([]repositories.ConversationTurn, error) {
	if ticker == "" {
		return nil, ErrNoSession
	}
	return a.agent.Conversations(ctx, ticker)
}

// Clear deletes the stored conversation turns for a ticker
func (a *AgentService) Clear(ctx context.Context, ticker string) error {
	if ticker == "" {
		return ErrNoSession
	}
	if err := a.agent.ClearConversations(ctx, ticker); err != nil {
		a.logger.Warn("Failed to clear agent conversations",
			zap.String("ticker", ticker),
			zap.Error(err))
		return err
	}
	return nil
}
