package repositories

import "context"

// AgentQuery carries a user question plus the tagged analysis context the
// agent answers against.
type AgentQuery struct {
	Company            string `json:"company"`
	Query              string `json:"query"`
	MovementPrediction string `json:"movement_prediction"`
	Explanation        string `json:"explanation"`
	News               string `json:"news"`
}

// ConversationTurn is one stored user/assistant exchange
type ConversationTurn struct {
	User      string `json:"user,omitempty"`
	Assistant string `json:"assistant,omitempty"`
}

// ConversationalAgent abstracts the follow-up Q&A agent
type ConversationalAgent interface {
	// Ask returns the agent's textual answer for a query
	Ask(ctx context.Context, query AgentQuery) (string, error)
	// Conversations lists the stored turns for a ticker, oldest first
	Conversations(ctx context.Context, ticker string) ([]ConversationTurn, error)
	// ClearConversations deletes the stored turns for a ticker
	ClearConversations(ctx context.Context, ticker string) error
}
