package api

// TickerRequest selects the active company
type TickerRequest struct {
	Ticker string `json:"ticker" validate:"required"`
}

// SubmitRequest carries a news article for analysis
type SubmitRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// AskRequest carries a follow-up question for the agent
type AskRequest struct {
	Query string `json:"query" validate:"required"`
}

// AnswerResponse is the agent's reply to a follow-up question
type AnswerResponse struct {
	Answer string `json:"answer"`
}

// SayRequest carries text for spoken reply playback
type SayRequest struct {
	Text string `json:"text" validate:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
