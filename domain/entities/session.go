package entities

import (
	"errors"
	"time"
)

// InterfaceState represents the lifecycle phase of an analysis session
type InterfaceState string

const (
	InterfaceStateIdle       InterfaceState = "idle"
	InterfaceStateProcessing InterfaceState = "processing"
	InterfaceStateResult     InterfaceState = "result"
)

// MessageRole represents the role of a message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// MessageKind distinguishes plain text from stage-progress and verdict bubbles
type MessageKind string

const (
	MessageKindPlain  MessageKind = "plain"
	MessageKindStage  MessageKind = "stage"
	MessageKindResult MessageKind = "result"
)

// Verdict is the terminal movement prediction for an analysis run
type Verdict string

const (
	VerdictUp      Verdict = "UP"
	VerdictDown    Verdict = "DOWN"
	VerdictNeutral Verdict = "NEUTRAL"
)

// StageEvent is a progress update from the analysis stream
type StageEvent struct {
	Stage       int    `json:"stage"`
	Message     string `json:"message"`
	TotalStages int    `json:"total_stages"`
}

// ResultEvent is the terminal verdict from the analysis stream
type ResultEvent struct {
	Result      Verdict `json:"result"`
	Explanation string  `json:"explanation"`
}

// ChatMessage is one entry in a session transcript
type ChatMessage struct {
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	Role      MessageRole  `json:"role"`
	Kind      MessageKind  `json:"kind"`
	Content   string       `json:"content,omitempty"`
	Stage     *StageEvent  `json:"stage,omitempty"`
	Result    *ResultEvent `json:"result,omitempty"`
}

// Session holds the per-ticker interaction state
type Session struct {
	Ticker        string         `json:"ticker"`
	State         InterfaceState `json:"interface_state"`
	CurrentPrompt string         `json:"current_prompt"`
	CurrentStage  *StageEvent    `json:"current_stage,omitempty"`
	CurrentResult *ResultEvent   `json:"current_result,omitempty"`
	Messages      []ChatMessage  `json:"messages"`
}

// Session state transition errors
var (
	ErrNotIdle      = errors.New("session is not idle")
	ErrNotResult    = errors.New("session has no result to reset")
	ErrEmptyPrompt  = errors.New("prompt is empty")
	ErrNoTicker     = errors.New("no ticker selected")
	ErrInvalidState = errors.New("invalid interface state")
)

// NewSession creates an empty idle session for a ticker
func NewSession(ticker string) *Session {
	return &Session{
		Ticker:   ticker,
		State:    InterfaceStateIdle,
		Messages: make([]ChatMessage, 0),
	}
}

// BeginProcessing moves the session into Processing for the given prompt.
// Valid only in Idle with a non-empty prompt and a selected ticker.
func (s *Session) BeginProcessing(prompt string) error {
	if s.Ticker == "" {
		return ErrNoTicker
	}
	if prompt == "" {
		return ErrEmptyPrompt
	}
	if s.State != InterfaceStateIdle {
		return ErrNotIdle
	}
	s.CurrentPrompt = prompt
	s.CurrentResult = nil
	s.CurrentStage = nil
	s.State = InterfaceStateProcessing
	return nil
}

// ApplyStage records a stage event. The transcript grows only for the
// first stage observed in this run; later stages just move the live
// indicator. Returns true when a transcript message should be appended.
func (s *Session) ApplyStage(ev StageEvent) bool {
	if s.State != InterfaceStateProcessing {
		return false
	}
	first := s.CurrentStage == nil
	s.CurrentStage = &ev
	return first
}

// ApplyResult records the terminal verdict and moves to Result.
// A result always supersedes any stage, regardless of stage indices.
func (s *Session) ApplyResult(ev ResultEvent) {
	s.CurrentStage = nil
	s.CurrentResult = &ev
	s.State = InterfaceStateResult
}

// Fail aborts a processing run back to Idle, leaving the transcript intact.
func (s *Session) Fail() {
	s.CurrentStage = nil
	s.CurrentResult = nil
	s.State = InterfaceStateIdle
}

// Reset returns a finished session to Idle. Valid only in Result.
func (s *Session) Reset() error {
	if s.State != InterfaceStateResult {
		return ErrNotResult
	}
	s.CurrentPrompt = ""
	s.CurrentResult = nil
	s.CurrentStage = nil
	s.State = InterfaceStateIdle
	return nil
}

// Append adds a message to the transcript
func (s *Session) Append(msg ChatMessage) {
	s.Messages = append(s.Messages, msg)
}

// FirstUserMessage returns the content of the earliest user message, or ""
func (s *Session) FirstUserMessage() string {
	for _, m := range s.Messages {
		if m.Role == MessageRoleUser {
			return m.Content
		}
	}
	return ""
}

// Validate checks invariants worth rejecting a stored snapshot over
func (s *Session) Validate() error {
	switch s.State {
	case InterfaceStateIdle, InterfaceStateProcessing, InterfaceStateResult:
	default:
		return ErrInvalidState
	}
	if s.State == InterfaceStateResult && s.CurrentResult == nil {
		return ErrInvalidState
	}
	return nil
}
