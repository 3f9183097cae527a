package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// ErrAnalysisInProgress is returned for operations that must wait for the
// running analysis to finish, such as switching tickers.
var ErrAnalysisInProgress = errors.New("analysis is in progress")

// ErrNoSession is returned when an operation needs a selected ticker first
var ErrNoSession = errors.New("no session selected")

// publishTimeFormat matches what the analysis endpoint expects
const publishTimeFormat = "2006-01-02 15:04:05.000"

// SessionService drives the per-ticker analysis lifecycle: prompt
// submission, the streamed stage/result updates, reset, and persistence.
// All session mutation goes through its mutex; the analysis stream runs
// on its own goroutine and reports back through applyStage/applyResult.
type SessionService struct {
	analyzer repositories.NewsAnalyzer
	store    *SessionStore
	logger   *zap.Logger

	mu      sync.Mutex
	session *entities.Session
	run     uint64 // increments per analysis run, stale streams check it
}

// NewSessionService creates a session service
func NewSessionService(analyzer repositories.NewsAnalyzer, store *SessionStore, logger *zap.Logger) *SessionService {
	return &SessionService{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
	}
}

// SelectTicker loads or reloads the session for a ticker. Switching away
// is blocked while an analysis is running so the stream never writes into
// the wrong session.
func (s *SessionService) SelectTicker(ctx context.Context, ticker string) (*entities.Session, error) {
	if ticker == "" {
		return nil, entities.ErrNoTicker
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil && s.session.State == entities.InterfaceStateProcessing {
		return nil, ErrAnalysisInProgress
	}

	s.session = s.store.Load(ctx, ticker)
	s.logger.Info("Session loaded",
		zap.String("ticker", ticker),
		zap.String("state", string(s.session.State)),
		zap.Int("messages", len(s.session.Messages)))

	return s.snapshotLocked(), nil
}

// Submit starts an analysis run for a news prompt. The session moves to
// Processing synchronously; the stream itself is consumed on a background
// goroutine so the caller returns immediately.
func (s *SessionService) Submit(ctx context.Context, prompt string) error {
	s.mu.Lock()

	if s.session == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	if err := s.session.BeginProcessing(prompt); err != nil {
		s.mu.Unlock()
		return err
	}

	s.session.Append(entities.ChatMessage{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Role:      entities.MessageRoleUser,
		Kind:      entities.MessageKindPlain,
		Content:   prompt,
	})

	s.run++
	run := s.run
	req := repositories.AnalysisRequest{
		NewsArticle:   prompt,
		CompanyTicker: s.session.Ticker,
		DateOfPublish: time.Now().UTC().Format(publishTimeFormat),
	}
	s.persistLocked(ctx)
	s.mu.Unlock()

	// The analysis outlives the submitting request; only its own stream
	// timeout can cut it off.
	go s.consumeAnalysis(context.Background(), run, req)

	return nil
}

// consumeAnalysis drives one analysis stream to completion
func (s *SessionService) consumeAnalysis(ctx context.Context, run uint64, req repositories.AnalysisRequest) {
	s.logger.Info("Analysis started",
		zap.String("ticker", req.CompanyTicker))

	err := s.analyzer.Analyze(ctx, req, func(ev repositories.AnalysisEvent) {
		switch {
		case ev.Result != nil:
			s.applyResult(ctx, run, *ev.Result)
		case ev.Stage != nil:
			s.applyStage(ctx, run, *ev.Stage)
		}
	})

	if err != nil {
		s.failRun(ctx, run, fmt.Sprintf("Analysis failed: %v. Please try again.", err))
		return
	}
	// A clean stream that never produced a verdict is still a failure
	// from the session's point of view.
	s.failRun(ctx, run, "Analysis ended without a result. Please try again.")
}

// applyStage records a stage update from the live stream. Only the first
// stage of a run grows the transcript; later stages move the indicator.
func (s *SessionService) applyStage(ctx context.Context, run uint64, ev entities.StageEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.runActiveLocked(run) {
		return
	}

	first := s.session.ApplyStage(ev)
	if first {
		stage := ev
		s.session.Append(entities.ChatMessage{
			ID:        uuid.New().String(),
			Timestamp: time.Now(),
			Role:      entities.MessageRoleAssistant,
			Kind:      entities.MessageKindStage,
			Stage:     &stage,
		})
	}
	s.persistLocked(ctx)
}

// applyResult records the terminal verdict and ends the run
func (s *SessionService) applyResult(ctx context.Context, run uint64, ev entities.ResultEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.runActiveLocked(run) {
		return
	}

	s.session.ApplyResult(ev)
	result := ev
	s.session.Append(entities.ChatMessage{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Role:      entities.MessageRoleAssistant,
		Kind:      entities.MessageKindResult,
		Result:    &result,
	})
	s.persistLocked(ctx)

	s.logger.Info("Analysis completed",
		zap.String("ticker", s.session.Ticker),
		zap.String("verdict", string(ev.Result)))
}

// failRun aborts a run back to Idle with an explanatory transcript
// message. No-op when the run already reached a result.
func (s *SessionService) failRun(ctx context.Context, run uint64, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.runActiveLocked(run) {
		return
	}

	s.logger.Warn("Analysis aborted",
		zap.String("ticker", s.session.Ticker),
		zap.String("reason", message))

	s.session.Append(entities.ChatMessage{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Role:      entities.MessageRoleAssistant,
		Kind:      entities.MessageKindPlain,
		Content:   message,
	})
	s.session.Fail()
	s.persistLocked(ctx)
}

// runActiveLocked reports whether the given run is still the live one
// and the session is still waiting on it.
func (s *SessionService) runActiveLocked(run uint64) bool {
	return s.session != nil &&
		run == s.run &&
		s.session.State == entities.InterfaceStateProcessing
}

// Reset returns a finished session to Idle, keeping the transcript
func (s *SessionService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoSession
	}
	if err := s.session.Reset(); err != nil {
		return err
	}
	s.persistLocked(ctx)
	return nil
}

// ClearConversation wipes the session's transcript and stored state,
// leaving a fresh idle session for the same ticker. Blocked while an
// analysis is running.
func (s *SessionService) ClearConversation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoSession
	}
	if s.session.State == entities.InterfaceStateProcessing {
		return ErrAnalysisInProgress
	}

	ticker := s.session.Ticker
	if err := s.store.Purge(ctx, ticker); err != nil {
		s.logger.Warn("Failed to purge stored session",
			zap.String("ticker", ticker),
			zap.Error(err))
	}
	s.session = entities.NewSession(ticker)
	return nil
}

// Snapshot returns a copy of the current session, or nil when no ticker
// has been selected yet.
func (s *SessionService) Snapshot() *entities.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *SessionService) snapshotLocked() *entities.Session {
	if s.session == nil {
		return nil
	}
	copied := *s.session
	copied.Messages = make([]entities.ChatMessage, len(s.session.Messages))
	copy(copied.Messages, s.session.Messages)
	if s.session.CurrentStage != nil {
		stage := *s.session.CurrentStage
		copied.CurrentStage = &stage
	}
	if s.session.CurrentResult != nil {
		result := *s.session.CurrentResult
		copied.CurrentResult = &result
	}
	return &copied
}

func (s *SessionService) persistLocked(ctx context.Context) {
	if err := s.store.Save(ctx, s.session); err != nil {
		s.logger.Warn("Failed to persist session",
			zap.String("ticker", s.session.Ticker),
			zap.Error(err))
	}
}
