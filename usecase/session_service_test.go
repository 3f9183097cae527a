package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// stubAnalyzer replays scripted events and then returns err. When block
// is non-nil, Analyze waits on it before returning.
type stubAnalyzer struct {
	mu     sync.Mutex
	events []repositories.AnalysisEvent
	err    error
	block  chan struct{}
	reqs   []repositories.AnalysisRequest
}

func (a *stubAnalyzer) Analyze(_ context.Context, req repositories.AnalysisRequest, emit func(repositories.AnalysisEvent)) error {
	a.mu.Lock()
	a.reqs = append(a.reqs, req)
	events := a.events
	block := a.block
	a.mu.Unlock()

	for _, ev := range events {
		emit(ev)
	}
	if block != nil {
		<-block
	}
	return a.err
}

func (a *stubAnalyzer) requests() []repositories.AnalysisRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]repositories.AnalysisRequest(nil), a.reqs...)
}

func stageEvent(stage int, message string) repositories.AnalysisEvent {
	return repositories.AnalysisEvent{
		Stage: &entities.StageEvent{Stage: stage, Message: message, TotalStages: 14},
	}
}

func resultEvent(verdict entities.Verdict, explanation string) repositories.AnalysisEvent {
	return repositories.AnalysisEvent{
		Result: &entities.ResultEvent{Result: verdict, Explanation: explanation},
	}
}

func newTestSessionService(t *testing.T, analyzer repositories.NewsAnalyzer) (*SessionService, *SessionStore) {
	t.Helper()
	store := NewSessionStore(newMemStore(), zaptest.NewLogger(t))
	return NewSessionService(analyzer, store, zaptest.NewLogger(t)), store
}

func waitForState(t *testing.T, svc *SessionService, want entities.InterfaceState) *entities.Session {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := svc.Snapshot(); snap != nil && snap.State == want {
			return snap
		}
		time.Sleep(2 * time.Millisecond)
	}
	snap := svc.Snapshot()
	t.Fatalf("session never reached state %q, stuck at %+v", want, snap)
	return nil
}

func TestSubmitRunsToResult(t *testing.T) {
	analyzer := &stubAnalyzer{events: []repositories.AnalysisEvent{
		stageEvent(0, "Fetching market context"),
		stageEvent(1, "Scoring sentiment"),
		stageEvent(2, "Weighing technicals"),
		resultEvent(entities.VerdictUp, "strong earnings beat"),
	}}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "TCS posts record quarterly profit"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitForState(t, svc, entities.InterfaceStateResult)

	if snap.CurrentResult == nil || snap.CurrentResult.Result != entities.VerdictUp {
		t.Errorf("CurrentResult = %+v, want UP", snap.CurrentResult)
	}
	if snap.CurrentStage != nil {
		t.Errorf("CurrentStage = %+v, want nil after result", snap.CurrentStage)
	}

	// Transcript: the prompt, one stage marker for the whole run, the verdict
	if len(snap.Messages) != 3 {
		t.Fatalf("len(Messages) = %d, want 3: %+v", len(snap.Messages), snap.Messages)
	}
	if snap.Messages[0].Role != entities.MessageRoleUser {
		t.Errorf("Messages[0].Role = %q, want user", snap.Messages[0].Role)
	}
	if snap.Messages[1].Kind != entities.MessageKindStage || snap.Messages[1].Stage == nil {
		t.Errorf("Messages[1] = %+v, want single stage marker", snap.Messages[1])
	}
	if snap.Messages[1].Stage.Stage != 0 {
		t.Errorf("stage marker = %d, want first stage only", snap.Messages[1].Stage.Stage)
	}
	if snap.Messages[2].Kind != entities.MessageKindResult {
		t.Errorf("Messages[2].Kind = %q, want result", snap.Messages[2].Kind)
	}

	reqs := analyzer.requests()
	if len(reqs) != 1 {
		t.Fatalf("analyzer called %d times, want 1", len(reqs))
	}
	if reqs[0].CompanyTicker != "TCS" {
		t.Errorf("CompanyTicker = %q, want TCS", reqs[0].CompanyTicker)
	}
	if reqs[0].NewsArticle != "TCS posts record quarterly profit" {
		t.Errorf("NewsArticle = %q", reqs[0].NewsArticle)
	}
	if reqs[0].DateOfPublish == "" {
		t.Error("DateOfPublish is empty")
	}
}

func TestSubmitStreamEndsWithoutResult(t *testing.T) {
	analyzer := &stubAnalyzer{events: []repositories.AnalysisEvent{
		stageEvent(0, "Fetching market context"),
		stageEvent(1, "Scoring sentiment"),
	}}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "ambiguous news blurb"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitForState(t, svc, entities.InterfaceStateIdle)

	if snap.CurrentResult != nil {
		t.Errorf("CurrentResult = %+v, want nil", snap.CurrentResult)
	}
	last := snap.Messages[len(snap.Messages)-1]
	if last.Role != entities.MessageRoleAssistant || !strings.Contains(last.Content, "without a result") {
		t.Errorf("last message = %+v, want failure notice", last)
	}
	// Prompt, stage marker, failure notice; earlier messages stand
	if len(snap.Messages) != 3 {
		t.Errorf("len(Messages) = %d, want 3", len(snap.Messages))
	}
}

func TestSubmitStreamError(t *testing.T) {
	analyzer := &stubAnalyzer{
		events: []repositories.AnalysisEvent{stageEvent(0, "Fetching market context")},
		err:    errors.New("connection reset"),
	}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "some article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitForState(t, svc, entities.InterfaceStateIdle)

	last := snap.Messages[len(snap.Messages)-1]
	if !strings.Contains(last.Content, "connection reset") {
		t.Errorf("last message = %q, want the failure reason", last.Content)
	}
	// The stage marker recorded before the cut stands
	if snap.Messages[1].Kind != entities.MessageKindStage {
		t.Errorf("Messages[1].Kind = %q, want stage", snap.Messages[1].Kind)
	}
}

func TestResultSupersedesLaterStages(t *testing.T) {
	analyzer := &stubAnalyzer{events: []repositories.AnalysisEvent{
		stageEvent(0, "Fetching market context"),
		resultEvent(entities.VerdictDown, "guidance cut"),
		stageEvent(5, "straggler"),
	}}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "some article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitForState(t, svc, entities.InterfaceStateResult)
	if snap.CurrentStage != nil {
		t.Errorf("CurrentStage = %+v, want nil: stages after the result are ignored", snap.CurrentStage)
	}
	if snap.CurrentResult == nil || snap.CurrentResult.Result != entities.VerdictDown {
		t.Errorf("CurrentResult = %+v, want DOWN", snap.CurrentResult)
	}
}

func TestSubmitGuards(t *testing.T) {
	analyzer := &stubAnalyzer{block: make(chan struct{})}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if err := svc.Submit(ctx, "article"); err != ErrNoSession {
		t.Errorf("Submit() without ticker error = %v, want ErrNoSession", err)
	}

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, ""); err != entities.ErrEmptyPrompt {
		t.Errorf("Submit() empty prompt error = %v, want ErrEmptyPrompt", err)
	}

	if err := svc.Submit(ctx, "first article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := svc.Submit(ctx, "second article"); err != entities.ErrNotIdle {
		t.Errorf("Submit() while processing error = %v, want ErrNotIdle", err)
	}

	// Let the stream finish before the test logger goes away
	close(analyzer.block)
	waitForState(t, svc, entities.InterfaceStateIdle)
}

func TestSelectTickerBlockedWhileProcessing(t *testing.T) {
	analyzer := &stubAnalyzer{block: make(chan struct{})}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if _, err := svc.SelectTicker(ctx, "INFY"); err != ErrAnalysisInProgress {
		t.Errorf("SelectTicker() while processing error = %v, want ErrAnalysisInProgress", err)
	}

	close(analyzer.block)
	waitForState(t, svc, entities.InterfaceStateIdle)
}

func TestResetAfterResult(t *testing.T) {
	analyzer := &stubAnalyzer{events: []repositories.AnalysisEvent{
		resultEvent(entities.VerdictNeutral, "mixed signals"),
	}}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}

	if err := svc.Reset(ctx); err != entities.ErrNotResult {
		t.Errorf("Reset() while idle error = %v, want ErrNotResult", err)
	}

	if err := svc.Submit(ctx, "some article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitForState(t, svc, entities.InterfaceStateResult)

	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	snap := svc.Snapshot()
	if snap.State != entities.InterfaceStateIdle {
		t.Errorf("State = %q, want idle", snap.State)
	}
	if snap.CurrentResult != nil || snap.CurrentPrompt != "" {
		t.Errorf("result/prompt not cleared: %+v", snap)
	}
	// Transcript survives reset
	if len(snap.Messages) != 2 {
		t.Errorf("len(Messages) = %d, want prompt and verdict kept", len(snap.Messages))
	}
}

func TestClearConversation(t *testing.T) {
	analyzer := &stubAnalyzer{events: []repositories.AnalysisEvent{
		resultEvent(entities.VerdictUp, "looks good"),
	}}
	svc, store := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitForState(t, svc, entities.InterfaceStateResult)

	if err := svc.ClearConversation(ctx); err != nil {
		t.Fatalf("ClearConversation() error = %v", err)
	}
	snap := svc.Snapshot()
	if snap.State != entities.InterfaceStateIdle || len(snap.Messages) != 0 {
		t.Errorf("session not reset after clear: %+v", snap)
	}
	if loaded := store.Load(ctx, "TCS"); len(loaded.Messages) != 0 {
		t.Errorf("stored transcript survived clear: %+v", loaded.Messages)
	}
}

func TestClearConversationBlockedWhileProcessing(t *testing.T) {
	analyzer := &stubAnalyzer{block: make(chan struct{})}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := svc.ClearConversation(ctx); err != ErrAnalysisInProgress {
		t.Errorf("ClearConversation() while processing error = %v, want ErrAnalysisInProgress", err)
	}

	close(analyzer.block)
	waitForState(t, svc, entities.InterfaceStateIdle)
}

func TestSessionSurvivesReload(t *testing.T) {
	analyzer := &stubAnalyzer{events: []repositories.AnalysisEvent{
		stageEvent(0, "Fetching market context"),
		resultEvent(entities.VerdictUp, "demand surge"),
	}}
	backend := newMemStore()
	store := NewSessionStore(backend, zaptest.NewLogger(t))
	svc := NewSessionService(analyzer, store, zaptest.NewLogger(t))
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	if err := svc.Submit(ctx, "article"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitForState(t, svc, entities.InterfaceStateResult)

	// A second service over the same backend sees the finished session
	reloaded := NewSessionService(analyzer, NewSessionStore(backend, zaptest.NewLogger(t)), zaptest.NewLogger(t))
	snap, err := reloaded.SelectTicker(ctx, "TCS")
	if err != nil {
		t.Fatalf("SelectTicker() after reload error = %v", err)
	}
	if snap.State != entities.InterfaceStateResult {
		t.Errorf("State after reload = %q, want result", snap.State)
	}
	if snap.CurrentResult == nil || snap.CurrentResult.Result != entities.VerdictUp {
		t.Errorf("CurrentResult after reload = %+v, want UP", snap.CurrentResult)
	}
	if len(snap.Messages) != 3 {
		t.Errorf("len(Messages) after reload = %d, want 3", len(snap.Messages))
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	analyzer := &stubAnalyzer{}
	svc, _ := newTestSessionService(t, analyzer)
	ctx := context.Background()

	if _, err := svc.SelectTicker(ctx, "TCS"); err != nil {
		t.Fatalf("SelectTicker() error = %v", err)
	}
	snap := svc.Snapshot()
	snap.Messages = append(snap.Messages, entities.ChatMessage{ID: "rogue"})
	snap.State = entities.InterfaceStateResult

	if again := svc.Snapshot(); len(again.Messages) != 0 || again.State != entities.InterfaceStateIdle {
		t.Errorf("mutating a snapshot leaked into the service: %+v", again)
	}
}
