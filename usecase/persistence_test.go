package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// memStore is an in-memory KeyValueStore for tests
type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, repositories.ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(value)
}

func (m *memStore) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newMemStore(), zaptest.NewLogger(t))

	session := entities.NewSession("TCS")
	session.CurrentPrompt = "TCS wins a large cloud deal"
	session.Append(entities.ChatMessage{
		ID:      "m1",
		Role:    entities.MessageRoleUser,
		Kind:    entities.MessageKindPlain,
		Content: "TCS wins a large cloud deal",
	})
	session.ApplyResult(entities.ResultEvent{
		Result:      entities.VerdictUp,
		Explanation: "strong order book",
	})
	session.Append(entities.ChatMessage{
		ID:     "m2",
		Role:   entities.MessageRoleAssistant,
		Kind:   entities.MessageKindResult,
		Result: session.CurrentResult,
	})

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded := store.Load(ctx, "TCS")
	if loaded.State != entities.InterfaceStateResult {
		t.Errorf("State = %q, want %q", loaded.State, entities.InterfaceStateResult)
	}
	if loaded.CurrentPrompt != session.CurrentPrompt {
		t.Errorf("CurrentPrompt = %q, want %q", loaded.CurrentPrompt, session.CurrentPrompt)
	}
	if loaded.CurrentResult == nil || loaded.CurrentResult.Result != entities.VerdictUp {
		t.Errorf("CurrentResult = %+v, want UP", loaded.CurrentResult)
	}
	if len(loaded.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(loaded.Messages))
	}
	if loaded.Messages[0].Content != session.Messages[0].Content {
		t.Errorf("Messages[0].Content = %q, want %q", loaded.Messages[0].Content, session.Messages[0].Content)
	}
}

func TestSessionStoreLoadMissing(t *testing.T) {
	store := NewSessionStore(newMemStore(), zaptest.NewLogger(t))

	loaded := store.Load(context.Background(), "INFY")
	if loaded.State != entities.InterfaceStateIdle {
		t.Errorf("State = %q, want idle", loaded.State)
	}
	if len(loaded.Messages) != 0 {
		t.Errorf("len(Messages) = %d, want 0", len(loaded.Messages))
	}
	if loaded.Ticker != "INFY" {
		t.Errorf("Ticker = %q, want INFY", loaded.Ticker)
	}
}

func TestSessionStoreLoadProcessingCoercedToIdle(t *testing.T) {
	backend := newMemStore()
	backend.put("interface_state_TCS", "processing")
	backend.put("current_prompt_TCS", "mid-flight article")
	backend.put("chat_TCS", `[{"id":"m1","role":"user","kind":"plain","content":"mid-flight article"}]`)

	store := NewSessionStore(backend, zaptest.NewLogger(t))
	loaded := store.Load(context.Background(), "TCS")

	if loaded.State != entities.InterfaceStateIdle {
		t.Errorf("State = %q, want idle", loaded.State)
	}
	if loaded.CurrentStage != nil {
		t.Errorf("CurrentStage = %+v, want nil", loaded.CurrentStage)
	}
	if loaded.CurrentResult != nil {
		t.Errorf("CurrentResult = %+v, want nil", loaded.CurrentResult)
	}
	// The transcript survives the coercion
	if len(loaded.Messages) != 1 {
		t.Errorf("len(Messages) = %d, want 1", len(loaded.Messages))
	}
	if loaded.CurrentPrompt != "mid-flight article" {
		t.Errorf("CurrentPrompt = %q, want preserved", loaded.CurrentPrompt)
	}
}

func TestSessionStoreLoadCorruptEntries(t *testing.T) {
	backend := newMemStore()
	backend.put("interface_state_TCS", "result")
	backend.put("current_result_TCS", "{not json")
	backend.put("chat_TCS", "also not json")

	store := NewSessionStore(backend, zaptest.NewLogger(t))
	loaded := store.Load(context.Background(), "TCS")

	// A result state without a readable verdict falls back to idle
	if loaded.State != entities.InterfaceStateIdle {
		t.Errorf("State = %q, want idle", loaded.State)
	}
	if loaded.CurrentResult != nil {
		t.Errorf("CurrentResult = %+v, want nil", loaded.CurrentResult)
	}
	if len(loaded.Messages) != 0 {
		t.Errorf("len(Messages) = %d, want 0", len(loaded.Messages))
	}
}

func TestSessionStoreLoadUnknownState(t *testing.T) {
	backend := newMemStore()
	backend.put("interface_state_TCS", "bogus")

	store := NewSessionStore(backend, zaptest.NewLogger(t))
	loaded := store.Load(context.Background(), "TCS")
	if loaded.State != entities.InterfaceStateIdle {
		t.Errorf("State = %q, want idle", loaded.State)
	}
}

func TestSessionStorePurge(t *testing.T) {
	ctx := context.Background()
	backend := newMemStore()
	store := NewSessionStore(backend, zaptest.NewLogger(t))

	session := entities.NewSession("TCS")
	session.CurrentPrompt = "some article"
	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !backend.has("interface_state_TCS") {
		t.Fatal("expected stored state before purge")
	}

	if err := store.Purge(ctx, "TCS"); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	for _, key := range []string{
		"interface_state_TCS", "current_prompt_TCS", "current_result_TCS", "chat_TCS",
	} {
		if backend.has(key) {
			t.Errorf("key %q still present after purge", key)
		}
	}
}

func TestSessionStoreSaveRequiresTicker(t *testing.T) {
	store := NewSessionStore(newMemStore(), zaptest.NewLogger(t))
	if err := store.Save(context.Background(), entities.NewSession("")); err != entities.ErrNoTicker {
		t.Errorf("Save() error = %v, want ErrNoTicker", err)
	}
}

func TestSessionStoreSaveBackendError(t *testing.T) {
	backend := newMemStore()
	backend.setErr = errors.New("disk full")
	store := NewSessionStore(backend, zaptest.NewLogger(t))

	session := entities.NewSession("TCS")
	if err := store.Save(context.Background(), session); err == nil {
		t.Error("Save() error = nil, want backend error surfaced")
	}
}
