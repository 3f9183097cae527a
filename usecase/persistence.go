package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// Persistence key prefixes, one entry per ticker
const (
	keyInterfaceState = "interface_state_"
	keyCurrentPrompt  = "current_prompt_"
	keyCurrentResult  = "current_result_"
	keyChat           = "chat_"
)

// SessionStore persists per-ticker session state as independent entries
// so a partial write never corrupts the whole snapshot.
type SessionStore struct {
	store  repositories.KeyValueStore
	logger *zap.Logger
}

// NewSessionStore creates a session store over a key-value backend
func NewSessionStore(store repositories.KeyValueStore, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		store:  store,
		logger: logger,
	}
}

// Save writes the session snapshot. Each entry is written independently;
// the first write error is returned but remaining entries are still
// attempted so a flaky backend loses as little as possible.
func (s *SessionStore) Save(ctx context.Context, session *entities.Session) error {
	if session == nil || session.Ticker == "" {
		return entities.ErrNoTicker
	}

	var firstErr error
	put := func(key string, value []byte) {
		if err := s.store.Set(ctx, key, value); err != nil {
			s.logger.Warn("Failed to persist session entry",
				zap.String("key", key),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	ticker := session.Ticker
	put(keyInterfaceState+ticker, []byte(session.State))
	put(keyCurrentPrompt+ticker, []byte(session.CurrentPrompt))

	if session.CurrentResult != nil {
		result, err := json.Marshal(session.CurrentResult)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		put(keyCurrentResult+ticker, result)
	} else {
		if err := s.store.Delete(ctx, keyCurrentResult+ticker); err != nil {
			s.logger.Warn("Failed to clear stored result",
				zap.String("ticker", ticker),
				zap.Error(err))
		}
	}

	chat, err := json.Marshal(session.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	put(keyChat+ticker, chat)

	return firstErr
}

// Load reconstructs the session for a ticker from its stored entries.
// Missing or unreadable entries fall back to their zero values, so a
// corrupt store yields a fresh idle session rather than an error. A
// session stored as Processing is coerced to Idle: an in-flight analysis
// cannot survive a restart, and its stage indicator goes with it.
func (s *SessionStore) Load(ctx context.Context, ticker string) *entities.Session {
	session := entities.NewSession(ticker)

	if raw, err := s.get(ctx, keyInterfaceState+ticker); err == nil {
		switch state := entities.InterfaceState(raw); state {
		case entities.InterfaceStateIdle, entities.InterfaceStateResult:
			session.State = state
		case entities.InterfaceStateProcessing:
			s.logger.Info("Coercing interrupted analysis back to idle",
				zap.String("ticker", ticker))
			session.State = entities.InterfaceStateIdle
		default:
			s.logger.Warn("Discarding unknown stored interface state",
				zap.String("ticker", ticker),
				zap.String("state", string(raw)))
		}
	}

	if raw, err := s.get(ctx, keyCurrentPrompt+ticker); err == nil {
		session.CurrentPrompt = string(raw)
	}

	if session.State == entities.InterfaceStateResult {
		raw, err := s.get(ctx, keyCurrentResult+ticker)
		if err == nil {
			var result entities.ResultEvent
			if err := json.Unmarshal(raw, &result); err == nil {
				session.CurrentResult = &result
			} else {
				s.logger.Warn("Discarding unreadable stored result",
					zap.String("ticker", ticker),
					zap.Error(err))
			}
		}
		// Result without a readable verdict is not presentable
		if session.CurrentResult == nil {
			session.State = entities.InterfaceStateIdle
		}
	}

	if raw, err := s.get(ctx, keyChat+ticker); err == nil {
		var messages []entities.ChatMessage
		if err := json.Unmarshal(raw, &messages); err == nil {
			session.Messages = messages
		} else {
			s.logger.Warn("Discarding unreadable stored transcript",
				zap.String("ticker", ticker),
				zap.Error(err))
		}
	}

	return session
}

// Purge deletes all stored entries for a ticker
func (s *SessionStore) Purge(ctx context.Context, ticker string) error {
	var firstErr error
	for _, key := range []string{
		keyInterfaceState + ticker,
		keyCurrentPrompt + ticker,
		keyCurrentResult + ticker,
		keyChat + ticker,
	} {
		if err := s.store.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *SessionStore) get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if err != repositories.ErrKeyNotFound {
			s.logger.Warn("Failed to read session entry",
				zap.String("key", key),
				zap.Error(err))
		}
		return nil, err
	}
	return raw, nil
}
