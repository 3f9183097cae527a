package tts

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// MockTTS returns a canned clip for development and tests
type MockTTS struct {
	Clip   repositories.AudioClip
	Err    error
	Calls  int
	logger *zap.Logger
}

var _ repositories.TextToSpeech = (*MockTTS)(nil)

// NewMockTTS creates a mock synthesizer returning the given clip
func NewMockTTS(clip repositories.AudioClip, logger *zap.Logger) *MockTTS {
	return &MockTTS{Clip: clip, logger: logger}
}

func (m *MockTTS) Synthesize(_ context.Context, text string, _ repositories.VoiceConfig) (repositories.AudioClip, error) {
	m.Calls++
	if m.logger != nil {
		m.logger.Info("Mock synthesis", zap.Int("chars", len(text)))
	}
	if m.Err != nil {
		return repositories.AudioClip{}, m.Err
	}
	return m.Clip, nil
}
