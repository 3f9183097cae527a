package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// MockSTT is a canned-response transcriber for development and tests
type MockSTT struct {
	Text   string
	Err    error
	Calls  int
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*MockSTT)(nil)

// NewMockSTT creates a mock transcriber returning the given text
func NewMockSTT(text string, logger *zap.Logger) *MockSTT {
	return &MockSTT{Text: text, logger: logger}
}

func (m *MockSTT) Transcribe(_ context.Context, audio []byte, _ repositories.AudioConfig) (string, error) {
	m.Calls++
	if m.logger != nil {
		m.logger.Info("Mock transcription", zap.Int("bytes", len(audio)))
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}
