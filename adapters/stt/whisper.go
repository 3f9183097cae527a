package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

const (
	defaultWhisperModel    = "whisper-large-v3-turbo"
	defaultWhisperLanguage = "en"
)

// WhisperConfig holds configuration for the Whisper transcription adapter.
// Required fields:
// - APIKey: API key for the Whisper-compatible endpoint
// Optional fields with defaults:
// - BaseURL: alternative endpoint (e.g. Groq's OpenAI-compatible API)
// - Model: transcription model (default "whisper-large-v3-turbo")
// - Language: ISO language hint (default "en")
type WhisperConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

// NewWhisperConfigFromEnv creates a WhisperConfig from environment variables
func NewWhisperConfigFromEnv() WhisperConfig {
	return WhisperConfig{
		APIKey:   os.Getenv("WHISPER_API_KEY"),
		BaseURL:  os.Getenv("WHISPER_API_BASE_URL"),
		Model:    os.Getenv("WHISPER_MODEL"),
		Language: os.Getenv("WHISPER_LANGUAGE"),
	}
}

// WhisperSTT implements SpeechToText against any Whisper-compatible
// transcription endpoint
type WhisperSTT struct {
	client   openai.Client
	model    string
	language string
	logger   *zap.Logger
}

// Ensure WhisperSTT implements the SpeechToText interface
var _ repositories.SpeechToText = (*WhisperSTT)(nil)

// NewWhisperSTT creates a new Whisper transcription adapter
func NewWhisperSTT(config WhisperConfig, logger *zap.Logger) (*WhisperSTT, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("whisper API key is required")
	}

	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	model := config.Model
	if model == "" {
		model = defaultWhisperModel
		logger.Info("Using default whisper model", zap.String("model", model))
	}

	language := config.Language
	if language == "" {
		language = defaultWhisperLanguage
	}

	return &WhisperSTT{
		client:   openai.NewClient(opts...),
		model:    model,
		language: language,
		logger:   logger,
	}, nil
}

// Transcribe converts a finished recording to text. Transcription
// failures are reported as errors and never crash the caller; an empty
// transcript is a valid outcome.
func (w *WhisperSTT) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	filename := "audio." + encodingExtension(config.Encoding)
	w.logger.Info("Transcribing recording",
		zap.Int("bytes", len(audio)),
		zap.String("model", w.model))

	transcription, err := w.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     openai.File(bytes.NewReader(audio), filename, "application/octet-stream"),
		Model:    openai.AudioModel(w.model),
		Language: openai.String(w.language),
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}

	text := strings.TrimSpace(transcription.Text)
	w.logger.Info("Transcription completed", zap.Int("chars", len(text)))
	return text, nil
}

func encodingExtension(encoding string) string {
	switch strings.ToLower(encoding) {
	case "webm":
		return "webm"
	case "mp3":
		return "mp3"
	default:
		return "wav"
	}
}
