package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// GoogleSTT implements SpeechToText using Google Cloud Speech, as an
// alternative to the Whisper adapter. Credentials come from the usual
// GOOGLE_APPLICATION_CREDENTIALS environment.
type GoogleSTT struct {
	logger *zap.Logger
}

// Ensure GoogleSTT implements the SpeechToText interface
var _ repositories.SpeechToText = (*GoogleSTT)(nil)

// NewGoogleSTT creates a new Google Cloud STT adapter
func NewGoogleSTT(logger *zap.Logger) *GoogleSTT {
	return &GoogleSTT{logger: logger}
}

// Transcribe runs a one-shot recognition over the finished recording
func (g *GoogleSTT) Transcribe(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return "", err
	}

	language := config.Language
	if language == "" {
		language = "en-US"
	}

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        encoding,
			SampleRateHertz: int32(config.SampleRate),
			LanguageCode:    language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	var sb strings.Builder
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			sb.WriteString(result.Alternatives[0].Transcript)
		}
	}

	text := strings.TrimSpace(sb.String())
	g.logger.Info("Google transcription completed", zap.Int("chars", len(text)))
	return text, nil
}

func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToLower(encoding) {
	case "pcm", "linear16", "wav":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "flac":
		return speechpb.RecognitionConfig_FLAC, nil
	case "webm", "opus":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported audio encoding: %s", encoding)
	}
}
