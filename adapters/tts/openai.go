package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

const (
	defaultModel      = "gpt-4o-mini-tts"
	defaultVoice      = "ballad"
	defaultSampleRate = 24000 // OpenAI PCM output is 24kHz 16-bit mono

	defaultInstructions = "Voice: Warm, upbeat, and reassuring, with a steady and confident cadence " +
		"that keeps the conversation calm and productive.\n\n" +
		"Tone: Positive and solution-oriented, always focusing on the next steps rather than " +
		"dwelling on the problem.\n\n" +
		"Pronunciation: Clear and precise, with a natural rhythm that emphasizes key words to " +
		"instill confidence and keep the customer engaged."
)

// OpenAIConfig holds configuration for the OpenAI TTS adapter.
// Required fields:
// - APIKey: Your OpenAI API key
// Optional fields with defaults:
// - Model: TTS model (default "gpt-4o-mini-tts")
// - Voice: voice preset (default "ballad")
// - Instructions: speaking-style instructions (a financial-assistant default is used if empty)
type OpenAIConfig struct {
	APIKey       string
	Model        string
	Voice        string
	Instructions string
}

// NewOpenAIConfigFromEnv creates an OpenAIConfig from environment variables
func NewOpenAIConfigFromEnv() OpenAIConfig {
	return OpenAIConfig{
		APIKey:       os.Getenv("OPENAI_API_KEY"),
		Model:        os.Getenv("OPENAI_TTS_MODEL"),
		Voice:        os.Getenv("OPENAI_TTS_VOICE"),
		Instructions: os.Getenv("OPENAI_TTS_INSTRUCTIONS"),
	}
}

// OpenAITTS implements TextToSpeech using OpenAI's speech endpoint
type OpenAITTS struct {
	client       openai.Client
	model        string
	voice        string
	instructions string
	logger       *zap.Logger
}

// Ensure OpenAITTS implements the TextToSpeech interface
var _ repositories.TextToSpeech = (*OpenAITTS)(nil)

// NewOpenAITTS creates a new OpenAI TTS adapter
func NewOpenAITTS(config OpenAIConfig, logger *zap.Logger) (*OpenAITTS, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	model := config.Model
	if model == "" {
		model = defaultModel
		logger.Info("Using default TTS model", zap.String("model", model))
	}

	voice := config.Voice
	if voice == "" {
		voice = defaultVoice
		logger.Info("Using default TTS voice", zap.String("voice", voice))
	}

	instructions := config.Instructions
	if instructions == "" {
		instructions = defaultInstructions
	}

	return &OpenAITTS{
		client:       openai.NewClient(option.WithAPIKey(config.APIKey)),
		model:        model,
		voice:        voice,
		instructions: instructions,
		logger:       logger,
	}, nil
}

// SetVoice changes the voice preset used for synthesis
func (o *OpenAITTS) SetVoice(voice string) {
	o.voice = voice
	o.logger.Info("Updated TTS voice", zap.String("voice", voice))
}

// Synthesize converts text to a raw PCM clip ready for playback
func (o *OpenAITTS) Synthesize(ctx context.Context, text string, config repositories.VoiceConfig) (repositories.AudioClip, error) {
	if strings.TrimSpace(text) == "" {
		return repositories.AudioClip{}, fmt.Errorf("text cannot be empty")
	}

	voice := config.Voice
	if voice == "" {
		voice = o.voice
	}
	instructions := config.Instructions
	if instructions == "" {
		instructions = o.instructions
	}

	o.logger.Info("Synthesizing speech",
		zap.Int("chars", len(text)),
		zap.String("voice", voice))

	resp, err := o.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(o.model),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		Input:          text,
		Instructions:   openai.String(instructions),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return repositories.AudioClip{}, fmt.Errorf("speech request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return repositories.AudioClip{}, fmt.Errorf("failed to read speech response: %w", err)
	}

	o.logger.Info("Speech synthesized", zap.Int("bytes", len(data)))

	return repositories.AudioClip{
		Data:       data,
		Encoding:   "pcm_s16le",
		SampleRate: defaultSampleRate,
	}, nil
}
