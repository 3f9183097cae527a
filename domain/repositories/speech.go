package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// Transcribe converts a finished audio recording to text
	Transcribe(ctx context.Context, audio []byte, config AudioConfig) (string, error)
}

// TextToSpeech abstracts speech synthesis services
type TextToSpeech interface {
	// Synthesize converts text to a playable audio clip
	Synthesize(ctx context.Context, text string, config VoiceConfig) (AudioClip, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}

// VoiceConfig represents voice configuration for TTS
type VoiceConfig struct {
	Voice        string `json:"voice"`
	Instructions string `json:"instructions"`
}

// AudioClip is an encoded, playable piece of audio
type AudioClip struct {
	Data       []byte `json:"-"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}
