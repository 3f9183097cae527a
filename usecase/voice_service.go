package usecase

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/entities"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
	"github.com/ahmedfahim21/fingreat-go/internal/audio"
)

// ErrVoiceClosed is returned for operations on a closed voice service
var ErrVoiceClosed = errors.New("voice pipeline is closed")

// PromptSubmitter is the downstream a finished transcription feeds into
type PromptSubmitter interface {
	Submit(ctx context.Context, prompt string) error
}

// VoiceOptions tunes the silence auto-stop behavior
type VoiceOptions struct {
	// SilenceThreshold is the normalized energy below which a frame
	// counts as silence
	SilenceThreshold float64
	// SilenceDebounce is how long energy must stay below the threshold
	// before recording auto-stops
	SilenceDebounce time.Duration
}

// DefaultVoiceOptions returns the stock silence tuning. The threshold is
// calibrated to the analyzer's 64-bin mean magnitude, where a full-scale
// tone lands near 0.008.
func DefaultVoiceOptions() VoiceOptions {
	return VoiceOptions{
		SilenceThreshold: 0.004,
		SilenceDebounce:  1500 * time.Millisecond,
	}
}

// NewVoiceOptionsFromEnv reads silence tuning from the environment,
// falling back to defaults for anything absent or unparsable.
func NewVoiceOptionsFromEnv(logger *zap.Logger) VoiceOptions {
	opts := DefaultVoiceOptions()

	if raw := os.Getenv("VOICE_SILENCE_THRESHOLD"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
			opts.SilenceThreshold = v
		} else {
			logger.Warn("Invalid VOICE_SILENCE_THRESHOLD, using default",
				zap.String("value", raw),
				zap.Float64("default", opts.SilenceThreshold))
		}
	}
	if raw := os.Getenv("VOICE_SILENCE_DEBOUNCE_MS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			opts.SilenceDebounce = time.Duration(v) * time.Millisecond
		} else {
			logger.Warn("Invalid VOICE_SILENCE_DEBOUNCE_MS, using default",
				zap.String("value", raw),
				zap.Duration("default", opts.SilenceDebounce))
		}
	}
	return opts
}

// VoiceService runs the hands-free voice loop: capture with silence
// auto-stop, transcription into a prompt submission, and spoken reply
// playback. Recording and speaking are mutually exclusive; the single
// VoiceStatus decides what each entry point may do.
type VoiceService struct {
	device    repositories.CaptureDevice
	player    repositories.Player
	stt       repositories.SpeechToText
	tts       repositories.TextToSpeech
	submitter PromptSubmitter
	analyzer  *audio.Analyzer
	opts      VoiceOptions
	logger    *zap.Logger

	mu         sync.Mutex
	session    *entities.VoiceSession
	recorded   []int16
	sampleRate int
	capture    uint64 // increments per recording, stale frame loops check it
	cancelLoop context.CancelFunc
	playback   repositories.Playback
	closed     bool
}

// NewVoiceService creates a voice service over an opened capture device
// and playback sink.
func NewVoiceService(
	device repositories.CaptureDevice,
	player repositories.Player,
	stt repositories.SpeechToText,
	tts repositories.TextToSpeech,
	submitter PromptSubmitter,
	opts VoiceOptions,
	logger *zap.Logger,
) *VoiceService {
	if opts.SilenceThreshold <= 0 {
		opts.SilenceThreshold = DefaultVoiceOptions().SilenceThreshold
	}
	if opts.SilenceDebounce <= 0 {
		opts.SilenceDebounce = DefaultVoiceOptions().SilenceDebounce
	}
	return &VoiceService{
		device:    device,
		player:    player,
		stt:       stt,
		tts:       tts,
		submitter: submitter,
		analyzer:  audio.NewAnalyzer(),
		opts:      opts,
		logger:    logger,
		session:   entities.NewVoiceSession(),
	}
}

// Status returns a copy of the live voice session state
func (v *VoiceService) Status() entities.VoiceSession {
	v.mu.Lock()
	defer v.mu.Unlock()
	return *v.session
}

// ToggleRecording starts recording when idle and stops it when
// recording. While transcribing or speaking it does nothing.
func (v *VoiceService) ToggleRecording(ctx context.Context) error {
	v.mu.Lock()
	status := v.session.Status
	v.mu.Unlock()

	switch status {
	case entities.VoiceStatusIdle:
		return v.StartRecording(ctx)
	case entities.VoiceStatusRecording:
		return v.StopRecording(ctx)
	default:
		v.logger.Debug("Toggle ignored", zap.String("status", string(status)))
		return nil
	}
}

// StartRecording begins microphone capture with silence monitoring.
// No-op unless the pipeline is idle.
func (v *VoiceService) StartRecording(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrVoiceClosed
	}
	if !v.session.CanRecord() {
		v.logger.Debug("Recording not allowed",
			zap.String("status", string(v.session.Status)))
		v.mu.Unlock()
		return nil
	}

	v.session.Status = entities.VoiceStatusRecording
	v.session.ClearSilence()
	v.analyzer.Reset()
	v.recorded = nil
	v.sampleRate = 0
	v.capture++
	capture := v.capture

	loopCtx, cancel := context.WithCancel(context.Background())
	v.cancelLoop = cancel
	v.mu.Unlock()

	frames, err := v.device.Start(loopCtx)
	if err != nil {
		cancel()
		v.mu.Lock()
		v.session.Status = entities.VoiceStatusIdle
		v.cancelLoop = nil
		v.mu.Unlock()
		v.logger.Error("Failed to start capture", zap.Error(err))
		return err
	}

	v.logger.Info("Recording started")
	go v.consumeFrames(capture, frames)
	return nil
}

// consumeFrames accumulates capture frames and watches for sustained
// silence. Each frame's energy feeds the silence debounce; when it
// trips, recording stops through the same path as a manual stop.
func (v *VoiceService) consumeFrames(capture uint64, frames <-chan repositories.AudioFrame) {
	for frame := range frames {
		v.mu.Lock()
		if capture != v.capture || v.session.Status != entities.VoiceStatusRecording {
			v.mu.Unlock()
			return
		}

		v.recorded = append(v.recorded, frame.Samples...)
		if v.sampleRate == 0 {
			v.sampleRate = frame.SampleRate
		}

		energy := v.analyzer.Energy(frame.Samples)
		stop := v.session.ObserveEnergy(energy, v.opts.SilenceThreshold, v.opts.SilenceDebounce, time.Now())
		v.mu.Unlock()

		if stop {
			v.logger.Info("Silence detected, stopping recording",
				zap.Duration("debounce", v.opts.SilenceDebounce))
			go v.StopRecording(context.Background())
			return
		}
	}
}

// StopRecording ends capture and hands the recording to transcription.
// A transcription that comes back empty is dropped silently; a failed
// one is logged and dropped. Either way the pipeline returns to idle.
// No-op unless recording.
func (v *VoiceService) StopRecording(ctx context.Context) error {
	v.mu.Lock()
	if v.session.Status != entities.VoiceStatusRecording {
		v.mu.Unlock()
		return nil
	}

	v.session.Status = entities.VoiceStatusProcessing
	v.session.ClearSilence()
	if v.cancelLoop != nil {
		v.cancelLoop()
		v.cancelLoop = nil
	}
	samples := v.recorded
	sampleRate := v.sampleRate
	v.recorded = nil
	v.mu.Unlock()

	if err := v.device.Stop(); err != nil {
		v.logger.Warn("Failed to stop capture device", zap.Error(err))
	}

	if sampleRate == 0 {
		sampleRate = 16000
	}
	v.logger.Info("Recording stopped",
		zap.Int("samples", len(samples)),
		zap.Int("sample_rate", sampleRate))

	text, err := v.stt.Transcribe(ctx, audio.EncodeWAV(samples, sampleRate), repositories.AudioConfig{
		SampleRate: sampleRate,
		Encoding:   "wav",
		Language:   "en",
	})

	v.mu.Lock()
	v.session.Status = entities.VoiceStatusIdle
	v.session.ClearSilence()
	v.mu.Unlock()

	if err != nil {
		v.logger.Error("Transcription failed", zap.Error(err))
		return nil
	}
	if text == "" {
		v.logger.Info("Transcription empty, nothing to submit")
		return nil
	}

	v.logger.Info("Transcription submitted", zap.Int("length", len(text)))
	if err := v.submitter.Submit(ctx, text); err != nil {
		v.logger.Error("Failed to submit transcription", zap.Error(err))
	}
	return nil
}

// PlayReply synthesizes text and plays it through the sink, feeding the
// played frames back into the energy analyzer for visualization. No-op
// unless the pipeline is idle.
func (v *VoiceService) PlayReply(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrVoiceClosed
	}
	if !v.session.CanSpeak() {
		v.logger.Debug("Playback not allowed",
			zap.String("status", string(v.session.Status)))
		v.mu.Unlock()
		return nil
	}
	v.session.Status = entities.VoiceStatusSpeaking
	v.mu.Unlock()

	clip, err := v.tts.Synthesize(ctx, text, repositories.VoiceConfig{})
	if err != nil {
		v.mu.Lock()
		v.session.Status = entities.VoiceStatusIdle
		v.mu.Unlock()
		v.logger.Error("Speech synthesis failed", zap.Error(err))
		return err
	}

	playback, err := v.player.Play(ctx, clip, func(frame []int16) {
		energy := v.analyzer.Energy(frame)
		v.mu.Lock()
		v.session.LastEnergy = energy
		v.mu.Unlock()
	})
	if err != nil {
		v.mu.Lock()
		v.session.Status = entities.VoiceStatusIdle
		v.mu.Unlock()
		v.logger.Error("Failed to start playback", zap.Error(err))
		return err
	}

	v.mu.Lock()
	v.playback = playback
	v.mu.Unlock()

	go v.awaitPlayback(playback)
	return nil
}

// awaitPlayback returns the pipeline to idle once playback ends
func (v *VoiceService) awaitPlayback(playback repositories.Playback) {
	err := <-playback.Done()
	if err != nil {
		v.logger.Warn("Playback ended with error", zap.Error(err))
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playback != playback {
		return
	}
	v.playback = nil
	if v.session.Status == entities.VoiceStatusSpeaking {
		v.session.Status = entities.VoiceStatusIdle
	}
}

// StopSpeaking cuts any in-flight reply playback. Safe to call anytime.
func (v *VoiceService) StopSpeaking() {
	v.mu.Lock()
	playback := v.playback
	v.mu.Unlock()

	if playback != nil {
		playback.Stop()
	}
}

// Close tears the whole pipeline down: capture, playback, and device
// handles. Idempotent, safe on every path.
func (v *VoiceService) Close() error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return nil
	}
	v.closed = true
	v.capture++ // invalidate any live frame loop
	if v.cancelLoop != nil {
		v.cancelLoop()
		v.cancelLoop = nil
	}
	playback := v.playback
	v.playback = nil
	v.session.Status = entities.VoiceStatusIdle
	v.session.ClearSilence()
	v.mu.Unlock()

	if playback != nil {
		playback.Stop()
	}
	if err := v.device.Stop(); err != nil {
		v.logger.Debug("Capture stop during close", zap.Error(err))
	}
	if err := v.device.Close(); err != nil {
		v.logger.Warn("Failed to close capture device", zap.Error(err))
	}
	if err := v.player.Close(); err != nil {
		v.logger.Warn("Failed to close playback sink", zap.Error(err))
	}

	v.logger.Info("Voice pipeline closed")
	return nil
}
