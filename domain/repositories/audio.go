package repositories

import (
	"context"
	"errors"
)

// ErrDeviceUnavailable is returned when microphone capture cannot be
// acquired (permission denied or no compatible capture capability).
var ErrDeviceUnavailable = errors.New("audio: capture device unavailable")

// AudioFrame is one chunk of raw PCM samples from the capture device
type AudioFrame struct {
	Samples    []int16
	SampleRate int
}

// CaptureDevice abstracts the microphone. Exactly one capture may be
// active at a time per device.
type CaptureDevice interface {
	// Start begins capture and returns the frame stream. The stream is
	// closed when Stop is called or the context is cancelled.
	Start(ctx context.Context) (<-chan AudioFrame, error)
	// Stop ends the active capture. Safe to call when not capturing.
	Stop() error
	// Close releases the device handle. Idempotent.
	Close() error
}

// Playback is a handle to one in-flight audio playback
type Playback interface {
	// Done is closed when playback finishes; it yields a non-nil error
	// if playback failed.
	Done() <-chan error
	// Stop tears the playback down early. Idempotent.
	Stop()
}

// Player abstracts the audio output sink. Starting a new playback must
// first tear down any previous one; implementations enforce the single
// playable handle.
type Player interface {
	// Play starts playback of an encoded clip. The observe callback, if
	// non-nil, receives decoded PCM frames as they are played, for
	// visualization.
	Play(ctx context.Context, clip AudioClip, observe func(frame []int16)) (Playback, error)
	// Close stops any in-flight playback and releases the sink. Idempotent.
	Close() error
}
