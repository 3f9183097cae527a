package audio

import (
	"context"
	"sync"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
)

// MockDevice is an in-memory capture device and player for development
// and tests. Frames queued with Feed are delivered to the active capture.
type MockDevice struct {
	mu        sync.Mutex
	frames    chan repositories.AudioFrame
	capturing bool
	closed    bool

	StartErr  error
	PlayErr   error
	Blocking  bool // playback completes only when stopped
	Played    []repositories.AudioClip
	StopCalls int
}

var (
	_ repositories.CaptureDevice = (*MockDevice)(nil)
	_ repositories.Player        = (*MockDevice)(nil)
)

// NewMockDevice creates an idle mock device
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// Feed queues a frame for the active capture; dropped when idle or when
// the buffer is full. Sending under the lock keeps Feed safe against a
// concurrent Stop closing the channel.
func (m *MockDevice) Feed(frame repositories.AudioFrame) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames == nil {
		return
	}
	select {
	case m.frames <- frame:
	default:
	}
}

func (m *MockDevice) Start(_ context.Context) (<-chan repositories.AudioFrame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	if m.closed {
		return nil, repositories.ErrDeviceUnavailable
	}
	m.frames = make(chan repositories.AudioFrame, 64)
	m.capturing = true
	return m.frames, nil
}

func (m *MockDevice) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StopCalls++
	if m.frames != nil {
		close(m.frames)
		m.frames = nil
	}
	m.capturing = false
	return nil
}

func (m *MockDevice) Play(_ context.Context, clip repositories.AudioClip, observe func(frame []int16)) (repositories.Playback, error) {
	if m.PlayErr != nil {
		return nil, m.PlayErr
	}
	m.mu.Lock()
	m.Played = append(m.Played, clip)
	m.mu.Unlock()

	pb := &mockPlayback{done: make(chan error, 1)}
	if observe != nil && len(clip.Data) > 0 {
		observe(make([]int16, len(clip.Data)/2))
	}
	if !m.Blocking {
		pb.Stop()
	}
	return pb, nil
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frames != nil {
		close(m.frames)
		m.frames = nil
	}
	m.closed = true
	return nil
}

// Capturing reports whether a capture stream is active
func (m *MockDevice) Capturing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturing
}

type mockPlayback struct {
	done chan error
	once sync.Once
}

func (p *mockPlayback) Done() <-chan error { return p.done }
func (p *mockPlayback) Stop()              { p.once.Do(func() { close(p.done) }) }
