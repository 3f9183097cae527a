// Package audio connects the orchestrator to a local audio helper over a
// websocket: binary messages carry PCM frames (microphone in, speaker
// out), text messages carry JSON control records.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
	internalaudio "github.com/ahmedfahim21/fingreat-go/internal/audio"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024

	defaultSampleRate = 16000
	frameChanBuffer   = 64
	playbackChunk     = 2048 // samples per playback chunk
)

// Config holds configuration for the audio gateway.
// Required fields:
// - URL: websocket address of the audio helper (e.g. ws://127.0.0.1:8765/audio)
// Optional fields with defaults:
// - SampleRate: capture sample rate (default 16000)
type Config struct {
	URL        string
	SampleRate int
}

// NewConfigFromEnv creates a Config from AUDIO_GATEWAY_URL
func NewConfigFromEnv() Config {
	return Config{URL: os.Getenv("AUDIO_GATEWAY_URL")}
}

// controlMessage is a JSON text frame on the gateway connection
type controlMessage struct {
	Type       string `json:"type"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Gateway owns the single websocket connection to the audio helper. It
// implements both CaptureDevice and Player; the voice pipeline enforces
// that only one of the two is active at a time.
type Gateway struct {
	conn       *websocket.Conn
	sampleRate int
	logger     *zap.Logger

	writeMu sync.Mutex // serializes writes to the connection

	mu        sync.Mutex
	frames    chan repositories.AudioFrame // non-nil while capturing
	playing   *gatewayPlayback             // non-nil while a clip is in flight
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
}

// Ensure Gateway implements the device interfaces
var (
	_ repositories.CaptureDevice = (*Gateway)(nil)
	_ repositories.Player        = (*Gateway)(nil)
)

// Dial connects to the audio helper. A failed dial surfaces as
// ErrDeviceUnavailable; there is nothing to retry against.
func Dial(ctx context.Context, config Config, logger *zap.Logger) (*Gateway, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("%w: no audio gateway configured", repositories.ErrDeviceUnavailable)
	}

	sampleRate := config.SampleRate
	if sampleRate == 0 {
		sampleRate = defaultSampleRate
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, config.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrDeviceUnavailable, err)
	}

	g := &Gateway{
		conn:       conn,
		sampleRate: sampleRate,
		logger:     logger,
		done:       make(chan struct{}),
	}

	go g.readPump()
	go g.pingLoop()

	logger.Info("Audio gateway connected",
		zap.String("url", config.URL),
		zap.Int("sampleRate", sampleRate))
	return g, nil
}

// Start begins microphone capture and returns the frame stream
func (g *Gateway) Start(ctx context.Context) (<-chan repositories.AudioFrame, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return nil, repositories.ErrDeviceUnavailable
	}
	if g.frames != nil {
		return nil, fmt.Errorf("capture already active")
	}

	if err := g.writeControl(controlMessage{
		Type:       "start_capture",
		SampleRate: g.sampleRate,
		Encoding:   "pcm_s16le",
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrDeviceUnavailable, err)
	}

	frames := make(chan repositories.AudioFrame, frameChanBuffer)
	g.frames = frames

	// Release the stream when the caller's context ends first.
	go func() {
		select {
		case <-ctx.Done():
			g.Stop()
		case <-g.done:
		}
	}()

	return frames, nil
}

// Stop ends the active capture. Safe to call when not capturing.
func (g *Gateway) Stop() error {
	g.mu.Lock()
	frames := g.frames
	g.frames = nil
	closed := g.closed
	g.mu.Unlock()

	if frames == nil {
		return nil
	}
	close(frames)
	if closed {
		return nil
	}
	return g.writeControl(controlMessage{Type: "stop_capture"})
}

// Play streams a clip to the speaker, invoking observe per PCM chunk.
// A new playback supersedes any clip still in flight.
func (g *Gateway) Play(ctx context.Context, clip repositories.AudioClip, observe func(frame []int16)) (repositories.Playback, error) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil, repositories.ErrDeviceUnavailable
	}
	prev := g.playing
	g.mu.Unlock()

	if prev != nil {
		prev.Stop()
	}

	sampleRate := clip.SampleRate
	if sampleRate == 0 {
		sampleRate = g.sampleRate
	}
	if err := g.writeControl(controlMessage{
		Type:       "play",
		SampleRate: sampleRate,
		Encoding:   clip.Encoding,
	}); err != nil {
		return nil, err
	}

	pb := &gatewayPlayback{
		gateway: g,
		done:    make(chan error, 1),
		stop:    make(chan struct{}),
	}
	g.mu.Lock()
	g.playing = pb
	g.mu.Unlock()

	go pb.run(ctx, internalaudio.DecodePCM16(clip.Data), sampleRate, observe)
	return pb, nil
}

func (g *Gateway) clearPlayback(p *gatewayPlayback) {
	g.mu.Lock()
	if g.playing == p {
		g.playing = nil
	}
	g.mu.Unlock()
}

// Close tears down the connection. Idempotent.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		g.mu.Lock()
		g.closed = true
		frames := g.frames
		g.frames = nil
		playing := g.playing
		g.playing = nil
		g.mu.Unlock()

		if frames != nil {
			close(frames)
		}
		if playing != nil {
			playing.Stop()
		}
		close(g.done)

		g.writeMu.Lock()
		g.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		g.writeMu.Unlock()
		g.conn.Close()

		g.logger.Info("Audio gateway closed")
	})
	return nil
}

// readPump drains the connection: binary frames feed the active capture
// stream, text frames report helper-side errors.
func (g *Gateway) readPump() {
	defer g.Close()

	g.conn.SetReadLimit(maxMessageSize)
	g.conn.SetReadDeadline(time.Now().Add(pongWait))
	g.conn.SetPongHandler(func(string) error {
		g.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := g.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Error("Audio gateway read failed", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			g.deliverFrame(message)
		case websocket.TextMessage:
			var ctrl controlMessage
			if err := json.Unmarshal(message, &ctrl); err != nil {
				g.logger.Warn("Ignoring malformed control message", zap.Error(err))
				continue
			}
			if ctrl.Type == "error" {
				g.logger.Error("Audio helper reported error", zap.String("error", ctrl.Error))
			}
		default:
			g.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

func (g *Gateway) deliverFrame(data []byte) {
	g.mu.Lock()
	frames := g.frames
	g.mu.Unlock()
	if frames == nil {
		return // not capturing; drop
	}

	frame := repositories.AudioFrame{
		Samples:    internalaudio.DecodePCM16(data),
		SampleRate: g.sampleRate,
	}
	select {
	case frames <- frame:
	default:
		g.logger.Warn("Dropping capture frame, consumer is behind")
	}
}

func (g *Gateway) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.writeMu.Lock()
			err := g.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			g.writeMu.Unlock()
			if err != nil {
				g.Close()
				return
			}
		case <-g.done:
			return
		}
	}
}

func (g *Gateway) writeControl(msg controlMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	g.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return g.conn.WriteMessage(websocket.TextMessage, payload)
}

func (g *Gateway) writeBinary(payload []byte) error {
	g.writeMu.Lock()
	defer g.writeMu.Unlock()
	g.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return g.conn.WriteMessage(websocket.BinaryMessage, payload)
}

// gatewayPlayback is one in-flight clip being streamed to the speaker
type gatewayPlayback struct {
	gateway  *Gateway
	done     chan error
	stop     chan struct{}
	stopOnce sync.Once
}

var _ repositories.Playback = (*gatewayPlayback)(nil)

func (p *gatewayPlayback) Done() <-chan error { return p.done }

func (p *gatewayPlayback) Stop() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.gateway.writeControl(controlMessage{Type: "stop_play"})
	})
}

// run paces the clip out in real time so observe sees frames as they play
func (p *gatewayPlayback) run(ctx context.Context, samples []int16, sampleRate int, observe func(frame []int16)) {
	defer func() {
		close(p.done)
		p.gateway.clearPlayback(p)
	}()

	chunkDuration := time.Duration(playbackChunk) * time.Second / time.Duration(sampleRate)
	ticker := time.NewTicker(chunkDuration)
	defer ticker.Stop()

	for offset := 0; offset < len(samples); offset += playbackChunk {
		end := offset + playbackChunk
		if end > len(samples) {
			end = len(samples)
		}
		chunk := samples[offset:end]

		if err := p.gateway.writeBinary(internalaudio.EncodePCM16(chunk)); err != nil {
			p.done <- fmt.Errorf("playback write failed: %w", err)
			return
		}
		if observe != nil {
			observe(chunk)
		}

		select {
		case <-ticker.C:
		case <-p.stop:
			return
		case <-ctx.Done():
			p.done <- ctx.Err()
			return
		}
	}
}
