// Package player implements the variable-speed, variable-pitch playback core:
// shared playback state, the background decode pipeline, and the real-time
// render callback.
//
// Three execution contexts touch this package: the control path (CLI or any
// other UI collaborator) issuing commands at event cadence, one load worker
// goroutine per accepted load request, and the audio device's callback thread
// with a hard deadline of framesPerBuffer/sampleRate seconds per call. The
// only cross-context resource is the immutable published clip; everything
// else is per-field atomic state with no global lock.
package player

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/drgolem/go-portaudio/portaudio"
)

// Player ties the playback state, the render engine and the PortAudio output
// stream together.
type Player struct {
	state  *State
	engine *Engine
	stream *portaudio.PaStream

	deviceIndex     int
	framesPerBuffer int
	sampleRate      int
	channels        int
}

// New creates a Player for the given output device and stream geometry.
// The sample rate and channel count fixed here are what the whole pipeline
// adapts to: loads resample to sampleRate and the engine keeps one stretcher
// per channel.
func New(deviceIdx, framesPerBuffer, sampleRate, channels int) *Player {
	state := NewState()
	return &Player{
		state:           state,
		engine:          NewEngine(state, sampleRate, channels),
		deviceIndex:     deviceIdx,
		framesPerBuffer: framesPerBuffer,
		sampleRate:      sampleRate,
		channels:        channels,
	}
}

// State exposes the control surface and display snapshot.
func (p *Player) State() *State {
	return p.state
}

// Start opens the output stream in callback mode and begins rendering.
// A failure here is fatal to the application: there is no recovery path for
// a machine without a usable audio output.
func (p *Player) Start() error {
	p.stream = &portaudio.PaStream{
		OutputParameters: &portaudio.PaStreamParameters{
			DeviceIndex:  p.deviceIndex,
			ChannelCount: p.channels,
			SampleFormat: portaudio.SampleFmtInt16,
		},
		SampleRate: float64(p.sampleRate),
	}

	if err := p.stream.OpenCallback(p.framesPerBuffer, p.audioCallback); err != nil {
		return fmt.Errorf("failed to open stream with callback: %w", err)
	}
	if err := p.stream.StartStream(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}

	slog.Info("Audio stream started",
		"sample_rate", p.sampleRate,
		"channels", p.channels,
		"frames_per_buffer", p.framesPerBuffer)
	return nil
}

// Stop stops and closes the output stream. Safe to call after a failed Start.
func (p *Player) Stop() error {
	if p.stream != nil {
		if err := p.stream.StopStream(); err != nil {
			slog.Warn("Failed to stop stream", "error", err)
		}
		if err := p.stream.CloseCallback(); err != nil {
			slog.Warn("Failed to close stream", "error", err)
		}
		p.stream = nil
	}
	return nil
}

// audioCallback is called by PortAudio to fill the output buffer.
//
// IMPORTANT: This runs in a separate audio thread managed by PortAudio's C
// library, NOT in a Go goroutine. It must be fast, must not block, and must
// always fill the buffer: any guard condition degrades to silence rather
// than partial output.
func (p *Player) audioCallback(
	input, output []byte,
	frameCount uint,
	timeInfo *portaudio.StreamCallbackTimeInfo,
	statusFlags portaudio.StreamCallbackFlags,
) portaudio.StreamCallbackResult {

	frames := int(frameCount)
	values := frames * p.channels
	if values*2 > len(output) || values > len(p.engine.mix) {
		clear(output)
		return portaudio.Continue
	}

	mix := p.engine.mix[:values]
	p.engine.Render(mix)

	// int16 conversion saturates; the engine itself applies gain unclamped.
	for i, s := range mix {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(output[2*i:], uint16(int16(s*32767)))
	}

	return portaudio.Continue
}
