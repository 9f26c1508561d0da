package player

import (
	"math"

	"github.com/drgolem/stretchplayer/pkg/stretch"
)

// maxWindowFrames bounds the per-callback input window. A speed high enough
// to need more source frames than this degrades to silence instead of
// overrunning the scratch buffers.
const maxWindowFrames = 8192

// Engine is the real-time render core. It is invoked synchronously by the
// audio device's own scheduling thread once per output buffer and must return
// within the device deadline, so this path takes no locks and performs no
// unbounded blocking.
//
// The stretcher array is constructed once at stream setup, sized to the
// negotiated device channel count, and owned exclusively by the render
// context; the decode and control paths never touch it.
type Engine struct {
	state      *State
	sampleRate int
	channels   int

	stretchers []*stretch.Stretcher
	inScratch  []float32
	outScratch []float32
	mix        []float32

	// Local copies of the hot parameters, updated only by draining the
	// parameter queue at the top of each render call. They are never read
	// mid-buffer from shared storage.
	speed float32
	pitch float32
}

// NewEngine creates the render core for a stream negotiated at the given
// sample rate and channel count.
func NewEngine(state *State, sampleRate, channels int) *Engine {
	stretchers := make([]*stretch.Stretcher, channels)
	for i := range stretchers {
		stretchers[i] = stretch.New(sampleRate)
	}

	return &Engine{
		state:      state,
		sampleRate: sampleRate,
		channels:   channels,
		stretchers: stretchers,
		inScratch:  make([]float32, maxWindowFrames),
		outScratch: make([]float32, maxWindowFrames),
		mix:        make([]float32, maxWindowFrames*channels),
		speed:      1,
		pitch:      1,
	}
}

// Render fills dst (interleaved, len = frames x channels) with the next
// output buffer. Implements the mute policy: paused, loading or seeking
// state produces pure silence so discontinuities never reach the stretchers.
func (e *Engine) Render(dst []float32) {
	frames := len(dst) / e.channels

	// Apply parameter updates queued since the previous call, latest wins.
	// Visibility granularity is one whole buffer, never mid-buffer.
	for {
		u, ok := e.state.params.pop()
		if !ok {
			break
		}
		switch u.kind {
		case paramSpeed:
			e.speed = u.value
		case paramPitch:
			e.pitch = u.value
		}
	}

	st := e.state
	if !st.playing.Load() || st.loading.Load() || st.seeking.Load() {
		clear(dst)
		return
	}

	clip := st.clip.Load()
	if clip == nil || len(clip.PCM) == 0 {
		clear(dst)
		return
	}

	cursor := int(st.cursor.Load())
	loopStart := int(st.loopStart.Load())
	loopEnd := int(st.loopEnd.Load())
	volume := st.Volume()
	clipChannels := clip.Channels
	if clipChannels <= 0 {
		clear(dst)
		return
	}

	// The control surface clamps speed and pitch, but the engine tolerates
	// any positive value and treats the rest as unset.
	speed := float64(e.speed)
	if speed <= 0 || math.IsNaN(speed) {
		speed = 1
	}
	pitch := float64(e.pitch)
	if pitch <= 0 || math.IsNaN(pitch) {
		pitch = 1
	}

	// stretchRatio = 1/speed; consuming round(frames*speed) source frames
	// per `frames` output frames realizes it.
	inputFrames := int(math.Round(float64(frames) * speed))

	// Loop wrap is evaluated once per buffer, before extraction, so loop
	// granularity equals the buffer length. The wrapped position is what the
	// cursor advances from, making the wrap durable in shared state.
	active := cursor
	if active >= loopEnd && loopEnd > loopStart {
		active = loopStart
	}

	if inputFrames > maxWindowFrames ||
		active < 0 ||
		active+inputFrames*clipChannels > len(clip.PCM) {
		clear(dst)
		return
	}

	for ch := 0; ch < e.channels; ch++ {
		srcCh := ch % clipChannels
		s := e.stretchers[ch]
		s.SetTransposeFactor(pitch)

		for i := 0; i < inputFrames; i++ {
			e.inScratch[i] = clip.PCM[active+i*clipChannels+srcCh]
		}
		s.Process(e.inScratch[:inputFrames], e.outScratch[:frames])

		for i := 0; i < frames; i++ {
			dst[i*e.channels+ch] = e.outScratch[i] * volume
		}
	}

	st.cursor.Store(uint64(active + inputFrames*clipChannels))
}
