package player

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/drgolem/stretchplayer/pkg/types"
)

// Clip is an immutable decoded audio buffer. It is built off to the side by
// the load worker and published wholesale with a single atomic pointer swap,
// so the render callback never observes a partially constructed buffer. A
// render call that grabbed the previous pointer keeps reading the old clip
// safely until the next call.
type Clip struct {
	PCM        []float32 // interleaved float PCM
	SampleRate int
	Channels   int
	Waveform   []float32 // peak magnitudes for display
	Path       string
}

// TotalSamples returns the buffer length in interleaved samples
// (frames x channels).
func (c *Clip) TotalSamples() int {
	return len(c.PCM)
}

// State is the playback state shared between the control path, the load
// worker, and the real-time render callback.
//
// Concurrency model: every field is individually atomic; there is no
// cross-field transaction. The render path reads cursor/loop/flags
// defensively, so transiently inconsistent pairings (e.g. a fresh cursor with
// a stale loop end) degrade to silence or a late wrap, never to a crash.
// Cursor, loopStart and loopEnd are in interleaved sample units and every
// writer keeps them multiples of the clip channel count.
type State struct {
	playing atomic.Bool
	loading atomic.Bool
	seeking atomic.Bool

	cursor    atomic.Uint64
	loopStart atomic.Uint64
	loopEnd   atomic.Uint64

	speedBits  atomic.Uint32
	pitchBits  atomic.Uint32
	volumeBits atomic.Uint32

	clip      atomic.Pointer[Clip]
	fileLabel atomic.Pointer[string]

	params *paramRing
}

// NewState returns playback state with defaults: playing, no clip,
// speed=1, pitch=1, volume=1.
func NewState() *State {
	s := &State{
		params: newParamRing(256),
	}
	s.playing.Store(true)
	s.speedBits.Store(floatBits(1.0))
	s.pitchBits.Store(floatBits(1.0))
	s.volumeBits.Store(floatBits(1.0))
	label := "No file selected"
	s.fileLabel.Store(&label)
	return s
}

// Float parameters are stored as their bit pattern in atomic.Uint32 so each
// is individually atomic without a lock.
func floatBits(v float32) uint32 {
	return math.Float32bits(v)
}

func floatValue(bits uint32) float32 {
	return math.Float32frombits(bits)
}

// publish swaps in a freshly loaded clip and resets the transport:
// cursor=0, loopStart=0, loopEnd=total. Positions are reset before the swap
// so the render path never pairs the new buffer with a stale out-of-range
// cursor for longer than its end-of-buffer guard tolerates.
func (s *State) publish(c *Clip) {
	s.cursor.Store(0)
	s.loopStart.Store(0)
	s.loopEnd.Store(uint64(c.TotalSamples()))
	s.clip.Store(c)
	s.fileLabel.Store(&c.Path)
}

// Clip returns the currently published clip, or nil before the first load.
func (s *State) Clip() *Clip {
	return s.clip.Load()
}

// TotalSamples returns the published buffer length in interleaved samples.
func (s *State) TotalSamples() int {
	if c := s.clip.Load(); c != nil {
		return c.TotalSamples()
	}
	return 0
}

func (s *State) channels() int {
	if c := s.clip.Load(); c != nil && c.Channels > 0 {
		return c.Channels
	}
	return 1
}

// alignSample clamps an interleaved sample index to [0, total] and rounds it
// down to a multiple of the channel count.
func (s *State) alignSample(idx int) int {
	total := s.TotalSamples()
	if idx < 0 {
		idx = 0
	}
	if idx > total {
		idx = total
	}
	ch := s.channels()
	return idx - idx%ch
}

// SetPlaying starts or pauses the transport.
func (s *State) SetPlaying(playing bool) {
	s.playing.Store(playing)
}

// TogglePlaying flips play/pause and returns the new value.
func (s *State) TogglePlaying() bool {
	for {
		old := s.playing.Load()
		if s.playing.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// IsPlaying reports whether the transport is running.
func (s *State) IsPlaying() bool {
	return s.playing.Load()
}

// IsLoading reports whether a background load is in flight.
func (s *State) IsLoading() bool {
	return s.loading.Load()
}

// SetSpeed sets the playback speed factor. Non-positive values are ignored.
// The value is stored for display and forwarded to the render context through
// the parameter queue; it becomes audible no later than the next callback.
func (s *State) SetSpeed(speed float32) {
	if speed <= 0 {
		return
	}
	s.speedBits.Store(floatBits(speed))
	_ = s.params.push(paramUpdate{kind: paramSpeed, value: speed})
}

// SetPitch sets the pitch transpose ratio. Non-positive values are ignored.
func (s *State) SetPitch(pitch float32) {
	if pitch <= 0 {
		return
	}
	s.pitchBits.Store(floatBits(pitch))
	_ = s.params.push(paramUpdate{kind: paramPitch, value: pitch})
}

// SetVolume sets the linear gain. Negative values are ignored. Volume is a
// plain shared scalar, not queued: it scales output samples directly and a
// mid-stream read of either value is fine.
func (s *State) SetVolume(volume float32) {
	if volume < 0 {
		return
	}
	s.volumeBits.Store(floatBits(volume))
}

// ResetParams restores speed and pitch to 1. Calling it twice in a row leaves
// identical state to calling it once.
func (s *State) ResetParams() {
	s.SetSpeed(1)
	s.SetPitch(1)
}

// Speed returns the speed last set through the control surface.
func (s *State) Speed() float32 {
	return floatValue(s.speedBits.Load())
}

// Pitch returns the pitch ratio last set through the control surface.
func (s *State) Pitch() float32 {
	return floatValue(s.pitchBits.Load())
}

// Volume returns the current linear gain.
func (s *State) Volume() float32 {
	return floatValue(s.volumeBits.Load())
}

// SetCursor seeks to an absolute interleaved sample index, clamped and
// channel-aligned.
func (s *State) SetCursor(idx int) {
	s.cursor.Store(uint64(s.alignSample(idx)))
}

// Cursor returns the playback position in interleaved samples.
func (s *State) Cursor() int {
	return int(s.cursor.Load())
}

// SeekFraction seeks to a fractional position p in [0, 1] of the buffer.
func (s *State) SeekFraction(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	s.SetCursor(int(p * float64(s.TotalSamples())))
}

// BeginSeek suppresses render output across a cursor discontinuity. A cursor
// jump fed straight into the stretchers would chirp; the mute policy covers
// the jump instead.
func (s *State) BeginSeek() {
	s.seeking.Store(true)
}

// EndSeek re-enables render output after a seek settles.
func (s *State) EndSeek() {
	s.seeking.Store(false)
}

// SetLoopStart sets the loop region start. The writer keeps
// loopStart <= loopEnd; the value is clamped to the current loop end.
func (s *State) SetLoopStart(idx int) {
	v := uint64(s.alignSample(idx))
	if end := s.loopEnd.Load(); v > end {
		v = end
	}
	s.loopStart.Store(v)
}

// SetLoopEnd sets the loop region end, clamped to not precede the loop start.
func (s *State) SetLoopEnd(idx int) {
	v := uint64(s.alignSample(idx))
	if start := s.loopStart.Load(); v < start {
		v = start
	}
	s.loopEnd.Store(v)
}

// SetLoopStartAtCursor marks the loop start at the current position.
func (s *State) SetLoopStartAtCursor() {
	s.SetLoopStart(s.Cursor())
}

// SetLoopEndAtCursor marks the loop end at the current position.
func (s *State) SetLoopEndAtCursor() {
	s.SetLoopEnd(s.Cursor())
}

// ClearLoop resets the loop region to the whole buffer.
func (s *State) ClearLoop() {
	s.loopStart.Store(0)
	s.loopEnd.Store(uint64(s.TotalSamples()))
}

// ShiftLoop moves the whole loop window by delta interleaved samples,
// preserving its width and clamping to the buffer bounds.
func (s *State) ShiftLoop(delta int) {
	start := int(s.loopStart.Load())
	end := int(s.loopEnd.Load())
	width := end - start
	if width <= 0 {
		return
	}

	if delta < 0 {
		if shift := -delta; shift > start {
			delta = -start
		}
	} else {
		if room := s.TotalSamples() - end; delta > room {
			delta = room
		}
	}
	ch := s.channels()
	delta -= delta % ch

	s.loopStart.Store(uint64(start + delta))
	s.loopEnd.Store(uint64(end + delta))
}

// LoopBounds returns the loop region in interleaved samples.
func (s *State) LoopBounds() (start, end int) {
	return int(s.loopStart.Load()), int(s.loopEnd.Load())
}

// Status assembles the display snapshot. Fields are read independently, so a
// snapshot taken mid-update can pair values from different instants.
func (s *State) Status() types.Status {
	st := types.Status{
		IsLoading: s.loading.Load(),
		IsPlaying: s.playing.Load(),
		Cursor:    int(s.cursor.Load()),
		LoopStart: int(s.loopStart.Load()),
		LoopEnd:   int(s.loopEnd.Load()),
		Speed:     s.Speed(),
		Pitch:     s.Pitch(),
		Volume:    s.Volume(),
	}
	if label := s.fileLabel.Load(); label != nil {
		st.FilePath = *label
	}
	if c := s.clip.Load(); c != nil {
		st.TotalSamples = c.TotalSamples()
		st.SampleRate = c.SampleRate
		st.Channels = c.Channels
		st.Waveform = c.Waveform

		if div := c.SampleRate * c.Channels; div > 0 {
			st.Elapsed = time.Duration(float64(st.Cursor) / float64(div) * float64(time.Second))
			st.Total = time.Duration(float64(st.TotalSamples) / float64(div) * float64(time.Second))
		}
	}
	return st
}
