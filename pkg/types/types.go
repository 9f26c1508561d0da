package types

import (
	"time"

	"github.com/drgolem/ringbuffer"
)

// AudioDecoder is the common interface for all audio decoders (WAV, MP3, FLAC,
// Ogg/Vorbis). All decoders must implement these methods to provide a
// consistent API for decoding audio files into interleaved float32 PCM.
type AudioDecoder interface {
	// Open opens an audio file for decoding
	Open(fileName string) error

	// Close closes the decoder and releases resources
	Close() error

	// GetFormat returns the audio format information
	// Returns: sample rate (Hz), channels (1=mono, 2=stereo), bits per sample
	// of the source stream (informational; decoded output is always float32)
	GetFormat() (rate, channels, bitsPerSample int)

	// DecodeSamples decodes up to 'samples' frames into dst as interleaved
	// float32 in [-1, 1].
	// dst must hold at least samples * channels values.
	// Returns the number of frames actually decoded. A call may return both
	// decoded frames and an error; callers should consume the frames first.
	DecodeSamples(samples int, dst []float32) (int, error)
}

// Status is the playback snapshot published for display. It is assembled from
// independently atomic fields, so pairs of values (e.g. Cursor and LoopEnd)
// may be transiently inconsistent with each other.
type Status struct {
	FilePath     string        // Path of the current (or loading) file
	IsLoading    bool          // A background load is in flight
	IsPlaying    bool          // Transport is running
	Cursor       int           // Position in interleaved samples
	TotalSamples int           // Length of the loaded buffer in interleaved samples
	SampleRate   int           // Sample rate of the loaded buffer in Hz
	Channels     int           // Channel count of the loaded buffer
	LoopStart    int           // Loop region start, interleaved samples
	LoopEnd      int           // Loop region end, interleaved samples
	Speed        float32       // Playback speed factor
	Pitch        float32       // Pitch transpose ratio
	Volume       float32       // Linear gain
	Waveform     []float32     // Peak magnitudes for display
	Elapsed      time.Duration // Cursor position as wall-clock audio time
	Total        time.Duration // Buffer length as wall-clock audio time
}

// Re-export common ringbuffer errors from github.com/drgolem/ringbuffer
// so queue users don't need to import it directly.
var (
	// ErrInsufficientSpace indicates the ringbuffer doesn't have enough space for the write operation
	ErrInsufficientSpace = ringbuffer.ErrInsufficientSpace

	// ErrInsufficientData indicates the ringbuffer doesn't have enough data for the read operation
	ErrInsufficientData = ringbuffer.ErrInsufficientData
)
