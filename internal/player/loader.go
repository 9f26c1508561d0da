package player

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/drgolem/stretchplayer/pkg/decoders"
	"github.com/drgolem/stretchplayer/pkg/types"
	"github.com/drgolem/stretchplayer/pkg/waveform"

	soxr "github.com/zaf/resample"
)

// ErrLoadInProgress is returned when a load is requested while another one is
// still running. Loads are serialized: the caller retries once the current
// load settles rather than racing two workers on last-writer-wins.
var ErrLoadInProgress = errors.New("load already in progress")

// LoadFile starts a background load of the given audio file, replacing the
// current clip on success. It returns immediately; progress is observable
// through IsLoading and the Status snapshot.
//
// Every failure past this point is recoverable: it is logged, the loading
// flag is cleared and the previously loaded clip stays intact.
func (p *Player) LoadFile(path string) error {
	st := p.state
	if !st.loading.CompareAndSwap(false, true) {
		return ErrLoadInProgress
	}

	label := path
	st.fileLabel.Store(&label)

	go p.loadWorker(path)
	return nil
}

// loadWorker runs off the real-time path on a dedicated goroutine: it decodes
// the whole file into one interleaved float buffer, adapts it to the device
// sample rate, summarizes it for display, and publishes the result with a
// single atomic swap.
func (p *Player) loadWorker(path string) {
	defer p.state.loading.Store(false)

	decoder, err := decoders.NewDecoder(path)
	if err != nil {
		slog.Warn("Failed to open audio file", "file", path, "error", err)
		return
	}
	defer decoder.Close()

	rate, channels, bps := decoder.GetFormat()
	if channels <= 0 || rate <= 0 {
		slog.Warn("Audio file has unusable format", "file", path,
			"sample_rate", rate, "channels", channels)
		return
	}

	slog.Info("Audio file opened",
		"file", filepath.Base(path),
		"sample_rate", rate,
		"channels", channels,
		"bits_per_sample", bps)

	pcm := decodeAll(decoder, channels)
	if len(pcm) == 0 {
		slog.Warn("No decodable audio data", "file", path)
		return
	}

	if rate != p.sampleRate {
		slog.Info("Resampling to device rate", "from_rate", rate, "to_rate", p.sampleRate)
		pcm, err = resamplePCM(pcm, channels, rate, p.sampleRate)
		if err != nil {
			slog.Warn("Failed to resample audio", "file", path, "error", err)
			return
		}
	}

	// Keep the buffer frame-aligned so every cursor position can stay a
	// multiple of the channel count.
	pcm = pcm[:len(pcm)-len(pcm)%channels]

	clip := &Clip{
		PCM:        pcm,
		SampleRate: p.sampleRate,
		Channels:   channels,
		Waveform:   waveform.Peaks(pcm, waveform.DefaultBuckets),
		Path:       path,
	}
	p.state.publish(clip)

	slog.Info("Audio file loaded",
		"file", filepath.Base(path),
		"total_samples", len(pcm),
		"frames", len(pcm)/channels)
}

// decodeAll drains the decoder into one growing interleaved buffer.
// Reconstruction is best-effort: a read that delivers frames alongside an
// error keeps the frames and continues; decoding stops once a read delivers
// nothing.
func decodeAll(decoder types.AudioDecoder, channels int) []float32 {
	const bufferFrames = 4096

	buf := make([]float32, bufferFrames*channels)
	pcm := make([]float32, 0, bufferFrames*channels*16)

	for {
		n, err := decoder.DecodeSamples(bufferFrames, buf)
		if n > 0 {
			pcm = append(pcm, buf[:n*channels]...)
		}
		if n == 0 {
			if err != nil && err != io.EOF {
				slog.Debug("Decoding stopped", "error", err)
			}
			break
		}
	}
	return pcm
}

// resamplePCM converts the decoded buffer to the device sample rate using
// SoXR at high quality, via 16-bit PCM (the resampler's interchange format).
func resamplePCM(pcm []float32, channels, fromRate, toRate int) ([]float32, error) {
	if fromRate == toRate {
		return pcm, nil
	}

	in := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		v := s
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		u := uint16(int16(v * 32767))
		in[2*i] = byte(u)
		in[2*i+1] = byte(u >> 8)
	}

	var bufResampled bytes.Buffer
	bufWriter := bufio.NewWriter(&bufResampled)

	resampler, err := soxr.New(
		bufWriter,
		float64(fromRate),
		float64(toRate),
		channels,
		soxr.I16,
		soxr.HighQ,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler: %w", err)
	}

	if _, err := resampler.Write(in); err != nil {
		resampler.Close()
		return nil, fmt.Errorf("failed to resample: %w", err)
	}
	if err := resampler.Close(); err != nil {
		return nil, fmt.Errorf("failed to close resampler: %w", err)
	}
	if err := bufWriter.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush buffer: %w", err)
	}

	data := bufResampled.Bytes()
	out := make([]float32, len(data)/2)
	for i := range out {
		v := int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
		out[i] = float32(v) / 32768.0
	}
	return out, nil
}
