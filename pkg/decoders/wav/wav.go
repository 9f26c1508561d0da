package wav

import (
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-wav"
)

// Decoder wraps go-wav for decoding WAV audio files.
// Implements types.AudioDecoder interface.
type Decoder struct {
	file     *os.File
	reader   *wav.Reader
	rate     int
	channels int
	bps      int
}

// NewDecoder creates a new WAV decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens a WAV file for decoding
func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open WAV file: %w", err)
	}

	reader := wav.NewReader(file)
	format, err := reader.Format()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to read WAV format: %w", err)
	}

	if format.AudioFormat != wav.AudioFormatPCM {
		file.Close()
		return fmt.Errorf("unsupported WAV format: %d (only PCM supported)", format.AudioFormat)
	}

	d.file = file
	d.reader = reader
	d.rate = int(format.SampleRate)
	d.channels = int(format.NumChannels)
	d.bps = int(format.BitsPerSample)

	return nil
}

// Close closes the WAV file
func (d *Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		return err
	}
	return nil
}

// GetFormat returns the audio format (sample rate, channels, bits per sample)
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	return d.rate, d.channels, d.bps
}

// DecodeSamples decodes up to 'samples' frames into dst as interleaved
// float32 in [-1, 1]. dst must hold at least samples * channels values.
func (d *Decoder) DecodeSamples(samples int, dst []float32) (int, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}
	if samples*d.channels > len(dst) {
		samples = len(dst) / d.channels
	}

	// Full-scale divisor for the source bit depth; 8-bit WAV is unsigned.
	scale := float32(int64(1) << (d.bps - 1))

	frames := 0
	for frames < samples {
		samplesData, err := d.reader.ReadSamples(1)
		if len(samplesData) == 0 {
			if err == nil || err == io.EOF {
				return frames, io.EOF
			}
			return frames, err
		}

		for ch := 0; ch < d.channels; ch++ {
			v := 0
			if ch < len(samplesData[0].Values) {
				v = samplesData[0].Values[ch]
			}
			if d.bps == 8 {
				v -= 128
			}
			dst[frames*d.channels+ch] = float32(v) / scale
		}
		frames++

		if err != nil {
			return frames, err
		}
	}
	return frames, nil
}
