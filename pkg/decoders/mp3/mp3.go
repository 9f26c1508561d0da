package mp3

import (
	"fmt"
	"io"
	"os"

	gomp3 "github.com/hajimehoshi/go-mp3"
)

// mp3Channels is fixed by go-mp3: decoded output is always stereo
// 16-bit little-endian PCM.
const mp3Channels = 2

// Decoder wraps hajimehoshi/go-mp3 to provide MP3 decoding capabilities.
// Implements types.AudioDecoder interface.
type Decoder struct {
	file    *os.File
	decoder *gomp3.Decoder
	rate    int
	scratch []byte
}

// NewDecoder creates a new MP3 decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens and initializes an MP3 file for decoding
func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := gomp3.NewDecoder(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	d.file = file
	d.decoder = decoder
	d.rate = decoder.SampleRate()

	return nil
}

// Close closes the decoder and releases resources
func (d *Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		d.decoder = nil
		return err
	}
	return nil
}

// GetFormat returns the audio format (rate, channels, bits per sample)
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	return d.rate, mp3Channels, 16
}

// DecodeSamples decodes up to 'samples' frames into dst as interleaved
// float32 in [-1, 1]. dst must hold at least samples * 2 values.
func (d *Decoder) DecodeSamples(samples int, dst []float32) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}
	if samples*mp3Channels > len(dst) {
		samples = len(dst) / mp3Channels
	}

	bytesNeeded := samples * mp3Channels * 2
	if cap(d.scratch) < bytesNeeded {
		d.scratch = make([]byte, bytesNeeded)
	}
	d.scratch = d.scratch[:bytesNeeded]

	n, err := io.ReadFull(d.decoder, d.scratch)
	if n == 0 {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	values := n / 2
	for i := 0; i < values; i++ {
		v := int16(uint16(d.scratch[2*i]) | uint16(d.scratch[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return values / mp3Channels, err
}
