package flac

import (
	"fmt"

	goflac "github.com/drgolem/go-flac/flac"
)

// decodeBits is the output bit depth requested from the FLAC frame decoder.
const decodeBits = 16

// Decoder wraps the go-flac decoder to provide FLAC decoding capabilities.
// Implements types.AudioDecoder interface.
type Decoder struct {
	decoder  *goflac.FlacDecoder
	rate     int
	channels int
	bps      int
	scratch  []byte
}

// NewDecoder creates a new FLAC decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens and initializes a FLAC file for decoding
func (d *Decoder) Open(fileName string) error {
	decoder, err := goflac.NewFlacFrameDecoder(decodeBits)
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	err = decoder.Open(fileName)
	if err != nil {
		decoder.Delete()
		return fmt.Errorf("failed to open file %s: %w", fileName, err)
	}

	rate, channels, bps := decoder.GetFormat()

	d.decoder = decoder
	d.rate = rate
	d.channels = channels
	d.bps = bps

	return nil
}

// Close closes the decoder and releases resources
func (d *Decoder) Close() error {
	if d.decoder != nil {
		d.decoder.Close()
		d.decoder.Delete()
		d.decoder = nil
	}
	return nil
}

// GetFormat returns the audio format (rate, channels, bits per sample)
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	return d.rate, d.channels, d.bps
}

// DecodeSamples decodes up to 'samples' frames into dst as interleaved
// float32 in [-1, 1]. dst must hold at least samples * channels values.
//
// The frame decoder emits 16-bit little-endian PCM regardless of the source
// bit depth; conversion to float is done here.
func (d *Decoder) DecodeSamples(samples int, dst []float32) (int, error) {
	if d.decoder == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}
	if samples*d.channels > len(dst) {
		samples = len(dst) / d.channels
	}

	bytesNeeded := samples * d.channels * (decodeBits / 8)
	if cap(d.scratch) < bytesNeeded {
		d.scratch = make([]byte, bytesNeeded)
	}
	d.scratch = d.scratch[:bytesNeeded]

	n, err := d.decoder.DecodeSamples(samples, d.scratch)
	if n <= 0 {
		return 0, err
	}

	values := n * d.channels
	for i := 0; i < values; i++ {
		v := int16(uint16(d.scratch[2*i]) | uint16(d.scratch[2*i+1])<<8)
		dst[i] = float32(v) / 32768.0
	}

	return n, err
}
