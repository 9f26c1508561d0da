package vorbis

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

// Decoder wraps jfreymuth/oggvorbis for decoding Ogg/Vorbis audio files.
// Implements types.AudioDecoder interface.
type Decoder struct {
	file     *os.File
	reader   *oggvorbis.Reader
	rate     int
	channels int
}

// NewDecoder creates a new Ogg/Vorbis decoder
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Open opens an Ogg/Vorbis file for decoding
func (d *Decoder) Open(fileName string) error {
	file, err := os.Open(fileName)
	if err != nil {
		return fmt.Errorf("failed to open Ogg file: %w", err)
	}

	reader, err := oggvorbis.NewReader(file)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	d.file = file
	d.reader = reader
	d.rate = reader.SampleRate()
	d.channels = reader.Channels()

	return nil
}

// Close closes the decoder and releases resources
func (d *Decoder) Close() error {
	if d.file != nil {
		err := d.file.Close()
		d.file = nil
		d.reader = nil
		return err
	}
	return nil
}

// GetFormat returns the audio format (rate, channels, bits per sample)
func (d *Decoder) GetFormat() (rate, channels, bitsPerSample int) {
	return d.rate, d.channels, 32
}

// DecodeSamples decodes up to 'samples' frames into dst as interleaved
// float32 in [-1, 1]. dst must hold at least samples * channels values.
//
// Vorbis decodes to float natively; the read is a straight pass-through.
// oggvorbis always returns a whole number of frames.
func (d *Decoder) DecodeSamples(samples int, dst []float32) (int, error) {
	if d.reader == nil {
		return 0, fmt.Errorf("decoder not initialized")
	}
	if samples*d.channels > len(dst) {
		samples = len(dst) / d.channels
	}

	n, err := d.reader.Read(dst[:samples*d.channels])
	return n / d.channels, err
}
