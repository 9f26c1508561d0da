package wav

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	gowav "github.com/youpy/go-wav"
)

func writeFixture(t *testing.T, frames, channels, sampleRate int, gen func(frame, ch int) int16) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	defer f.Close()

	raw := make([]byte, frames*channels*2)
	for fr := 0; fr < frames; fr++ {
		for ch := 0; ch < channels; ch++ {
			u := uint16(gen(fr, ch))
			i := (fr*channels + ch) * 2
			raw[i] = byte(u)
			raw[i+1] = byte(u >> 8)
		}
	}

	w := gowav.NewWriter(f, uint32(frames), uint16(channels), uint32(sampleRate), 16)
	if _, err := w.Write(raw); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestDecodeFormat(t *testing.T) {
	path := writeFixture(t, 100, 2, 22050, func(frame, ch int) int16 { return 0 })

	d := NewDecoder()
	if err := d.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	rate, channels, bps := d.GetFormat()
	if rate != 22050 || channels != 2 || bps != 16 {
		t.Errorf("format: got %d Hz %d ch %d bps, want 22050 Hz 2 ch 16 bps",
			rate, channels, bps)
	}
}

func TestDecodeSampleValues(t *testing.T) {
	// A per-channel ramp so sample positions are distinguishable after decode.
	path := writeFixture(t, 64, 2, 44100, func(frame, ch int) int16 {
		v := int16(frame * 256)
		if ch == 1 {
			v = -v
		}
		return v
	})

	d := NewDecoder()
	if err := d.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	dst := make([]float32, 64*2)
	n, err := d.DecodeSamples(64, dst)
	if n != 64 {
		t.Fatalf("DecodeSamples: got %d frames (err %v), want 64", n, err)
	}

	for fr := 0; fr < 64; fr++ {
		want := float64(fr*256) / 32768.0
		got := float64(dst[fr*2])
		if math.Abs(got-want) > 1e-6 {
			t.Fatalf("frame %d left: got %v, want %v", fr, got, want)
		}
		if math.Abs(float64(dst[fr*2+1])+want) > 1e-6 {
			t.Fatalf("frame %d right: got %v, want %v", fr, dst[fr*2+1], -want)
		}
	}
}

func TestDecodePartialReadsAndEOF(t *testing.T) {
	path := writeFixture(t, 100, 1, 44100, func(frame, ch int) int16 { return 1000 })

	d := NewDecoder()
	if err := d.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	dst := make([]float32, 60)
	total := 0
	for {
		n, err := d.DecodeSamples(60, dst)
		total += n
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("DecodeSamples: %v", err)
		}
		if n == 0 {
			t.Fatal("zero frames without EOF")
		}
	}
	if total != 100 {
		t.Errorf("total frames: got %d, want 100", total)
	}
}

func TestDecodeDstTooSmall(t *testing.T) {
	path := writeFixture(t, 10, 2, 44100, func(frame, ch int) int16 { return 5 })

	d := NewDecoder()
	if err := d.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	// Room for only 4 stereo frames; the decoder must not overrun dst.
	dst := make([]float32, 8)
	n, err := d.DecodeSamples(10, dst)
	if err != nil && err != io.EOF {
		t.Fatalf("DecodeSamples: %v", err)
	}
	if n != 4 {
		t.Errorf("frames: got %d, want 4", n)
	}
}
