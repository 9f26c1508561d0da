package waveform

import (
	"math"
	"testing"
)

func TestPeaksBucketCount(t *testing.T) {
	tests := []struct {
		name     string
		samples  int
		buckets  int
		expected int
	}{
		{"empty", 0, 1000, 0},
		{"shorter than buckets", 10, 1000, 10},
		{"single sample", 1, 1000, 1},
		{"exact", 1000, 1000, 1000},
		{"longer", 44100 * 2, 1000, 1000},
		{"not a multiple", 2500, 1000, 1000},
	}

	for _, tt := range tests {
		pcm := make([]float32, tt.samples)
		peaks := Peaks(pcm, tt.buckets)
		if len(peaks) != tt.expected {
			t.Errorf("%s: Peaks of %d samples: got %d buckets, want %d",
				tt.name, tt.samples, len(peaks), tt.expected)
		}
	}
}

func TestPeaksAreChunkMaxAbs(t *testing.T) {
	// 8 samples in 4 buckets: chunks of 2, peak is max(|a|, |b|)
	pcm := []float32{0.1, -0.5, 0.2, 0.3, -0.9, 0.0, 0.0, 0.0}
	peaks := Peaks(pcm, 4)

	want := []float32{0.5, 0.3, 0.9, 0.0}
	if len(peaks) != len(want) {
		t.Fatalf("got %d peaks, want %d", len(peaks), len(want))
	}
	for i := range want {
		if peaks[i] != want[i] {
			t.Errorf("peak[%d]: got %v, want %v", i, peaks[i], want[i])
		}
	}
}

func TestPeaksBounded(t *testing.T) {
	pcm := make([]float32, 12345)
	for i := range pcm {
		pcm[i] = float32(math.Sin(float64(i) * 0.01))
	}

	peaks := Peaks(pcm, DefaultBuckets)
	if len(peaks) != DefaultBuckets {
		t.Fatalf("got %d peaks, want %d", len(peaks), DefaultBuckets)
	}
	for i, p := range peaks {
		if p < 0 || p > 1 {
			t.Errorf("peak[%d] = %v, want within [0, 1]", i, p)
		}
	}
}

func TestPeaksZeroBuckets(t *testing.T) {
	if got := Peaks([]float32{1, 2, 3}, 0); got != nil {
		t.Errorf("Peaks with 0 buckets: got %v, want nil", got)
	}
}
