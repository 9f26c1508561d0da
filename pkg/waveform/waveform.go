package waveform

import "math"

// DefaultBuckets is the display resolution used for loaded files.
const DefaultBuckets = 1000

// Peaks summarizes interleaved PCM into min(buckets, len(pcm)) peak
// magnitudes, one per contiguous chunk of the input. Each peak is the maximum
// absolute sample value of its chunk, so a buffer in [-1, 1] yields peaks in
// [0, 1]. Chunks are of near-equal size (len/buckets, at least one sample).
func Peaks(pcm []float32, buckets int) []float32 {
	if len(pcm) == 0 || buckets <= 0 {
		return nil
	}
	if buckets > len(pcm) {
		buckets = len(pcm)
	}

	peaks := make([]float32, buckets)
	for i := 0; i < buckets; i++ {
		start := i * len(pcm) / buckets
		end := (i + 1) * len(pcm) / buckets
		peak := float32(0)
		for _, s := range pcm[start:end] {
			if a := float32(math.Abs(float64(s))); a > peak {
				peak = a
			}
		}
		peaks[i] = peak
	}
	return peaks
}
