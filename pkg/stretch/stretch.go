// Package stretch implements a streaming time-stretcher with independent
// pitch transposition, built on a Hann-windowed phase vocoder.
//
// A Stretcher keeps phase state across calls, so one persistent instance per
// audio channel must be reused for the whole life of a stream; recreating it
// per buffer destroys phase continuity and produces audible artifacts.
package stretch

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	frameSize = 2048
	hopSynth  = frameSize / 4

	// Hann squared summed at 75% overlap adds up to 1.5.
	olaNorm = 1.0 / 1.5
)

// Stretcher converts an arbitrary-ratio input window into an exact number of
// output samples. The stretch factor of a call is defined by the input/output
// lengths handed to Process; the transpose factor shifts pitch independently.
//
// Not safe for concurrent use: a Stretcher is owned by exactly one caller,
// typically the real-time render context.
type Stretcher struct {
	sampleRate int
	transpose  float64

	win       []float64
	prevPhase []float64
	sumPhase  []float64

	// Pending source samples. Analysis frames are read at inPos, which
	// advances by the (fractional) analysis hop per synthesized frame.
	inBuf []float64
	inPos float64

	// Time-stretched signal under construction. Samples in [0, writeOff) are
	// final; later positions may still receive overlap-add contributions.
	stretched []float64
	writeOff  int
	resampPos float64

	frame    []float64
	spectrum []complex128
}

// New returns a Stretcher for one channel of audio at the given sample rate,
// with the transpose factor at 1 (no pitch shift).
func New(sampleRate int) *Stretcher {
	return &Stretcher{
		sampleRate: sampleRate,
		transpose:  1.0,
		win:        window.Hann(frameSize),
		prevPhase:  make([]float64, frameSize/2+1),
		sumPhase:   make([]float64, frameSize/2+1),
		stretched:  make([]float64, frameSize),
		frame:      make([]float64, frameSize),
		spectrum:   make([]complex128, frameSize),
	}
}

// SampleRate returns the sample rate the Stretcher was created for.
func (s *Stretcher) SampleRate() int {
	return s.sampleRate
}

// SetTransposeFactor sets the pitch-shift ratio (2 = up one octave,
// 0.5 = down one octave). Non-positive values are ignored.
func (s *Stretcher) SetTransposeFactor(ratio float64) {
	if ratio > 0 {
		s.transpose = ratio
	}
}

// TransposeFactor returns the current pitch-shift ratio.
func (s *Stretcher) TransposeFactor() float64 {
	return s.transpose
}

// Reset clears all carried state, discarding pending input and phase history.
func (s *Stretcher) Reset() {
	for i := range s.prevPhase {
		s.prevPhase[i] = 0
		s.sumPhase[i] = 0
	}
	s.inBuf = s.inBuf[:0]
	s.inPos = 0
	s.stretched = s.stretched[:frameSize]
	for i := range s.stretched {
		s.stretched[i] = 0
	}
	s.writeOff = 0
	s.resampPos = 0
}

// Process consumes input and synthesizes exactly len(output) samples.
// The ratio len(output)/len(input) is the time-stretch factor of this call;
// an empty input freezes the analysis position and keeps synthesizing from
// the most recent spectra, so any positive speed is tolerated.
func (s *Stretcher) Process(input []float32, output []float32) {
	if len(output) == 0 {
		return
	}

	for _, v := range input {
		s.inBuf = append(s.inBuf, float64(v))
	}

	// Analysis hop sized so this call consumes len(input) source samples
	// while producing len(output)*transpose stretched-domain samples.
	need := int(math.Ceil(s.resampPos+float64(len(output))*s.transpose)) + 2
	ha := 0.0
	if len(input) > 0 {
		ha = float64(hopSynth) * float64(len(input)) / (float64(len(output)) * s.transpose)
	}

	for s.writeOff < need {
		s.synthesizeFrame(ha)
	}

	// Resample the stretched signal by the transpose factor to shift pitch
	// without changing the output length.
	for j := range output {
		i0 := int(s.resampPos)
		frac := s.resampPos - float64(i0)
		var v float64
		switch {
		case i0+1 < s.writeOff:
			v = s.stretched[i0]*(1-frac) + s.stretched[i0+1]*frac
		case i0 < s.writeOff:
			v = s.stretched[i0]
		}
		output[j] = float32(v)
		s.resampPos += s.transpose
	}

	s.compact()
}

// synthesizeFrame analyzes one window at inPos, propagates per-bin phase for
// the synthesis hop, and overlap-adds the result at writeOff.
func (s *Stretcher) synthesizeFrame(ha float64) {
	start := int(s.inPos)
	for k := 0; k < frameSize; k++ {
		var v float64
		if idx := start + k; idx < len(s.inBuf) {
			v = s.inBuf[idx]
		}
		s.frame[k] = v * s.win[k]
	}

	spec := fft.FFTReal(s.frame)

	for k := 0; k <= frameSize/2; k++ {
		re, im := real(spec[k]), imag(spec[k])
		mag := math.Hypot(re, im)
		phase := math.Atan2(im, re)

		omega := 2 * math.Pi * float64(k) / frameSize
		trueOmega := omega
		if ha > 0 {
			delta := phase - s.prevPhase[k] - omega*ha
			delta -= 2 * math.Pi * math.Round(delta/(2*math.Pi))
			trueOmega = omega + delta/ha
		}
		s.prevPhase[k] = phase
		s.sumPhase[k] += trueOmega * hopSynth

		s.spectrum[k] = complex(mag*math.Cos(s.sumPhase[k]), mag*math.Sin(s.sumPhase[k]))
	}
	for k := frameSize/2 + 1; k < frameSize; k++ {
		s.spectrum[k] = complex(real(s.spectrum[frameSize-k]), -imag(s.spectrum[frameSize-k]))
	}

	res := fft.IFFT(s.spectrum)

	for len(s.stretched) < s.writeOff+frameSize+hopSynth {
		s.stretched = append(s.stretched, 0)
	}
	for k := 0; k < frameSize; k++ {
		s.stretched[s.writeOff+k] += real(res[k]) * s.win[k] * olaNorm
	}

	s.writeOff += hopSynth
	s.inPos += ha
}

// compact drops consumed prefixes of the input and stretched buffers so they
// stay bounded regardless of stream length.
func (s *Stretcher) compact() {
	if drop := int(s.inPos); drop > 0 {
		if drop > len(s.inBuf) {
			drop = len(s.inBuf)
		}
		s.inBuf = s.inBuf[:copy(s.inBuf, s.inBuf[drop:])]
		s.inPos -= float64(drop)
	}

	if drop := int(s.resampPos); drop > 0 {
		if drop > s.writeOff {
			drop = s.writeOff
		}
		n := copy(s.stretched, s.stretched[drop:])
		for i := n; i < len(s.stretched); i++ {
			s.stretched[i] = 0
		}
		s.stretched = s.stretched[:n]
		s.writeOff -= drop
		s.resampPos -= float64(drop)
	}
}
