// SPDX-License-Identifier: MIT
package source

import (
	"io"
	"math"
)

// Synth generates magnitude frames from a synthetic harmonic signal.
// It keeps phase continuous across frames so the spectrum is stable,
// and never returns io.EOF; it exists so the demo binary runs without
// an input file.
type Synth struct {
	analyzer   *Analyzer
	sampleRate float64
	frame      []float64
	phase      float64
}

// harmonic is one partial of the synthetic signal.
type harmonic struct {
	ratio float64 // Multiple of the fundamental.
	gain  float64
}

// A 440Hz fundamental plus two harmonics; enough spectral structure to
// make every visualization move.
var synthVoices = []harmonic{
	{1, 0.5},
	{2, 0.3},
	{3, 0.2},
}

const synthFundamental = 440.0

// NewSynth creates a synthetic source with the given window size.
func NewSynth(windowSize int, sampleRate float64) (*Synth, error) {
	analyzer, err := NewAnalyzer(windowSize)
	if err != nil {
		return nil, err
	}
	return &Synth{
		analyzer:   analyzer,
		sampleRate: sampleRate,
		frame:      make([]float64, windowSize),
	}, nil
}

// NextFrame synthesizes one window of signal and returns its magnitude
// spectrum. The slice is valid until the next call.
func (s *Synth) NextFrame() ([]float64, error) {
	for i := range s.frame {
		t := s.phase + float64(i)/s.sampleRate
		var v float64
		for _, h := range synthVoices {
			v += math.Sin(2*math.Pi*synthFundamental*h.ratio*t) * h.gain
		}
		s.frame[i] = v
	}
	s.phase += float64(len(s.frame)) / s.sampleRate
	return s.analyzer.Analyze(s.frame), nil
}

// Close is a no-op; Synth holds no resources.
func (s *Synth) Close() error { return nil }

var _ io.Closer = (*Synth)(nil)
