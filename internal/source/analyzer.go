// SPDX-License-Identifier: MIT
// Package source produces raw magnitude frames for the pipeline. The
// engine itself performs no audio capture; sources here read PCM from
// WAV files or synthesize test signals, window them, and FFT them into
// the magnitude arrays a visualization would normally receive from its
// host.
package source

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"vizcore/pkg/bitint"
)

// Analyzer is the windowed-FFT front end shared by all sources. All
// buffers are pre-allocated; Analyze performs no allocations.
type Analyzer struct {
	fftSize   int
	fft       *fourier.FFT
	win       []float64
	input     []float64
	coeffs    []complex128
	magnitude []float64
}

// NewAnalyzer creates an analyzer for the given window size. The FFT
// size is the window size rounded up to a power of two, since the FFT
// plan requires one.
func NewAnalyzer(windowSize int) (*Analyzer, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("source: window size must be positive, got %d", windowSize)
	}
	fftSize := windowSize
	if !bitint.IsPowerOfTwo(fftSize) {
		fftSize = bitint.NextPowerOfTwo(fftSize)
	}

	// Precompute the Hann coefficients once by windowing a unit signal.
	win := make([]float64, fftSize)
	for i := range win {
		win[i] = 1
	}
	window.Hann(win)

	outputSize := fftSize/2 + 1
	return &Analyzer{
		fftSize:   fftSize,
		fft:       fourier.NewFFT(fftSize),
		win:       win,
		input:     make([]float64, fftSize),
		coeffs:    make([]complex128, outputSize),
		magnitude: make([]float64, outputSize),
	}, nil
}

// FFTSize returns the padded transform size.
func (a *Analyzer) FFTSize() int { return a.fftSize }

// Bins returns the number of magnitude values Analyze produces.
func (a *Analyzer) Bins() int { return len(a.magnitude) }

// Analyze windows the samples, zero-pads to the FFT size, and returns
// the magnitude spectrum. The returned slice is owned by the Analyzer
// and valid until the next call; callers that retain it must copy.
// Samples are expected in [-1, 1].
func (a *Analyzer) Analyze(samples []float64) []float64 {
	for i := 0; i < a.fftSize; i++ {
		if i < len(samples) {
			a.input[i] = samples[i] * a.win[i]
		} else {
			a.input[i] = 0
		}
	}

	a.fft.Coefficients(a.coeffs, a.input)
	scale := 2 / float64(a.fftSize)
	for i, c := range a.coeffs {
		a.magnitude[i] = cmplx.Abs(c) * scale
	}
	return a.magnitude
}
