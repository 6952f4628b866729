// SPDX-License-Identifier: MIT
// Package utils holds shared test helpers: signal generators for the
// spectrum front end and a frame sink that records instead of sending.
package utils

import (
	"math"
	"sync"
)

// SineWave generates size samples of a pure tone in [-0.9, 0.9].
func SineWave(size int, sampleRate, frequency float64) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buf
}

// HarmonicWave generates a 440Hz fundamental plus two harmonics, the
// same voicing the synthetic source uses.
func HarmonicWave(size int, sampleRate float64) []float64 {
	buf := make([]float64, size)
	for i := range buf {
		t := float64(i) / sampleRate
		buf[i] = math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
	}
	return buf
}

// RampSpectrum returns n magnitudes rising linearly from 0 to peak.
func RampSpectrum(n int, peak float64) []float64 {
	buf := make([]float64, n)
	if n <= 1 {
		if n == 1 {
			buf[0] = peak
		}
		return buf
	}
	for i := range buf {
		buf[i] = peak * float64(i) / float64(n-1)
	}
	return buf
}

// PeakBin returns the index of the largest magnitude in [startBin, endBin].
func PeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

// RecordingSink stores every payload it is asked to send, for
// inspection by transport tests.
type RecordingSink struct {
	mu       sync.Mutex
	payloads [][]byte
	closed   bool
}

// Send records a copy of data.
func (s *RecordingSink) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.payloads = append(s.payloads, cp)
	return nil
}

// Close marks the sink closed.
func (s *RecordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Payloads returns copies of everything sent so far.
func (s *RecordingSink) Payloads() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.payloads))
	for i, p := range s.payloads {
		cp := make([]byte, len(p))
		copy(cp, p)
		out[i] = cp
	}
	return out
}

// Closed reports whether Close was called.
func (s *RecordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
