// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "vizcore/internal/log"
)

// WAV reads PCM from a WAV file and turns successive windows into
// magnitude frames. Multi-channel files are mixed to mono by averaging.
// NextFrame returns io.EOF once the file is exhausted.
type WAV struct {
	file     *os.File
	dec      *wav.Decoder
	analyzer *Analyzer

	buf      *audio.IntBuffer
	mono     []float64
	norm     float64
	channels int
}

// NewWAV opens path and prepares a source producing one magnitude frame
// per windowSize samples.
func NewWAV(path string, windowSize int) (*WAV, error) {
	analyzer, err := NewAnalyzer(windowSize)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("source: failed to open wav file: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("source: %q is not a valid wav file", path)
	}

	channels := int(dec.NumChans)
	if channels <= 0 {
		channels = 1
	}
	bitDepth := uint(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}

	applog.Infof("source: reading %q (%d Hz, %d ch, %d bit)",
		path, dec.SampleRate, channels, bitDepth)

	return &WAV{
		file:     f,
		dec:      dec,
		analyzer: analyzer,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  int(dec.SampleRate),
			},
			Data: make([]int, windowSize*channels),
		},
		mono:     make([]float64, windowSize),
		norm:     1 / float64(int(1)<<(bitDepth-1)),
		channels: channels,
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (w *WAV) SampleRate() float64 {
	return float64(w.dec.SampleRate)
}

// NextFrame reads one window of PCM, mixes to mono, and returns its
// magnitude spectrum. Returns io.EOF when the file has no samples left.
// The slice is valid until the next call.
func (w *WAV) NextFrame() ([]float64, error) {
	n, err := w.dec.PCMBuffer(w.buf)
	if err != nil {
		return nil, fmt.Errorf("source: wav read failed: %w", err)
	}
	if n == 0 {
		return nil, io.EOF
	}

	frames := n / w.channels
	for i := 0; i < len(w.mono); i++ {
		if i >= frames {
			w.mono[i] = 0 // Zero-pad a short final window.
			continue
		}
		sum := 0.0
		for c := 0; c < w.channels; c++ {
			sum += float64(w.buf.Data[i*w.channels+c])
		}
		w.mono[i] = sum / float64(w.channels) * w.norm
	}

	return w.analyzer.Analyze(w.mono), nil
}

// Close releases the underlying file.
func (w *WAV) Close() error {
	return w.file.Close()
}

var _ io.Closer = (*WAV)(nil)
