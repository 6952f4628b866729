// SPDX-License-Identifier: MIT
package source

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"vizcore/pkg/utils"
)

const testSampleRate = 44100.0

func TestNewAnalyzerRejectsBadWindowSize(t *testing.T) {
	for _, n := range []int{0, -16} {
		if _, err := NewAnalyzer(n); err == nil {
			t.Errorf("NewAnalyzer(%d): expected error, got nil", n)
		}
	}
}

func TestNewAnalyzerRoundsToPowerOfTwo(t *testing.T) {
	tests := []struct {
		windowSize int
		fftSize    int
	}{
		{1024, 1024},
		{1000, 1024},
		{513, 1024},
		{512, 512},
	}
	for _, tt := range tests {
		a, err := NewAnalyzer(tt.windowSize)
		if err != nil {
			t.Fatalf("NewAnalyzer(%d): %v", tt.windowSize, err)
		}
		if a.FFTSize() != tt.fftSize {
			t.Errorf("FFTSize(%d) = %d, expected %d", tt.windowSize, a.FFTSize(), tt.fftSize)
		}
		if a.Bins() != tt.fftSize/2+1 {
			t.Errorf("Bins(%d) = %d, expected %d", tt.windowSize, a.Bins(), tt.fftSize/2+1)
		}
	}
}

func TestAnalyzePeakBin(t *testing.T) {
	const fftSize = 2048
	a, err := NewAnalyzer(fftSize)
	if err != nil {
		t.Fatal(err)
	}

	const freq = 1000.0
	samples := utils.SineWave(fftSize, testSampleRate, freq)
	mags := a.Analyze(samples)

	peak := utils.PeakBin(mags, 1, len(mags)-1)
	wantBin := int(math.Round(freq * fftSize / testSampleRate))
	if d := peak - wantBin; d < -1 || d > 1 {
		t.Errorf("peak bin = %d, expected %d±1", peak, wantBin)
	}
}

func TestAnalyzeSilence(t *testing.T) {
	a, err := NewAnalyzer(512)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range a.Analyze(make([]float64, 512)) {
		if m != 0 {
			t.Fatalf("bin %d = %v, expected 0 for silence", i, m)
		}
	}
}

func TestAnalyzeZeroAllocs(t *testing.T) {
	a, err := NewAnalyzer(1024)
	if err != nil {
		t.Fatal(err)
	}
	samples := utils.SineWave(1024, testSampleRate, 440)
	a.Analyze(samples) // Warm-up.

	allocs := testing.AllocsPerRun(50, func() {
		_ = a.Analyze(samples)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Analyze, got %.1f", allocs)
	}
}

func TestSynthProducesStableFrames(t *testing.T) {
	s, err := NewSynth(1024, testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var lastPeak int
	for i := 0; i < 5; i++ {
		mags, err := s.NextFrame()
		if err != nil {
			t.Fatalf("NextFrame %d: %v", i, err)
		}
		if len(mags) != 513 {
			t.Fatalf("frame %d: %d bins, expected 513", i, len(mags))
		}
		peak := utils.PeakBin(mags, 1, len(mags)-1)
		if i > 0 && peak != lastPeak {
			t.Errorf("frame %d: peak moved from bin %d to %d on a steady signal", i, lastPeak, peak)
		}
		lastPeak = peak
	}

	wantBin := int(math.Round(440.0 * 1024 / testSampleRate))
	if d := lastPeak - wantBin; d < -1 || d > 1 {
		t.Errorf("peak bin = %d, expected %d±1", lastPeak, wantBin)
	}
}

// writeTestWAV renders a mono 16-bit sine file and returns its path.
func writeTestWAV(t *testing.T, freq float64, samples int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, int(testSampleRate), 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: int(testSampleRate)},
		Data:   make([]int, samples),
	}
	wave := utils.SineWave(samples, testSampleRate, freq)
	for i, v := range wave {
		buf.Data[i] = int(v * 0.9 * 32767)
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWAVFramesAndEOF(t *testing.T) {
	const windowSize = 1024
	path := writeTestWAV(t, 880, windowSize*3)

	src, err := NewWAV(path, windowSize)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if src.SampleRate() != testSampleRate {
		t.Errorf("SampleRate = %v, expected %v", src.SampleRate(), testSampleRate)
	}

	frames := 0
	wantBin := int(math.Round(880.0 * windowSize / testSampleRate))
	for {
		mags, err := src.NextFrame()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("NextFrame: %v", err)
		}
		frames++
		if frames > 10 {
			t.Fatal("did not reach EOF")
		}
		peak := utils.PeakBin(mags, 1, len(mags)-1)
		if d := peak - wantBin; d < -2 || d > 2 {
			t.Errorf("frame %d: peak bin = %d, expected %d±2", frames, peak, wantBin)
		}
	}
	if frames != 3 {
		t.Errorf("frames = %d, expected 3", frames)
	}
}

func TestNewWAVRejectsMissingFile(t *testing.T) {
	if _, err := NewWAV("does-not-exist.wav", 1024); err == nil {
		t.Error("expected error for missing file, got nil")
	}
}

func TestNewWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")
	if err := os.WriteFile(path, []byte("not a wav at all"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWAV(path, 1024); err == nil {
		t.Error("expected error for invalid wav data, got nil")
	}
}
