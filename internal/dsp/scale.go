// SPDX-License-Identifier: MIT
// Package dsp implements the numeric transform stage of the spectrum
// pipeline: resampling raw magnitude arrays to a fixed bucket count and
// smoothing them into visually stable frames.
package dsp

import "gonum.org/v1/gonum/floats"

// ScaleBlockAverage resamples src to exactly targetCount buckets by
// partitioning src into targetCount contiguous blocks of (possibly
// fractional) width and averaging each block. Block bounds are
// integer-truncated; a block that rounds to zero width yields 0.
//
// This is the downsampling path. It is deliberately lossy and
// order-preserving; no interpolation happens here.
func ScaleBlockAverage(src []float64, targetCount int) []float64 {
	if targetCount < 0 {
		targetCount = 0
	}
	out := make([]float64, targetCount)
	if targetCount == 0 || len(src) == 0 {
		return out
	}

	width := float64(len(src)) / float64(targetCount)
	for i := range out {
		start := int(float64(i) * width)
		end := int(float64(i+1) * width)
		if end > len(src) {
			end = len(src)
		}
		if end <= start {
			continue // zero-width block stays 0
		}
		out[i] = floats.Sum(src[start:end]) / float64(end-start)
	}
	return out
}

// ScaleLinearInterp resamples src to exactly targetCount buckets by
// linear interpolation between the two nearest source samples.
//
// This is the upsampling path. Which of the two scaling policies a call
// site uses is visible on screen, so the pipeline picks per frame based
// on whether the target is larger or smaller than the source.
func ScaleLinearInterp(src []float64, targetCount int) []float64 {
	if targetCount < 0 {
		targetCount = 0
	}
	out := make([]float64, targetCount)
	if targetCount == 0 || len(src) == 0 {
		return out
	}
	if len(src) == 1 || targetCount == 1 {
		for i := range out {
			out[i] = src[0]
		}
		return out
	}

	step := float64(len(src)-1) / float64(targetCount-1)
	for i := range out {
		pos := float64(i) * step
		lo := int(pos)
		if lo >= len(src)-1 {
			out[i] = src[len(src)-1]
			continue
		}
		frac := pos - float64(lo)
		out[i] = src[lo] + (src[lo+1]-src[lo])*frac
	}
	return out
}
