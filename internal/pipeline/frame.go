// SPDX-License-Identifier: MIT
package pipeline

// Frame is one processed spectrum snapshot. It is immutable once
// published: consumers receive a copy and must treat it as read-only
// value data.
type Frame struct {
	// Buckets holds the resampled, smoothed magnitudes. Length equals
	// the bucket count requested at submit time (or the active quality
	// profile's bar count when none was requested).
	Buckets []float64

	// Derived scalar features for visualizations that key animation off
	// a single number instead of the full array.
	MaxMagnitude float64
	Loudness     float64 // RMS over all buckets.
	Low          float64 // Mean of the lowest third.
	Mid          float64 // Mean of the middle third.
	High         float64 // Mean of the highest third.

	BarCount int
	Seq      uint64 // Submit sequence the frame derives from.
}

// clone returns a deep copy safe to hand outside the publish lock.
func (f Frame) clone() Frame {
	out := f
	out.Buckets = make([]float64, len(f.Buckets))
	copy(out.Buckets, f.Buckets)
	return out
}
