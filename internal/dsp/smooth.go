// SPDX-License-Identifier: MIT
package dsp

import "vizcore/internal/vecmath"

// Smoother turns scaled spectrum frames into visually stable ones. It
// holds the previous frame's buckets and blends each new frame against
// them (temporal smoothing), then optionally runs neighbor-averaging
// passes within the frame (spatial smoothing).
//
// A Smoother is owned by exactly one goroutine; it is not safe for
// concurrent use. The worker in the pipeline package is the only caller.
type Smoother struct {
	ops   vecmath.Ops
	prev  []float64 // Previous output; feedback state for the temporal EMA.
	work  []float64
	spare []float64
}

// NewSmoother returns a Smoother using the given vector kernels.
// Buffers are sized lazily on the first Smooth call.
func NewSmoother(ops vecmath.Ops) *Smoother {
	return &Smoother{ops: ops}
}

// Smooth applies temporal then spatial smoothing to scaled and returns
// the result. The returned slice is owned by the Smoother and is valid
// until the next call; callers that retain it must copy.
//
// Temporal step: out[i] = prev[i] + (scaled[i]-prev[i])*factor, clamped
// to [clampMin, clampMax]; prev is overwritten with out.
//
// Spatial step: passes iterations of a 3-tap box filter. Edges use
// 2-tap averages; no wraparound, no padding.
//
// If the incoming length differs from the stored state, the state is
// reallocated and seeded from this call's input, and the temporal blend
// is skipped for this one call so no stale transient leaks through.
func (s *Smoother) Smooth(scaled []float64, passes int, factor, clampMin, clampMax float64) []float64 {
	n := len(scaled)
	if n == 0 {
		return nil
	}

	if len(s.prev) != n {
		s.prev = make([]float64, n)
		s.work = make([]float64, n)
		s.spare = make([]float64, n)
		copy(s.work, scaled)
	} else {
		s.ops.BlendInto(s.work, s.prev, scaled, factor)
	}

	clampSlice(s.work, clampMin, clampMax)
	copy(s.prev, s.work)

	cur, spare := s.work, s.spare
	for p := 0; p < passes; p++ {
		boxFilter3(spare, cur)
		cur, spare = spare, cur
	}
	s.work, s.spare = cur, spare
	return cur
}

// Reset drops the feedback state. The next Smooth call reseeds from its
// input as if the Smoother were freshly constructed.
func (s *Smoother) Reset() {
	s.prev = nil
	s.work = nil
	s.spare = nil
}

// boxFilter3 writes one spatial smoothing pass of src into dst.
func boxFilter3(dst, src []float64) {
	n := len(src)
	if n == 1 {
		dst[0] = src[0]
		return
	}
	dst[0] = (src[0] + src[1]) / 2
	for i := 1; i < n-1; i++ {
		dst[i] = (src[i-1] + src[i] + src[i+1]) / 3
	}
	dst[n-1] = (src[n-2] + src[n-1]) / 2
}

func clampSlice(xs []float64, lo, hi float64) {
	for i, v := range xs {
		if v < lo {
			xs[i] = lo
		} else if v > hi {
			xs[i] = hi
		}
	}
}
