// SPDX-License-Identifier: MIT
/*
Package vecmath provides the vectorized reductions and elementwise
operations used by the spectrum pipeline.

Design Principles:
- Zero Allocations: every operation works on caller-provided slices
- Predictable Performance: straight-line unrolled kernels, no branches per lane
- Safe Fallback: inputs shorter than the kernel width, or an Ops built with
  SIMD disabled, always take the plain scalar path

The "wide" kernels are four-accumulator unrolled loops. They are not
hand-written assembly; the unroll exists so the compiler can keep four
independent dependency chains in flight, which is what the hardware
vector units want to see.
*/
package vecmath

import "math"

// lanes is the unroll width of the wide kernels.
const lanes = 4

// Ops selects between the unrolled and scalar kernels. The zero value
// is valid and always uses the scalar path.
type Ops struct {
	wide bool
}

// New returns an Ops value. Pass the SIMD-enable flag from the active
// quality profile.
func New(simdEnabled bool) Ops {
	return Ops{wide: simdEnabled}
}

// Sum returns the sum of all elements. An empty slice returns 0.
func (o Ops) Sum(xs []float64) float64 {
	if !o.wide || len(xs) < lanes {
		return scalarSum(xs)
	}
	var s0, s1, s2, s3 float64
	n := len(xs) &^ (lanes - 1)
	for i := 0; i < n; i += lanes {
		s0 += xs[i]
		s1 += xs[i+1]
		s2 += xs[i+2]
		s3 += xs[i+3]
	}
	s := s0 + s1 + s2 + s3
	for _, v := range xs[n:] {
		s += v
	}
	return s
}

// SumSquares returns the sum of squared elements. An empty slice returns 0.
func (o Ops) SumSquares(xs []float64) float64 {
	if !o.wide || len(xs) < lanes {
		var s float64
		for _, v := range xs {
			s += v * v
		}
		return s
	}
	var s0, s1, s2, s3 float64
	n := len(xs) &^ (lanes - 1)
	for i := 0; i < n; i += lanes {
		s0 += xs[i] * xs[i]
		s1 += xs[i+1] * xs[i+1]
		s2 += xs[i+2] * xs[i+2]
		s3 += xs[i+3] * xs[i+3]
	}
	s := s0 + s1 + s2 + s3
	for _, v := range xs[n:] {
		s += v * v
	}
	return s
}

// MaxAbs returns the largest absolute value. An empty slice returns 0.
func (o Ops) MaxAbs(xs []float64) float64 {
	if !o.wide || len(xs) < lanes {
		return scalarMaxAbs(xs)
	}
	var m0, m1, m2, m3 float64
	n := len(xs) &^ (lanes - 1)
	for i := 0; i < n; i += lanes {
		m0 = math.Max(m0, math.Abs(xs[i]))
		m1 = math.Max(m1, math.Abs(xs[i+1]))
		m2 = math.Max(m2, math.Abs(xs[i+2]))
		m3 = math.Max(m3, math.Abs(xs[i+3]))
	}
	m := math.Max(math.Max(m0, m1), math.Max(m2, m3))
	for _, v := range xs[n:] {
		m = math.Max(m, math.Abs(v))
	}
	return m
}

// BlendInto computes dst[i] = prev[i] + (cur[i]-prev[i])*factor for every
// index. All three slices must have the same length; extra elements in any
// longer slice are ignored.
func (o Ops) BlendInto(dst, prev, cur []float64, factor float64) {
	n := min(len(dst), len(prev), len(cur))
	if !o.wide || n < lanes {
		for i := 0; i < n; i++ {
			dst[i] = prev[i] + (cur[i]-prev[i])*factor
		}
		return
	}
	w := n &^ (lanes - 1)
	for i := 0; i < w; i += lanes {
		dst[i] = prev[i] + (cur[i]-prev[i])*factor
		dst[i+1] = prev[i+1] + (cur[i+1]-prev[i+1])*factor
		dst[i+2] = prev[i+2] + (cur[i+2]-prev[i+2])*factor
		dst[i+3] = prev[i+3] + (cur[i+3]-prev[i+3])*factor
	}
	for i := w; i < n; i++ {
		dst[i] = prev[i] + (cur[i]-prev[i])*factor
	}
}

func scalarSum(xs []float64) float64 {
	var s float64
	for _, v := range xs {
		s += v
	}
	return s
}

func scalarMaxAbs(xs []float64) float64 {
	var m float64
	for _, v := range xs {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
