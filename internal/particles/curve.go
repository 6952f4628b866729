// SPDX-License-Identifier: MIT
package particles

import "math"

// AlphaCurve precomputes a lookup table mapping the life fraction
// (0 = expired, 1 = fresh) to an alpha value. Gamma shapes the falloff:
// 1 is linear, >1 fades late particles faster. Update indexes this
// table instead of calling Pow per particle per tick.
func AlphaCurve(n int, gamma float64) []float64 {
	if n <= 1 {
		return []float64{1}
	}
	if gamma <= 0 {
		gamma = 1
	}
	curve := make([]float64, n)
	for i := range curve {
		curve[i] = math.Pow(float64(i)/float64(n-1), gamma)
	}
	return curve
}
