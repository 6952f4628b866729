// SPDX-License-Identifier: MIT
package quality

import "strings"

// Tier selects one of the named rendering presets.
type Tier int

const (
	Low Tier = iota
	Medium
	High
)

// String returns the lowercase name of the tier.
func (t Tier) String() string {
	switch t {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// ParseTier converts a string (case-insensitive) to a Tier.
// Returns Medium and false if the string is not recognized.
func ParseTier(s string) (Tier, bool) {
	switch strings.ToLower(s) {
	case "low":
		return Low, true
	case "medium", "med":
		return Medium, true
	case "high":
		return High, true
	default:
		return Medium, false
	}
}

// Tiers lists all defined tiers in ascending order of cost.
func Tiers() []Tier {
	return []Tier{Low, Medium, High}
}

// Profile is the plain configuration value read by the processing
// components. It carries data only; no component inspects anything
// beyond these fields.
type Profile struct {
	Tier Tier

	// Spectrum processing.
	BarCount        int     // Published bucket count per frame.
	SmoothingPasses int     // Spatial box-filter passes per frame.
	TemporalFactor  float64 // Per-bucket EMA blend factor (0..1].
	ClampMin        float64 // Lower magnitude clamp.
	ClampMax        float64 // Upper magnitude clamp.
	SIMDEnabled     bool    // Use unrolled vector kernels.

	// Particle simulation.
	ParticleCapacity int     // Ring capacity per visualization.
	ParticleMaxLife  float64 // Starting life in update ticks.
}

// ForTier returns the preset profile for the given tier. The numbers
// are visually tuned; treat them as defaults, not invariants.
func ForTier(t Tier) Profile {
	switch t {
	case Low:
		return Profile{
			Tier:             Low,
			BarCount:         32,
			SmoothingPasses:  1,
			TemporalFactor:   0.35,
			ClampMin:         0,
			ClampMax:         1.5,
			SIMDEnabled:      false,
			ParticleCapacity: 64,
			ParticleMaxLife:  45,
		}
	case High:
		return Profile{
			Tier:             High,
			BarCount:         128,
			SmoothingPasses:  3,
			TemporalFactor:   0.25,
			ClampMin:         0,
			ClampMax:         1.5,
			SIMDEnabled:      true,
			ParticleCapacity: 256,
			ParticleMaxLife:  90,
		}
	default:
		return Profile{
			Tier:             Medium,
			BarCount:         64,
			SmoothingPasses:  2,
			TemporalFactor:   0.30,
			ClampMin:         0,
			ClampMax:         1.5,
			SIMDEnabled:      true,
			ParticleCapacity: 128,
			ParticleMaxLife:  60,
		}
	}
}
