// SPDX-License-Identifier: MIT
/*
Package particles implements the fixed-capacity particle simulation used
by particle-style visualizations.

The ring is a bounded FIFO with overwrite-on-overflow: when full, Add
evicts the oldest particle rather than growing. Removal is lazy: Update
marks particles inactive in place and only reclaims the contiguous run
of inactive entries at the tail. An inactive particle elsewhere in the
ring is skipped by readers and reclaimed once it reaches the tail. That
trade buys O(1) amortized removal and bounded memory.

Thread Safety:
The ring is the one structure in the engine with two writers: the
pipeline worker spawns particles while the render path ticks and reads
them. A single instance-level mutex serializes Add, Update and
ActiveSnapshot.
*/
package particles

import (
	"fmt"
	"sync"
)

// Defaults for the per-tick decay policy.
const (
	DefaultSizeDecay = 0.96 // Multiplicative size shrink per tick.
	DefaultMinSize   = 0.5  // Below this the particle is dropped.
)

// Particle is one animated point. Fields are plain value data; the
// drawing layer receives copies and must treat them as read-only.
type Particle struct {
	X, Y     float64
	Velocity float64 // Upward speed in units per tick.
	Size     float64
	Life     float64 // Remaining ticks; starts at the ring's max life.
	Alpha    float64 // Derived from Life via the alpha curve.

	active bool
}

// Ring is a fixed-capacity circular buffer of particles.
type Ring struct {
	mu    sync.Mutex
	slots []Particle
	head  int // Next write position.
	tail  int // Oldest live entry.
	count int

	maxLife   float64
	sizeDecay float64
	minSize   float64
}

// NewRing creates a ring with the given capacity and starting life.
// Capacity and maxLife must be positive; misconfiguration is rejected
// here, never at runtime.
func NewRing(capacity int, maxLife float64) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("particles: capacity must be positive, got %d", capacity)
	}
	if maxLife <= 0 {
		return nil, fmt.Errorf("particles: max life must be positive, got %v", maxLife)
	}
	return &Ring{
		slots:     make([]Particle, capacity),
		maxLife:   maxLife,
		sizeDecay: DefaultSizeDecay,
		minSize:   DefaultMinSize,
	}, nil
}

// Add inserts a particle in O(1). When the ring is full the oldest
// particle is overwritten; both head and tail advance.
func (r *Ring) Add(p Particle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p.active = true
	if p.Life <= 0 || p.Life > r.maxLife {
		p.Life = r.maxLife
	}

	n := len(r.slots)
	r.slots[r.head] = p
	r.head = (r.head + 1) % n
	if r.count == n {
		r.tail = (r.tail + 1) % n
	} else {
		r.count++
	}
}

// Update advances every live particle by one tick: position moves up by
// velocity, life decrements, size decays, alpha is recomputed from the
// curve. A particle deactivates when it crosses upperBound, runs out of
// life, or shrinks below the minimum size. After the sweep the tail is
// advanced past the now-contiguous inactive run.
func (r *Ring) Update(upperBound float64, alphaCurve []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.slots)
	idx := r.tail
	for i := 0; i < r.count; i++ {
		p := &r.slots[idx]
		idx = (idx + 1) % n
		if !p.active {
			continue
		}

		p.Y -= p.Velocity
		if p.Y <= upperBound {
			p.active = false
			continue
		}

		p.Life--
		if p.Life <= 0 {
			p.active = false
			continue
		}

		p.Size *= r.sizeDecay
		if p.Size < r.minSize {
			p.active = false
			continue
		}

		if len(alphaCurve) > 0 {
			t := p.Life / r.maxLife
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}
			p.Alpha = alphaCurve[int(t*float64(len(alphaCurve)-1))]
		}
	}

	for r.count > 0 && !r.slots[r.tail].active {
		r.tail = (r.tail + 1) % n
		r.count--
	}
}

// ActiveSnapshot returns a copy of the active particles in ring order.
// It is a copy on purpose: the drawing layer must never observe a
// half-updated ring under concurrent mutation.
func (r *Ring) ActiveSnapshot() []Particle {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Particle, 0, r.count)
	n := len(r.slots)
	idx := r.tail
	for i := 0; i < r.count; i++ {
		if r.slots[idx].active {
			out = append(out, r.slots[idx])
		}
		idx = (idx + 1) % n
	}
	return out
}

// Len returns the number of occupied slots, including lazily retained
// inactive ones that have not reached the tail yet.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Capacity returns the configured slot count.
func (r *Ring) Capacity() int {
	return len(r.slots)
}

// MaxLife returns the starting life assigned to added particles.
func (r *Ring) MaxLife() float64 {
	return r.maxLife
}

// Clear deactivates and releases every particle.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.slots {
		r.slots[i] = Particle{}
	}
	r.head, r.tail, r.count = 0, 0, 0
}
