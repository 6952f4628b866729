// SPDX-License-Identifier: MIT
package particles

import (
	"math"
	"sync"
	"testing"
)

func mustRing(t *testing.T, capacity int, maxLife float64) *Ring {
	t.Helper()
	r, err := NewRing(capacity, maxLife)
	if err != nil {
		t.Fatalf("NewRing(%d, %v): %v", capacity, maxLife, err)
	}
	return r
}

func TestNewRingRejectsMisconfiguration(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		maxLife  float64
	}{
		{"zero capacity", 0, 60},
		{"negative capacity", -4, 60},
		{"zero life", 16, 0},
		{"negative life", 16, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRing(tt.capacity, tt.maxLife); err == nil {
				t.Errorf("NewRing(%d, %v): expected error, got nil", tt.capacity, tt.maxLife)
			}
		})
	}
}

func TestAddNeverExceedsCapacity(t *testing.T) {
	r := mustRing(t, 8, 60)
	for i := 0; i < 100; i++ {
		r.Add(Particle{X: float64(i), Y: 100, Velocity: 1, Size: 4})
		if r.Len() > 8 {
			t.Fatalf("after %d adds: count = %d exceeds capacity 8", i+1, r.Len())
		}
	}
	if r.Len() != 8 {
		t.Errorf("count = %d, expected 8", r.Len())
	}
}

func TestAddOverflowEvictsOldest(t *testing.T) {
	r := mustRing(t, 4, 60)
	for i := 0; i < 5; i++ {
		r.Add(Particle{X: float64(i), Y: 100, Velocity: 1, Size: 4})
	}

	// p0 is gone; p1..p4 remain in insertion order.
	snap := r.ActiveSnapshot()
	if len(snap) != 4 {
		t.Fatalf("snapshot size = %d, expected 4", len(snap))
	}
	for i, p := range snap {
		if want := float64(i + 1); p.X != want {
			t.Errorf("snapshot[%d].X = %v, expected %v", i, p.X, want)
		}
	}
}

func TestUpdateAdvancesAndDecays(t *testing.T) {
	r := mustRing(t, 4, 60)
	r.Add(Particle{X: 1, Y: 100, Velocity: 2, Size: 4})
	curve := AlphaCurve(64, 1)

	r.Update(0, curve)
	snap := r.ActiveSnapshot()
	if len(snap) != 1 {
		t.Fatalf("snapshot size = %d, expected 1", len(snap))
	}
	p := snap[0]
	if p.Y != 98 {
		t.Errorf("Y = %v, expected 98", p.Y)
	}
	if p.Life != 59 {
		t.Errorf("Life = %v, expected 59", p.Life)
	}
	if math.Abs(p.Size-4*DefaultSizeDecay) > 1e-12 {
		t.Errorf("Size = %v, expected %v", p.Size, 4*DefaultSizeDecay)
	}
	wantAlpha := curve[int(59.0/60.0*float64(len(curve)-1))]
	if p.Alpha != wantAlpha {
		t.Errorf("Alpha = %v, expected %v", p.Alpha, wantAlpha)
	}
}

func TestUpdateDeactivatesPastUpperBound(t *testing.T) {
	r := mustRing(t, 8, 60)
	for i := 0; i < 6; i++ {
		r.Add(Particle{X: float64(i), Y: 50, Velocity: 1, Size: 4})
	}

	// A bound above every particle's position deactivates all of them
	// in a single sweep, and compaction empties the ring.
	r.Update(1000, nil)
	if got := len(r.ActiveSnapshot()); got != 0 {
		t.Errorf("active after bound sweep = %d, expected 0", got)
	}
	if r.Len() != 0 {
		t.Errorf("count after compaction = %d, expected 0", r.Len())
	}
}

func TestUpdateDeactivatesOnLifeExpiry(t *testing.T) {
	r := mustRing(t, 4, 2)
	r.Add(Particle{Y: 1000, Velocity: 0.001, Size: 100})

	r.Update(0, nil)
	if r.Len() != 1 {
		t.Fatalf("after tick 1: count = %d, expected 1", r.Len())
	}
	r.Update(0, nil)
	if r.Len() != 0 {
		t.Errorf("after tick 2: count = %d, expected 0 (life expired)", r.Len())
	}
}

func TestUpdateDeactivatesOnMinSize(t *testing.T) {
	r := mustRing(t, 4, 1000)
	// One decay tick keeps the size at or above the minimum, the second
	// drops it below.
	r.Add(Particle{Y: 1e9, Velocity: 0.001, Size: DefaultMinSize * 1.06})

	r.Update(0, nil)
	if r.Len() != 1 {
		t.Fatalf("first tick should keep the particle, count = %d", r.Len())
	}
	r.Update(0, nil)
	if r.Len() != 0 {
		t.Errorf("count = %d, expected 0 after size fell below minimum", r.Len())
	}
}

func TestLazyCompactionSkipsMidRingInactive(t *testing.T) {
	r := mustRing(t, 8, 60)
	// Tail particle stays alive, a later one dies: count must not drop
	// because the inactive entry has not reached the tail.
	r.Add(Particle{Y: 1000, Velocity: 1, Size: 100}) // stays alive
	r.Add(Particle{Y: 0.5, Velocity: 1, Size: 100})  // dies on first tick
	r.Add(Particle{Y: 2000, Velocity: 1, Size: 100}) // stays alive

	r.Update(0, nil)
	if got := len(r.ActiveSnapshot()); got != 2 {
		t.Errorf("active = %d, expected 2", got)
	}
	if r.Len() != 3 {
		t.Errorf("count = %d, expected 3 (mid-ring inactive entry retained)", r.Len())
	}
}

func TestClear(t *testing.T) {
	r := mustRing(t, 4, 60)
	for i := 0; i < 4; i++ {
		r.Add(Particle{Y: 100, Velocity: 1, Size: 4})
	}
	r.Clear()
	if r.Len() != 0 {
		t.Errorf("count after Clear = %d, expected 0", r.Len())
	}
	if got := len(r.ActiveSnapshot()); got != 0 {
		t.Errorf("active after Clear = %d, expected 0", got)
	}
}

func TestConcurrentAddUpdateSnapshot(t *testing.T) {
	r := mustRing(t, 64, 30)
	curve := AlphaCurve(64, 1.5)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			r.Add(Particle{X: float64(i % 97), Y: 200, Velocity: 1, Size: 5})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			r.Update(0, curve)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 2000; i++ {
			for _, p := range r.ActiveSnapshot() {
				if p.Size < 0 {
					t.Error("observed corrupted particle")
					return
				}
			}
		}
	}()
	wg.Wait()

	if r.Len() > 64 {
		t.Errorf("count = %d exceeds capacity 64", r.Len())
	}
}

func TestAlphaCurve(t *testing.T) {
	curve := AlphaCurve(64, 1)
	if len(curve) != 64 {
		t.Fatalf("len = %d, expected 64", len(curve))
	}
	if curve[0] != 0 {
		t.Errorf("curve[0] = %v, expected 0", curve[0])
	}
	if curve[63] != 1 {
		t.Errorf("curve[63] = %v, expected 1", curve[63])
	}
	for i := 1; i < len(curve); i++ {
		if curve[i] < curve[i-1] {
			t.Fatalf("curve not monotonic at %d: %v < %v", i, curve[i], curve[i-1])
		}
	}

	if got := AlphaCurve(0, 1); len(got) != 1 || got[0] != 1 {
		t.Errorf("AlphaCurve(0, 1) = %v, expected [1]", got)
	}
}

func TestUpdateZeroAllocs(t *testing.T) {
	r := mustRing(t, 128, 10000)
	curve := AlphaCurve(64, 1)
	for i := 0; i < 128; i++ {
		r.Add(Particle{Y: 1e12, Velocity: 0.0001, Size: 1e9})
	}

	allocs := testing.AllocsPerRun(100, func() {
		r.Update(0, curve)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Update, got %.1f", allocs)
	}
}

func BenchmarkUpdate(b *testing.B) {
	r, _ := NewRing(256, 1e9)
	curve := AlphaCurve(64, 1.5)
	for i := 0; i < 256; i++ {
		r.Add(Particle{Y: 1e12, Velocity: 0.00001, Size: 1e9})
	}

	b.ReportAllocs()
	for bn := 0; bn < b.N; bn++ {
		r.Update(0, curve)
	}
}
