// SPDX-License-Identifier: MIT
/*
Package pipeline decouples spectrum ingestion from rendering.

Raw magnitude frames arrive on the render or audio-callback goroutine at
an unpredictable rate. Each Exchange owns one background worker that
drains a single-slot mailbox, runs the scale and smooth stages, and
publishes the newest processed frame behind a read-write lock. The
submit side never blocks and never queues more than one pending frame:
a submit racing a busy worker silently replaces the queued frame, so
the pipeline lags at most one frame and never builds a backlog.

Ordering: published frames carry the submit sequence number and are
observed in non-decreasing recency. There is no guarantee that every
submitted frame is processed; overwrite semantics drop stale ones by
design.

Teardown is cooperative: Close cancels the worker, wakes it, and joins
with a bounded timeout. A timeout is logged as a warning rather than
treated as fatal, since the worker has no external side effects.
*/
package pipeline

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"vizcore/internal/dsp"
	applog "vizcore/internal/log"
	"vizcore/internal/quality"
	"vizcore/internal/vecmath"
)

// DefaultJoinTimeout bounds how long Close waits for the worker.
const DefaultJoinTimeout = 500 * time.Millisecond

// rawFrame is the mailbox payload. Instances are recycled through a
// pool so steady-state submits do not allocate.
type rawFrame struct {
	magnitudes []float64
	barCount   int
	seq        uint64
}

// FrameHook is called on the worker goroutine after each publish with a
// copy of the new frame. Spawn decisions for particle visualizations
// hang off this. Hooks must not block for long; they stall the worker,
// not the render path.
type FrameHook func(Frame)

// Exchange is the producer/consumer core. One background worker per
// instance is the only writer of the published frame and the smoothing
// state; readers copy the published frame under a read lock.
type Exchange struct {
	mu       sync.RWMutex // Guards latest, hasFrame and profile.
	latest   Frame
	hasFrame bool
	profile  quality.Profile

	mailbox chan *rawFrame
	pool    sync.Pool

	smoother *dsp.Smoother // Worker-owned; nobody else touches it.
	ops      vecmath.Ops

	busy      atomic.Bool // True while the worker is inside a cycle.
	closed    atomic.Bool
	submitSeq atomic.Uint64

	done        chan struct{}
	workerDone  chan struct{}
	joinTimeout time.Duration
	frameHook   FrameHook
}

// Option configures an Exchange at construction.
type Option func(*Exchange)

// WithFrameHook registers a callback invoked on the worker after each
// publish.
func WithFrameHook(hook FrameHook) Option {
	return func(e *Exchange) { e.frameHook = hook }
}

// WithJoinTimeout overrides the bounded wait Close applies when joining
// the worker.
func WithJoinTimeout(d time.Duration) Option {
	return func(e *Exchange) {
		if d > 0 {
			e.joinTimeout = d
		}
	}
}

// New creates an Exchange for the given quality profile and starts its
// worker. Misconfiguration is rejected here; steady-state operations
// never return errors.
func New(profile quality.Profile, opts ...Option) (*Exchange, error) {
	if profile.BarCount <= 0 {
		return nil, fmt.Errorf("pipeline: bar count must be positive, got %d", profile.BarCount)
	}
	if profile.TemporalFactor <= 0 || profile.TemporalFactor > 1 {
		return nil, fmt.Errorf("pipeline: temporal factor must be in (0, 1], got %v", profile.TemporalFactor)
	}
	if profile.SmoothingPasses < 0 {
		return nil, fmt.Errorf("pipeline: smoothing passes must not be negative, got %d", profile.SmoothingPasses)
	}

	ops := vecmath.New(profile.SIMDEnabled)
	e := &Exchange{
		profile:     profile,
		mailbox:     make(chan *rawFrame, 1),
		smoother:    dsp.NewSmoother(ops),
		ops:         ops,
		done:        make(chan struct{}),
		workerDone:  make(chan struct{}),
		joinTimeout: DefaultJoinTimeout,
	}
	e.pool.New = func() any { return &rawFrame{} }
	for _, opt := range opts {
		opt(e)
	}

	go e.run()
	return e, nil
}

// Submit hands a raw spectrum to the pipeline. It copies the caller's
// slice, never blocks waiting for processing, and overwrites any frame
// still sitting in the mailbox, so the newest submit always wins. A
// barCount <= 0 falls back to the profile's bar count. Calls after
// Close are silent no-ops.
func (e *Exchange) Submit(magnitudes []float64, barCount int) {
	if e.closed.Load() || len(magnitudes) == 0 {
		return
	}

	rf := e.pool.Get().(*rawFrame)
	rf.magnitudes = append(rf.magnitudes[:0], magnitudes...)
	rf.barCount = barCount
	rf.seq = e.submitSeq.Add(1)

	for {
		select {
		case e.mailbox <- rf:
			return
		default:
		}
		// Mailbox occupied: evict the stale frame, then retry the send.
		// The worker may have drained it between the two selects, hence
		// the loop.
		select {
		case stale := <-e.mailbox:
			e.pool.Put(stale)
		default:
		}
	}
}

// TrySubmit submits only when the worker is idle. Visualizations that
// rebuild geometry every tick use this to skip a frame that would just
// be overwritten anyway. Reports whether the frame was submitted.
func (e *Exchange) TrySubmit(magnitudes []float64, barCount int) bool {
	if e.busy.Load() || e.closed.Load() {
		return false
	}
	e.Submit(magnitudes, barCount)
	return true
}

// TryGetLatestFrame returns a copy of the newest processed frame.
// Non-blocking beyond the read lock; false until the first frame has
// been published.
func (e *Exchange) TryGetLatestFrame() (Frame, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.hasFrame {
		return Frame{}, false
	}
	return e.latest.clone(), true
}

// Profile returns the active quality profile.
func (e *Exchange) Profile() quality.Profile {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.profile
}

// Reconfigure swaps the active quality tier. Routed through the publish
// lock so it is safe against in-flight processing; the smoother notices
// the bucket-count change on the next cycle and reseeds itself.
func (e *Exchange) Reconfigure(tier quality.Tier) {
	profile := quality.ForTier(tier)
	e.mu.Lock()
	e.profile = profile
	e.mu.Unlock()
	applog.Debugf("pipeline: reconfigured to %s (bars=%d passes=%d)",
		tier, profile.BarCount, profile.SmoothingPasses)
}

// Close cancels the worker, wakes it, and joins with a bounded timeout.
// Idempotent; a join timeout is a warning, not an error, because the
// worker only touches instance-local state.
func (e *Exchange) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(e.done)

	select {
	case <-e.workerDone:
	case <-time.After(e.joinTimeout):
		applog.Warnf("pipeline: worker did not exit within %s, continuing shutdown", e.joinTimeout)
	}
	return nil
}

// run is the worker loop: wait for a mailbox frame or cancellation,
// process, repeat.
func (e *Exchange) run() {
	defer close(e.workerDone)
	for {
		select {
		case <-e.done:
			return
		case rf := <-e.mailbox:
			e.busy.Store(true)
			e.processFrame(rf)
			e.busy.Store(false)
			e.pool.Put(rf)
		}
	}
}

// processFrame runs one scale→smooth→publish cycle. Panics are absorbed
// at this boundary: one bad frame must not kill the pipeline.
func (e *Exchange) processFrame(rf *rawFrame) {
	defer func() {
		if r := recover(); r != nil {
			applog.Errorf("pipeline: recovered from processing panic: %v", r)
		}
	}()

	e.mu.RLock()
	profile := e.profile
	e.mu.RUnlock()

	target := rf.barCount
	if target <= 0 {
		target = profile.BarCount
	}

	// Downsampling averages blocks; upsampling interpolates between the
	// two nearest samples. The choice is visible on screen, so it is
	// made per frame, not fixed per pipeline.
	var scaled []float64
	if target <= len(rf.magnitudes) {
		scaled = dsp.ScaleBlockAverage(rf.magnitudes, target)
	} else {
		scaled = dsp.ScaleLinearInterp(rf.magnitudes, target)
	}

	smoothed := e.smoother.Smooth(scaled,
		profile.SmoothingPasses, profile.TemporalFactor,
		profile.ClampMin, profile.ClampMax)

	maxMag := e.ops.MaxAbs(smoothed)
	loudness := 0.0
	if n := len(smoothed); n > 0 {
		loudness = math.Sqrt(e.ops.SumSquares(smoothed) / float64(n))
	}
	low, mid, high := e.bandMeans(smoothed)

	e.mu.Lock()
	e.latest.Buckets = append(e.latest.Buckets[:0], smoothed...)
	e.latest.MaxMagnitude = maxMag
	e.latest.Loudness = loudness
	e.latest.Low, e.latest.Mid, e.latest.High = low, mid, high
	e.latest.BarCount = target
	e.latest.Seq = rf.seq
	e.hasFrame = true
	var snapshot Frame
	if e.frameHook != nil {
		snapshot = e.latest.clone()
	}
	e.mu.Unlock()

	if e.frameHook != nil {
		e.frameHook(snapshot)
	}
}

// bandMeans splits the buckets into thirds and averages each. Frames
// too short to split report the overall mean in all three bands.
func (e *Exchange) bandMeans(buckets []float64) (low, mid, high float64) {
	n := len(buckets)
	if n == 0 {
		return 0, 0, 0
	}
	if n < 3 {
		m := e.ops.Sum(buckets) / float64(n)
		return m, m, m
	}
	third := n / 3
	low = e.ops.Sum(buckets[:third]) / float64(third)
	mid = e.ops.Sum(buckets[third:2*third]) / float64(third)
	high = e.ops.Sum(buckets[2*third:]) / float64(n-2*third)
	return low, mid, high
}
