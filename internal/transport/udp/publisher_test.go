// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"math"
	"sync"
	"testing"
	"time"

	"vizcore/internal/pipeline"
	"vizcore/pkg/utils"
)

// stubProvider hands out a fixed frame, swappable under lock.
type stubProvider struct {
	mu    sync.Mutex
	frame pipeline.Frame
	ok    bool
}

func (s *stubProvider) set(f pipeline.Frame) {
	s.mu.Lock()
	s.frame = f
	s.ok = true
	s.mu.Unlock()
}

func (s *stubProvider) TryGetLatestFrame() (pipeline.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame, s.ok
}

func TestNewPublisherValidation(t *testing.T) {
	provider := &stubProvider{}
	sink := &utils.RecordingSink{}

	if _, err := NewPublisher(time.Millisecond, nil, provider); err == nil {
		t.Error("expected error for nil sender")
	}
	if _, err := NewPublisher(time.Millisecond, sink, nil); err == nil {
		t.Error("expected error for nil provider")
	}

	p, err := NewPublisher(-1, sink, provider)
	if err != nil {
		t.Fatalf("negative interval should fall back to default, got %v", err)
	}
	if p.interval != DefaultInterval {
		t.Errorf("interval = %s, expected default %s", p.interval, DefaultInterval)
	}
}

func TestPublisherPacketLayout(t *testing.T) {
	provider := &stubProvider{}
	provider.set(pipeline.Frame{
		Buckets:      []float64{0.25, 0.5, 0.75},
		MaxMagnitude: 0.75,
		Loudness:     0.55,
		BarCount:     3,
		Seq:          7,
	})
	sink := &utils.RecordingSink{}

	p, err := NewPublisher(time.Millisecond, sink, provider)
	if err != nil {
		t.Fatal(err)
	}
	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(time.Second)
	for len(sink.Payloads()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	payloads := sink.Payloads()
	if len(payloads) == 0 {
		t.Fatal("no packet published within a second")
	}

	r := bytes.NewReader(payloads[0])
	var (
		seq       uint64
		timestamp int64
		loudness  float32
		maxMag    float32
		count     uint16
	)
	for _, field := range []any{&seq, &timestamp, &loudness, &maxMag, &count} {
		if err := binary.Read(r, binary.BigEndian, field); err != nil {
			t.Fatalf("header read: %v", err)
		}
	}
	if seq != 7 {
		t.Errorf("seq = %d, expected 7", seq)
	}
	if timestamp <= 0 {
		t.Errorf("timestamp = %d, expected positive", timestamp)
	}
	if math.Abs(float64(loudness)-0.55) > 1e-6 {
		t.Errorf("loudness = %v, expected 0.55", loudness)
	}
	if math.Abs(float64(maxMag)-0.75) > 1e-6 {
		t.Errorf("maxMagnitude = %v, expected 0.75", maxMag)
	}
	if count != 3 {
		t.Fatalf("bucket count = %d, expected 3", count)
	}

	buckets := make([]float32, count)
	if err := binary.Read(r, binary.BigEndian, buckets); err != nil {
		t.Fatalf("bucket read: %v", err)
	}
	want := []float32{0.25, 0.5, 0.75}
	for i := range want {
		if buckets[i] != want[i] {
			t.Errorf("bucket %d = %v, expected %v", i, buckets[i], want[i])
		}
	}
	if r.Len() != 0 {
		t.Errorf("%d trailing bytes in packet", r.Len())
	}
}

func TestPublisherDeduplicatesBySequence(t *testing.T) {
	provider := &stubProvider{}
	provider.set(pipeline.Frame{Buckets: []float64{1}, Seq: 1})
	sink := &utils.RecordingSink{}

	p, err := NewPublisher(time.Millisecond, sink, provider)
	if err != nil {
		t.Fatal(err)
	}
	p.Start()

	// Many ticks, one unchanged frame: exactly one packet goes out.
	time.Sleep(50 * time.Millisecond)
	if got := len(sink.Payloads()); got != 1 {
		t.Errorf("payloads = %d, expected 1 for an unchanged frame", got)
	}

	provider.set(pipeline.Frame{Buckets: []float64{1}, Seq: 2})
	deadline := time.Now().Add(time.Second)
	for len(sink.Payloads()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := len(sink.Payloads()); got != 2 {
		t.Errorf("payloads = %d, expected 2 after a new sequence", got)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestPublisherSkipsEmptyPipeline(t *testing.T) {
	provider := &stubProvider{} // Never publishes a frame.
	sink := &utils.RecordingSink{}

	p, err := NewPublisher(time.Millisecond, sink, provider)
	if err != nil {
		t.Fatal(err)
	}
	p.Start()
	time.Sleep(20 * time.Millisecond)
	if err := p.Stop(); err != nil {
		t.Fatal(err)
	}

	if got := len(sink.Payloads()); got != 0 {
		t.Errorf("payloads = %d, expected 0 with no published frame", got)
	}
}

func TestPublisherStopIdempotentAndRestartable(t *testing.T) {
	provider := &stubProvider{}
	sink := &utils.RecordingSink{}

	p, err := NewPublisher(time.Millisecond, sink, provider)
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}

	p.Start()
	p.Start() // Second Start is a no-op, not a second goroutine.
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}

	// The publisher can run again after a full Stop.
	p.Start()
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
