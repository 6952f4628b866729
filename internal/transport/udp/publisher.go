// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "vizcore/internal/log"
	"vizcore/internal/transport"
)

// DefaultInterval is used when the configured publish interval is
// invalid. ~60Hz matches a typical display refresh.
const DefaultInterval = 16 * time.Millisecond

// PacketSender is the delivery half of the publisher. *Sender is the
// production implementation; tests substitute a recorder.
type PacketSender interface {
	Send(data []byte) error
	Close() error
}

/*
Packet layout (BigEndian):

	| Field         | Type      | Bytes |
	|---------------|-----------|-------|
	| Sequence      | uint64    | 8     |
	| Timestamp     | int64     | 8     | nanoseconds since epoch
	| Loudness      | float32   | 4     |
	| MaxMagnitude  | float32   | 4     |
	| Bucket count  | uint16    | 2     |
	| Buckets       | []float32 | N*4   |
*/

// Publisher periodically reads the latest processed frame and sends it
// as a binary packet. Frames are deduplicated by sequence number, so an
// idle pipeline produces no traffic.
type Publisher struct {
	sender   PacketSender
	provider transport.FrameProvider
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex

	lastSeq   uint64
	f32Buf    []float32
	packetBuf *bytes.Buffer
}

// NewPublisher creates a publisher reading from provider and sending
// through sender.
func NewPublisher(interval time.Duration, sender PacketSender, provider transport.FrameProvider) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp: publisher requires a sender")
	}
	if provider == nil {
		return nil, fmt.Errorf("udp: publisher requires a frame provider")
	}
	if interval <= 0 {
		applog.Warnf("udp: invalid publish interval, defaulting to %s", DefaultInterval)
		interval = DefaultInterval
	}

	return &Publisher{
		sender:    sender,
		provider:  provider,
		interval:  interval,
		packetBuf: new(bytes.Buffer),
	}, nil
}

// Start launches the publish loop. Safe to call once per Start/Stop
// cycle; a second Start while running is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("udp: publisher already running")
		return
	}
	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Debugf("udp: publisher started (interval %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishLatest()
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for it. Idempotent.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Debugf("udp: publisher stopped")
	return nil
}

// publishLatest packs and sends the newest frame, skipping frames
// already sent and ticks with nothing published yet.
func (p *Publisher) publishLatest() {
	frame, ok := p.provider.TryGetLatestFrame()
	if !ok || frame.Seq == p.lastSeq {
		return
	}
	p.lastSeq = frame.Seq

	if cap(p.f32Buf) < len(frame.Buckets) {
		p.f32Buf = make([]float32, len(frame.Buckets))
	}
	p.f32Buf = p.f32Buf[:len(frame.Buckets)]
	for i, v := range frame.Buckets {
		p.f32Buf[i] = float32(v)
	}

	p.packetBuf.Reset()
	err := binary.Write(p.packetBuf, binary.BigEndian, frame.Seq)
	if err == nil {
		err = binary.Write(p.packetBuf, binary.BigEndian, time.Now().UnixNano())
	}
	if err == nil {
		err = binary.Write(p.packetBuf, binary.BigEndian, float32(frame.Loudness))
	}
	if err == nil {
		err = binary.Write(p.packetBuf, binary.BigEndian, float32(frame.MaxMagnitude))
	}
	if err == nil {
		err = binary.Write(p.packetBuf, binary.BigEndian, uint16(len(p.f32Buf)))
	}
	if err == nil {
		err = binary.Write(p.packetBuf, binary.BigEndian, p.f32Buf)
	}
	if err != nil {
		applog.Errorf("udp: failed to pack frame %d: %v", frame.Seq, err)
		return
	}

	if err := p.sender.Send(p.packetBuf.Bytes()); err != nil {
		// A dropped packet is a visual glitch at worst; log at debug to
		// avoid flooding when the peer is away.
		applog.Debugf("udp: failed to send frame %d: %v", frame.Seq, err)
		return
	}
	applog.Debugf("udp: sent frame %d (%d bytes)", frame.Seq, p.packetBuf.Len())
}

// Close stops the publish loop. The sender is owned by the caller and
// closed separately.
func (p *Publisher) Close() error {
	return p.Stop()
}
