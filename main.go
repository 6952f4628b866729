// SPDX-License-Identifier: MIT
package main

import (
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vizcore/cmd"
	applog "vizcore/internal/log"
	"vizcore/internal/particles"
	"vizcore/internal/pipeline"
	"vizcore/internal/source"
	"vizcore/internal/transport"
	"vizcore/internal/transport/udp"
	"vizcore/pkg/build"
)

// Particle spawn tuning for the demo loop. A real front end would make
// these part of its own visual design.
const (
	spawnLoudness = 0.15  // Minimum frame loudness before spawning.
	fieldHeight   = 100.0 // Particles travel from fieldHeight down to 0.
	alphaGamma    = 1.8
	alphaSteps    = 64
)

// frameSource is what the feed loop needs from a magnitude source.
type frameSource interface {
	NextFrame() ([]float64, error)
}

// main wires the engine together. The program flow has three phases:
//
// 1. Startup (cold path): build info, CLI parsing, configuration, and
// construction of the pipeline, particle ring, sources and transports.
//
// 2. Concurrent (hot path): a feed goroutine submits magnitude frames
// at the source rate while the main loop ticks the particle simulation
// and pushes processed frames to the enabled transports.
//
// 3. Shutdown (cold path): a termination signal stops the feed, drains
// the transports, and closes the pipeline.
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if cfg == nil {
		// Help or version output already handled by the CLI.
		return
	}

	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	// One-off commands that don't need the engine.
	if cfg.Command == "profiles" {
		cmd.PrintProfiles()
		return
	}

	profile := cfg.Profile()
	applog.Infof("%s %s starting (quality=%s bars=%d)",
		build.GetBuildFlags().Name, build.GetBuildFlags().Version,
		profile.Tier, profile.BarCount)

	ring, err := particles.NewRing(profile.ParticleCapacity, profile.ParticleMaxLife)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	alphaCurve := particles.AlphaCurve(alphaSteps, alphaGamma)

	// Spawning runs on the pipeline worker; one particle per loud frame,
	// rising from the peak bucket.
	hook := func(f pipeline.Frame) {
		if f.Loudness < spawnLoudness || len(f.Buckets) == 0 {
			return
		}
		peak := 0
		for i, v := range f.Buckets {
			if v > f.Buckets[peak] {
				peak = i
			}
		}
		ring.Add(particles.Particle{
			X:        float64(peak),
			Y:        fieldHeight,
			Velocity: 1 + f.Loudness*2,
			Size:     1 + f.MaxMagnitude,
		})
	}

	exchange, err := pipeline.New(profile, pipeline.WithFrameHook(hook))
	if err != nil {
		applog.Fatalf("%v", err)
	}

	var ws *transport.WebSocketBroadcaster
	if cfg.Transport.WebSocketEnabled {
		ws = transport.NewWebSocketBroadcaster(cfg.Transport.WebSocketPort, cfg.Source.FrameInterval)
	}

	var (
		udpSender    *udp.Sender
		udpPublisher *udp.Publisher
	)
	if cfg.Transport.UDPEnabled {
		udpSender, err = udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		udpPublisher, err = udp.NewPublisher(cfg.Transport.UDPSendInterval, udpSender, exchange)
		if err != nil {
			applog.Fatalf("%v", err)
		}
	}

	var src frameSource
	var wavSrc *source.WAV
	if cfg.Source.InputFile != "" {
		wavSrc, err = source.NewWAV(cfg.Source.InputFile, cfg.Source.WindowSize)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		src = wavSrc
	} else {
		src, err = source.NewSynth(cfg.Source.WindowSize, cfg.Source.SampleRate)
		if err != nil {
			applog.Fatalf("%v", err)
		}
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	if udpPublisher != nil {
		udpPublisher.Start()
	}

	feedQuit := make(chan struct{})
	feedDone := make(chan struct{})
	go func() {
		defer close(feedDone)
		ticker := time.NewTicker(cfg.Source.FrameInterval)
		defer ticker.Stop()
		for {
			select {
			case <-feedQuit:
				return
			case <-ticker.C:
				frame, err := src.NextFrame()
				if err == io.EOF {
					applog.Infof("source: input exhausted, feed stopped")
					return
				}
				if err != nil {
					applog.Errorf("source: %v", err)
					return
				}
				exchange.Submit(frame, profile.BarCount)
			}
		}
	}()

	renderTicker := time.NewTicker(cfg.Source.FrameInterval)
	defer renderTicker.Stop()

	running := true
	for running {
		select {
		case <-done:
			running = false
		case <-renderTicker.C:
			ring.Update(0, alphaCurve)
			if ws == nil {
				continue
			}
			if frame, ok := exchange.TryGetLatestFrame(); ok {
				if err := ws.Send(frame); err != nil {
					applog.Warnf("transport: broadcast failed: %v", err)
				}
			}
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	close(feedQuit)
	<-feedDone

	if udpPublisher != nil {
		if err := udpPublisher.Close(); err != nil {
			applog.Errorf("udp: publisher close: %v", err)
		}
	}
	if udpSender != nil {
		if err := udpSender.Close(); err != nil {
			applog.Errorf("udp: sender close: %v", err)
		}
	}
	if ws != nil {
		if err := ws.Close(); err != nil {
			applog.Errorf("transport: websocket close: %v", err)
		}
	}
	if wavSrc != nil {
		if err := wavSrc.Close(); err != nil {
			applog.Errorf("source: close: %v", err)
		}
	}
	if err := exchange.Close(); err != nil {
		applog.Errorf("pipeline: close: %v", err)
	}
	applog.Infof("shutdown complete")
}
