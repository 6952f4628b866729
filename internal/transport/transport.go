// SPDX-License-Identifier: MIT
// Package transport publishes processed frames to out-of-process
// consumers. Transports are stand-ins for the drawing layer: they read
// the pipeline's snapshot accessors and must treat frames as read-only
// value data.
package transport

import "vizcore/internal/pipeline"

// FrameProvider is the read side of the pipeline. Implementations must
// be non-blocking and safe for concurrent use; pipeline.Exchange is the
// canonical one.
type FrameProvider interface {
	TryGetLatestFrame() (pipeline.Frame, bool)
}

// Transport sends processed frames somewhere. Implementations must be
// thread-safe and absorb their own delivery failures; a lost frame is a
// visual glitch, not a pipeline error.
type Transport interface {
	Send(frame pipeline.Frame) error
	Close() error
}
