// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	applog "vizcore/internal/log"
	"vizcore/internal/pipeline"
)

// wireFrame is the JSON shape broadcast to clients.
type wireFrame struct {
	Seq          uint64    `json:"seq"`
	BarCount     int       `json:"barCount"`
	MaxMagnitude float64   `json:"maxMagnitude"`
	Loudness     float64   `json:"loudness"`
	Low          float64   `json:"low"`
	Mid          float64   `json:"mid"`
	High         float64   `json:"high"`
	Buckets      []float64 `json:"buckets"`
}

// WebSocketBroadcaster pushes processed frames to every connected
// client, rate limited so a fast pipeline cannot flood slow clients.
//
// Thread Safety:
// - Mutex around the client map
// - Send is safe for concurrent callers; delivery errors evict the client
type WebSocketBroadcaster struct {
	clients  map[*websocket.Conn]bool
	mu       sync.Mutex
	upgrader websocket.Upgrader
	server   *http.Server

	lastSend    time.Time
	minInterval time.Duration
}

// NewWebSocketBroadcaster starts an HTTP server on the given port and
// serves frame streams on /frames. minInterval throttles broadcasts;
// zero disables throttling.
func NewWebSocketBroadcaster(port string, minInterval time.Duration) *WebSocketBroadcaster {
	b := &WebSocketBroadcaster{
		clients:     make(map[*websocket.Conn]bool),
		minInterval: minInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualization clients only.
			},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/frames", b.handleWebSocket)
	b.server = &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		applog.Infof("transport: frame WebSocket server listening on port %s", port)
		if err := b.server.ListenAndServe(); err != http.ErrServerClosed {
			applog.Errorf("transport: WebSocket server error: %v", err)
		}
	}()

	return b
}

func (b *WebSocketBroadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("transport: WebSocket upgrade error: %v", err)
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()

	// Drain reads so pings and close frames are handled; drop the
	// client on the first read error.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
				return
			}
		}
	}()
}

// Send broadcasts a frame to all connected clients. Frames inside the
// rate-limit window are dropped silently; the next one carries newer
// data anyway.
func (b *WebSocketBroadcaster) Send(frame pipeline.Frame) error {
	now := time.Now()
	b.mu.Lock()
	if b.minInterval > 0 && now.Sub(b.lastSend) < b.minInterval {
		b.mu.Unlock()
		return nil
	}
	b.lastSend = now
	b.mu.Unlock()

	payload, err := json.Marshal(wireFrame{
		Seq:          frame.Seq,
		BarCount:     frame.BarCount,
		MaxMagnitude: frame.MaxMagnitude,
		Loudness:     frame.Loudness,
		Low:          frame.Low,
		Mid:          frame.Mid,
		High:         frame.High,
		Buckets:      frame.Buckets,
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	for client := range b.clients {
		if err := client.WriteMessage(websocket.TextMessage, payload); err != nil {
			client.Close()
			delete(b.clients, client)
		}
	}
	b.mu.Unlock()
	return nil
}

// Close disconnects all clients and shuts the server down.
func (b *WebSocketBroadcaster) Close() error {
	b.mu.Lock()
	for client := range b.clients {
		client.Close()
		delete(b.clients, client)
	}
	b.mu.Unlock()
	return b.server.Close()
}

var _ Transport = (*WebSocketBroadcaster)(nil)
