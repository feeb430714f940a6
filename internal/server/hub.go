// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jeranaias/meshline-tui/internal/mesh"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxFrameSize   = 64 * 1024
	peerSendBuffer = 256
)

// =============================================================================
// HUB STATS
// =============================================================================

// HubStats is a snapshot of relay counters.
type HubStats struct {
	Peers          int       `json:"peers"`
	FramesRelayed  int64     `json:"frames_relayed"`
	FramesDropped  int64     `json:"frames_dropped"`
	FramesRejected int64     `json:"frames_rejected"`
	StartTime      time.Time `json:"start_time"`
}

// Uptime returns how long the hub has been running.
func (s HubStats) Uptime() time.Duration {
	return time.Since(s.StartTime)
}

// =============================================================================
// HUB
// =============================================================================

// peer is one websocket connection. id is bound by the first frame it sends.
type peer struct {
	conn *websocket.Conn
	send chan []byte
	id   string
	left bool
}

// Hub fans frames out between connected peers.
type Hub struct {
	mu     sync.RWMutex
	peers  map[*peer]struct{}
	byID   map[string]*peer
	closed bool

	relayed  atomic.Int64
	dropped  atomic.Int64
	rejected atomic.Int64
	started  time.Time

	logger *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		peers:   make(map[*peer]struct{}),
		byID:    make(map[string]*peer),
		started: time.Now(),
		logger:  logger.With("component", "relay"),
	}
}

// Stats returns the current counters.
func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	n := len(h.peers)
	h.mu.RUnlock()
	return HubStats{
		Peers:          n,
		FramesRelayed:  h.relayed.Load(),
		FramesDropped:  h.dropped.Load(),
		FramesRejected: h.rejected.Load(),
		StartTime:      h.started,
	}
}

// Serve runs a connection until it closes. It blocks.
func (h *Hub) Serve(conn *websocket.Conn) {
	p := &peer{conn: conn, send: make(chan []byte, peerSendBuffer)}
	if !h.add(p) {
		_ = conn.Close()
		return
	}

	done := make(chan struct{})
	go func() {
		h.writePump(p)
		close(done)
	}()
	h.readPump(p)
	h.remove(p)
	<-done
}

// Close disconnects every peer.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for p := range h.peers {
		_ = p.conn.Close()
	}
}

func (h *Hub) add(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	return true
}

// remove unregisters p and tells the others it left, unless it already said so.
func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	if _, ok := h.peers[p]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.peers, p)
	if p.id != "" && h.byID[p.id] == p {
		delete(h.byID, p.id)
	}
	close(p.send)
	id, left := p.id, p.left
	h.mu.Unlock()

	if id != "" && !left {
		h.route(p, mesh.Frame{Kind: mesh.FrameLeave, From: id, Timestamp: time.Now().Unix()})
	}
	h.logger.Debug("peer disconnected", "peer", id)
}

func (h *Hub) readPump(p *peer) {
	p.conn.SetReadLimit(maxFrameSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read failed", "peer", p.id, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var f mesh.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			h.rejected.Add(1)
			continue
		}
		if !h.bind(p, f) {
			h.rejected.Add(1)
			continue
		}
		h.route(p, f)
	}
}

// bind ties the connection to the first peer ID it speaks for and rejects
// frames claiming to be from anyone else.
func (h *Hub) bind(p *peer, f mesh.Frame) bool {
	if f.From == "" {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if p.id == "" {
		if prev, ok := h.byID[f.From]; ok && prev != p {
			h.logger.Warn("peer id already connected", "peer", f.From)
			return false
		}
		p.id = f.From
		h.byID[p.id] = p
		h.logger.Info("peer connected", "peer", p.id, "nickname", f.Nickname)
	}
	if f.From != p.id {
		return false
	}
	if f.Kind == mesh.FrameLeave {
		p.left = true
	}
	return true
}

// route delivers private frames to their addressee and everything else to all other peers.
func (h *Hub) route(from *peer, f mesh.Frame) {
	data, err := json.Marshal(f)
	if err != nil {
		h.rejected.Add(1)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if f.Kind == mesh.FramePrivate {
		if to, ok := h.byID[f.To]; ok && to != from {
			h.deliver(to, data)
		}
		return
	}
	for p := range h.peers {
		if p != from {
			h.deliver(p, data)
		}
	}
}

// deliver must be called with mu held. A slow peer loses frames rather than stalling the hub.
func (h *Hub) deliver(p *peer, data []byte) {
	select {
	case p.send <- data:
		h.relayed.Add(1)
	default:
		h.dropped.Add(1)
		h.logger.Warn("peer send buffer full, frame dropped", "peer", p.id)
	}
}

func (h *Hub) writePump(p *peer) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = p.conn.Close()
	}()

	for {
		select {
		case data, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
