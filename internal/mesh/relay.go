// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mesh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/jeranaias/meshline-tui/internal/model"
)

const (
	relayWriteWait    = 10 * time.Second
	relayPongWait     = 60 * time.Second
	relayPingPeriod   = (relayPongWait * 9) / 10
	relayMaxPayload   = 64 * 1024
	relayOutboxSize   = 256
	relayPrioritySize = 16
)

// RelayConfig configures a RelayTransport.
type RelayConfig struct {
	// URL is the websocket relay address (ws:// or wss://)
	URL string

	// Self identifies the local peer on the wire
	Self Identity

	// SendRate is the sustained frames per second for ordinary traffic
	SendRate float64

	// SendBurst is the burst allowance for ordinary traffic
	SendBurst int

	Logger *slog.Logger
}

// RelayTransport bridges the mesh over a websocket relay.
// Ordinary frames are paced by a rate limiter; SOS frames skip the queue and the limiter.
type RelayTransport struct {
	conn      *websocket.Conn
	self      Identity
	directory *Directory
	onFrame   func(Frame)
	limiter   *rate.Limiter
	logger    *slog.Logger

	outbox   chan Frame
	priority chan Frame

	ctx        context.Context
	cancel     context.CancelFunc
	writerDone chan struct{}
	wg         sync.WaitGroup
	once       sync.Once
}

// DialRelay connects to the relay and starts the read and write loops.
// Inbound announce and leave frames update directory; every inbound frame is passed to onFrame.
func DialRelay(ctx context.Context, cfg RelayConfig, directory *Directory, onFrame func(Frame)) (*RelayTransport, error) {
	if cfg.URL == "" {
		return nil, errors.New("relay url is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = 5
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 10
	}

	dialer := websocket.Dialer{HandshakeTimeout: relayWriteWait}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay %s: %w", cfg.URL, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	t := &RelayTransport{
		conn:       conn,
		self:       cfg.Self,
		directory:  directory,
		onFrame:    onFrame,
		limiter:    rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendBurst),
		logger:     logger.With("component", "mesh", "transport", "relay"),
		outbox:     make(chan Frame, relayOutboxSize),
		priority:   make(chan Frame, relayPrioritySize),
		ctx:        loopCtx,
		cancel:     cancel,
		writerDone: make(chan struct{}),
	}

	t.wg.Add(1)
	go t.readLoop()
	go t.writeLoop()

	t.Announce("")
	t.logger.Info("relay connected", "url", cfg.URL)
	return t, nil
}

// Announce tells other peers our nickname and, optionally, the geohash we are in.
func (t *RelayTransport) Announce(geohash string) {
	t.enqueue(newFrame(t.self, FrameAnnounce, func(f *Frame) {
		f.Geohash = geohash
	}))
}

// Send broadcasts a chat line.
func (t *RelayTransport) Send(content string, mentions []string, channel string) {
	t.enqueue(newFrame(t.self, FrameMessage, func(f *Frame) {
		f.Content = content
		f.Mentions = mentions
		f.Channel = channel
	}))
}

// SendLocation broadcasts a chat line to a geohash location channel.
func (t *RelayTransport) SendLocation(content string, mentions []string, geohash string) {
	t.enqueue(newFrame(t.self, FrameMessage, func(f *Frame) {
		f.Content = content
		f.Mentions = mentions
		f.Geohash = geohash
	}))
}

// SendEmergency broadcasts an SOS ahead of queued traffic.
func (t *RelayTransport) SendEmergency(payload model.EmergencyPayload) {
	f := newFrame(t.self, FrameSOS, func(f *Frame) {
		f.Content = payload.Text()
		f.Emergency = &payload
	})
	select {
	case t.priority <- f:
	case <-t.ctx.Done():
		t.logger.Warn("sos dropped, relay closed")
	}
}

// SendPrivate delivers content to a single peer.
func (t *RelayTransport) SendPrivate(content, peerID, recipientNickname, messageID string) {
	t.enqueue(newFrame(t.self, FramePrivate, func(f *Frame) {
		f.Content = content
		f.To = peerID
		f.ID = messageID
	}))
}

// Close announces departure and shuts down the connection.
func (t *RelayTransport) Close() error {
	var err error
	t.once.Do(func() {
		t.cancel()
		<-t.writerDone
		err = t.conn.Close()
		t.wg.Wait()
	})
	return err
}

func (t *RelayTransport) enqueue(f Frame) {
	select {
	case <-t.ctx.Done():
		t.logger.Warn("frame dropped, relay closed", "kind", f.Kind)
	case t.outbox <- f:
	default:
		t.logger.Warn("outbox full, frame dropped", "kind", f.Kind)
	}
}

func (t *RelayTransport) write(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

// writeLoop is the only goroutine that writes to the connection.
// On shutdown it sends a leave frame before returning.
func (t *RelayTransport) writeLoop() {
	defer close(t.writerDone)
	defer func() {
		if err := t.write(newFrame(t.self, FrameLeave, nil)); err != nil {
			t.logger.Debug("leave not sent", "error", err)
		}
	}()
	ticker := time.NewTicker(relayPingPeriod)
	defer ticker.Stop()

	for {
		// Emergency frames always go first
		select {
		case f := <-t.priority:
			if err := t.write(f); err != nil {
				t.logger.Error("sos write failed", "error", err)
			}
			continue
		default:
		}

		select {
		case <-t.ctx.Done():
			return
		case f := <-t.priority:
			if err := t.write(f); err != nil {
				t.logger.Error("sos write failed", "error", err)
			}
		case f := <-t.outbox:
			if err := t.limiter.Wait(t.ctx); err != nil {
				return
			}
			if err := t.write(f); err != nil {
				t.logger.Warn("write failed", "kind", f.Kind, "error", err)
			}
		case <-ticker.C:
			_ = t.conn.SetWriteDeadline(time.Now().Add(relayWriteWait))
			if err := t.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				t.logger.Warn("ping failed", "error", err)
			}
		}
	}
}

func (t *RelayTransport) readLoop() {
	defer t.wg.Done()
	t.conn.SetReadLimit(relayMaxPayload)
	_ = t.conn.SetReadDeadline(time.Now().Add(relayPongWait))
	t.conn.SetPongHandler(func(string) error {
		return t.conn.SetReadDeadline(time.Now().Add(relayPongWait))
	})

	for {
		messageType, data, err := t.conn.ReadMessage()
		if err != nil {
			if t.ctx.Err() == nil {
				t.logger.Warn("relay read failed", "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil {
			t.logger.Debug("invalid frame", "error", err)
			continue
		}
		t.handle(f)
	}
}

// handle applies an inbound frame to the directory and forwards it.
func (t *RelayTransport) handle(f Frame) {
	if f.From == "" || f.From == t.self.PeerID {
		return
	}
	if f.Kind == FramePrivate && f.To != t.self.PeerID {
		return
	}

	switch f.Kind {
	case FrameAnnounce:
		if t.directory != nil && f.Nickname != "" {
			t.directory.Upsert(f.From, f.Nickname)
		}
	case FrameLeave:
		if t.directory != nil {
			t.directory.Disconnect(f.From)
		}
	}

	if t.onFrame != nil {
		t.onFrame(f)
	}
}
