// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mesh

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jeranaias/meshline-tui/internal/model"
)

// =============================================================================
// FRAMES
// =============================================================================

// FrameKind identifies the purpose of a frame on the wire.
type FrameKind string

const (
	FrameAnnounce FrameKind = "announce" // Peer joined or changed nickname
	FrameLeave    FrameKind = "leave"    // Peer left
	FrameMessage  FrameKind = "message"  // Public, channel or location chat line
	FramePrivate  FrameKind = "private"  // Addressed to a single peer
	FrameSOS      FrameKind = "sos"      // Emergency broadcast
)

// Frame is the unit exchanged with other peers.
type Frame struct {
	Kind      FrameKind               `json:"kind"`
	From      string                  `json:"from"`
	Nickname  string                  `json:"nickname,omitempty"`
	To        string                  `json:"to,omitempty"`
	ID        string                  `json:"id,omitempty"`
	Content   string                  `json:"content,omitempty"`
	Channel   string                  `json:"channel,omitempty"`
	Geohash   string                  `json:"geohash,omitempty"`
	Mentions  []string                `json:"mentions,omitempty"`
	Emergency *model.EmergencyPayload `json:"emergency,omitempty"`
	Timestamp int64                   `json:"ts"`
}

// Identity is the local peer as seen by other peers.
type Identity struct {
	PeerID   string
	Nickname func() string
}

func (id Identity) nickname() string {
	if id.Nickname == nil {
		return ""
	}
	return id.Nickname()
}

// =============================================================================
// TRANSPORT INTERFACE
// =============================================================================

// Transport carries outbound chat traffic. Sends are fire-and-forget.
type Transport interface {
	// Send broadcasts content to the public feed, or to channel when non-empty.
	Send(content string, mentions []string, channel string)

	// SendLocation broadcasts content to the peers of a geohash location channel.
	SendLocation(content string, mentions []string, geohash string)

	// SendEmergency broadcasts an SOS on the high-priority path.
	SendEmergency(payload model.EmergencyPayload)

	// Announce advertises the local nickname and, when set, the geohash we joined.
	Announce(geohash string)

	// SendPrivate delivers content to a single peer.
	SendPrivate(content, peerID, recipientNickname, messageID string)

	// Close releases the transport.
	Close() error
}

// =============================================================================
// LOOPBACK TRANSPORT
// =============================================================================

// LoopbackTransport records outbound frames instead of sending them.
// It is used when no relay is configured.
type LoopbackTransport struct {
	mu     sync.Mutex
	self   Identity
	frames []Frame
	logger *slog.Logger
}

// NewLoopbackTransport creates a transport that keeps frames in memory.
func NewLoopbackTransport(self Identity, logger *slog.Logger) *LoopbackTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoopbackTransport{
		self:   self,
		logger: logger.With("component", "mesh", "transport", "loopback"),
	}
}

// Send records a broadcast frame.
func (t *LoopbackTransport) Send(content string, mentions []string, channel string) {
	t.record(newFrame(t.self, FrameMessage, func(f *Frame) {
		f.Content = content
		f.Mentions = mentions
		f.Channel = channel
	}))
}

// SendLocation records a location channel frame.
func (t *LoopbackTransport) SendLocation(content string, mentions []string, geohash string) {
	t.record(newFrame(t.self, FrameMessage, func(f *Frame) {
		f.Content = content
		f.Mentions = mentions
		f.Geohash = geohash
	}))
}

// Announce records an announce frame.
func (t *LoopbackTransport) Announce(geohash string) {
	t.record(newFrame(t.self, FrameAnnounce, func(f *Frame) {
		f.Geohash = geohash
	}))
}

// SendEmergency records an SOS frame.
func (t *LoopbackTransport) SendEmergency(payload model.EmergencyPayload) {
	t.record(newFrame(t.self, FrameSOS, func(f *Frame) {
		f.Content = payload.Text()
		f.Emergency = &payload
	}))
}

// SendPrivate records a private frame.
func (t *LoopbackTransport) SendPrivate(content, peerID, recipientNickname, messageID string) {
	t.record(newFrame(t.self, FramePrivate, func(f *Frame) {
		f.Content = content
		f.To = peerID
		f.ID = messageID
	}))
}

// Frames returns the recorded frames.
func (t *LoopbackTransport) Frames() []Frame {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Frame, len(t.frames))
	copy(out, t.frames)
	return out
}

// Close is a no-op.
func (t *LoopbackTransport) Close() error { return nil }

func (t *LoopbackTransport) record(f Frame) {
	t.mu.Lock()
	t.frames = append(t.frames, f)
	t.mu.Unlock()
	t.logger.Debug("frame recorded", "kind", f.Kind, "channel", f.Channel, "to", f.To)
}

func newFrame(self Identity, kind FrameKind, fill func(*Frame)) Frame {
	f := Frame{
		Kind:      kind,
		From:      self.PeerID,
		Nickname:  self.nickname(),
		Timestamp: time.Now().Unix(),
	}
	if fill != nil {
		fill(&f)
	}
	return f
}
