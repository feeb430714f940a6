// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mesh

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshline-tui/internal/model"
)

// fakeRelay is a single-client websocket server that records what it receives.
type fakeRelay struct {
	mu       sync.Mutex
	received []Frame
	conn     *websocket.Conn
	ready    chan struct{}
}

func newFakeRelay(t *testing.T) (*fakeRelay, *httptest.Server) {
	t.Helper()
	r := &fakeRelay{ready: make(chan struct{})}
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		r.mu.Lock()
		r.conn = conn
		r.mu.Unlock()
		close(r.ready)

		for {
			var f Frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			r.mu.Lock()
			r.received = append(r.received, f)
			r.mu.Unlock()
		}
	}))
	t.Cleanup(srv.Close)
	return r, srv
}

func (r *fakeRelay) push(t *testing.T, f Frame) {
	t.Helper()
	<-r.ready
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NoError(t, r.conn.WriteJSON(f))
}

func (r *fakeRelay) frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Frame, len(r.received))
	copy(out, r.received)
	return out
}

func (r *fakeRelay) kinds() []FrameKind {
	var out []FrameKind
	for _, f := range r.frames() {
		out = append(out, f.Kind)
	}
	return out
}

func dialTestRelay(t *testing.T, srv *httptest.Server, dir *Directory, onFrame func(Frame)) *RelayTransport {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tr, err := DialRelay(ctx, RelayConfig{URL: url, Self: testIdentity(), SendRate: 1000, SendBurst: 100}, dir, onFrame)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestDialRelayRequiresURL(t *testing.T) {
	_, err := DialRelay(context.Background(), RelayConfig{}, NewDirectory(), nil)
	assert.Error(t, err)
}

func TestRelayAnnouncesAndSends(t *testing.T) {
	relay, srv := newFakeRelay(t)
	tr := dialTestRelay(t, srv, NewDirectory(), nil)

	tr.Send("hello", nil, "")
	tr.SendPrivate("psst", "p2", "bob", "m-1")
	tr.SendEmergency(model.EmergencyPayload{Message: "EMERGENCY", Battery: model.BatteryUnknown})

	require.Eventually(t, func() bool { return len(relay.frames()) >= 4 }, 3*time.Second, 10*time.Millisecond)

	kinds := relay.kinds()
	assert.Contains(t, kinds, FrameAnnounce)
	assert.Contains(t, kinds, FrameMessage)
	assert.Contains(t, kinds, FramePrivate)
	assert.Contains(t, kinds, FrameSOS)
}

func TestRelayInboundUpdatesDirectory(t *testing.T) {
	relay, srv := newFakeRelay(t)
	dir := NewDirectory()

	var mu sync.Mutex
	var got []Frame
	dialTestRelay(t, srv, dir, func(f Frame) {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
	})

	relay.push(t, Frame{Kind: FrameAnnounce, From: "p2", Nickname: "bob"})
	relay.push(t, Frame{Kind: FrameMessage, From: "self", Content: "echo of my own line"})
	relay.push(t, Frame{Kind: FramePrivate, From: "p2", To: "someone-else", Content: "not for us"})
	relay.push(t, Frame{Kind: FramePrivate, From: "p2", To: "self", Content: "for us"})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 3*time.Second, 10*time.Millisecond)

	id, ok := dir.PeerIDOf("bob")
	require.True(t, ok)
	assert.Equal(t, "p2", id)

	mu.Lock()
	assert.Equal(t, "for us", got[1].Content)
	mu.Unlock()

	relay.push(t, Frame{Kind: FrameLeave, From: "p2"})
	require.Eventually(t, func() bool { return len(dir.ConnectedPeerIDs()) == 0 }, 3*time.Second, 10*time.Millisecond)
}

func TestRelayCloseIsIdempotent(t *testing.T) {
	_, srv := newFakeRelay(t)
	tr := dialTestRelay(t, srv, NewDirectory(), nil)

	require.NoError(t, tr.Close())
	assert.NoError(t, tr.Close())

	// Sends after close are dropped, not blocked.
	tr.Send("late", nil, "")
	tr.SendEmergency(model.EmergencyPayload{Message: "late"})
}
