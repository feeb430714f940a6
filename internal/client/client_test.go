// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshline-tui/internal/channels"
	"github.com/jeranaias/meshline-tui/internal/commands"
	"github.com/jeranaias/meshline-tui/internal/mesh"
	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/privatechat"
	"github.com/jeranaias/meshline-tui/internal/session"
	"github.com/jeranaias/meshline-tui/internal/storage"
)

type fixture struct {
	client    *Client
	state     *session.State
	store     *storage.MessageStore
	dir       *mesh.Directory
	transport *mesh.LoopbackTransport
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	state := session.NewState("me", "p-me-0001")
	store, err := storage.NewMessageStore(storage.StoreConfig{})
	require.NoError(t, err)
	dir := mesh.NewDirectory()
	dir.Upsert("P1", "alice")
	transport := mesh.NewLoopbackTransport(mesh.Identity{PeerID: state.MyPeerID(), Nickname: state.Nickname}, nil)

	chans, err := channels.NewManager(channels.Config{Timeline: store, State: state})
	require.NoError(t, err)
	private, err := privatechat.NewManager(privatechat.Config{Directory: dir, Timeline: store, State: state})
	require.NoError(t, err)

	processor := commands.NewProcessor(commands.Config{
		State:       state,
		Store:       store,
		Channels:    chans,
		PrivateChat: private,
		Directory:   dir,
		Transport:   transport,
	})

	c := New(Config{
		State:       state,
		Store:       store,
		Directory:   dir,
		Transport:   transport,
		Channels:    chans,
		PrivateChat: private,
		Processor:   processor,
		Suggester:   commands.NewSuggester(processor.Vocabulary(), dir),
	})
	return &fixture{client: c, state: state, store: store, dir: dir, transport: transport}
}

func contents(msgs []model.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Content)
	}
	return out
}

func TestParseDirective(t *testing.T) {
	tests := []struct {
		line string
		ok   bool
		want Directive
	}{
		{":pub", true, Directive{Kind: DirectivePublic}},
		{":ch ops", true, Directive{Kind: DirectiveChannel, Target: "ops"}},
		{":PM @alice", true, Directive{Kind: DirectivePrivate, Target: "@alice"}},
		{":geo u4pruy", true, Directive{Kind: DirectiveLocation, Target: "u4pruy"}},
		{":geo", true, Directive{Kind: DirectiveLocation}},
		{":leave", true, Directive{Kind: DirectiveLeave}},
		{":leave #ops", true, Directive{Kind: DirectiveLeave, Target: "#ops"}},
		{":)", false, Directive{}},
		{"hello", false, Directive{}},
		{"/join x", false, Directive{}},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			d, ok := ParseDirective(tc.line)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, d)
		})
	}
}

func TestSubmitPlainTextInPublic(t *testing.T) {
	f := newFixture(t)

	f.client.Submit("hello @alice")

	assert.Equal(t, []string{"hello @alice"}, contents(f.client.Timeline()))
	frames := f.transport.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, mesh.FrameMessage, frames[0].Kind)
	assert.Equal(t, []string{"alice"}, frames[0].Mentions)
}

func TestSubmitIgnoresBlankLines(t *testing.T) {
	f := newFixture(t)
	f.client.Submit("   ")
	assert.Empty(t, f.client.Timeline())
	assert.Empty(t, f.transport.Frames())
}

func TestSubmitCommandAndChannelTimeline(t *testing.T) {
	f := newFixture(t)

	f.client.Submit("/join ops")
	assert.Equal(t, "#ops", f.client.ScopeLabel())

	f.client.Submit("anyone here?")
	assert.Equal(t, []string{"joined channel #ops", "anyone here?"}, contents(f.client.Timeline()))

	frames := f.transport.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, "#ops", frames[0].Channel)

	f.client.Submit(":pub")
	assert.Equal(t, []string{"joined channel #ops"}, contents(f.client.Timeline()))

	f.client.Submit(":ch ops")
	assert.Equal(t, "#ops", f.client.ScopeLabel())
}

func TestChannelDirectiveRequiresMembership(t *testing.T) {
	f := newFixture(t)

	f.client.Submit(":ch nowhere")
	assert.True(t, f.state.Scope().IsPublic())
	assert.Equal(t, []string{"you have not joined #nowhere. use /join #nowhere"}, contents(f.client.Timeline()))
}

func TestPrivateDirective(t *testing.T) {
	f := newFixture(t)

	f.client.Submit(":pm @alice")
	assert.Equal(t, "@alice", f.client.ScopeLabel())

	f.client.Submit("psst")
	frames := f.transport.Frames()
	require.Len(t, frames, 1)
	assert.Equal(t, mesh.FramePrivate, frames[0].Kind)
	assert.Equal(t, "P1", frames[0].To)
	assert.Equal(t, []string{"psst"}, contents(f.store.Messages(session.PrivateScope("P1"))))

	f.client.Submit(":pm ghost")
	assert.Equal(t, "@alice", f.client.ScopeLabel())
}

func TestLocationDirective(t *testing.T) {
	f := newFixture(t)

	f.client.Submit(":geo U4PRUY")
	assert.Equal(t, "geo:u4pruy", f.client.ScopeLabel())
	assert.Equal(t, []string{"me#p-me"}, f.state.GeohashParticipants("u4pruy"))

	f.client.Submit("anyone near?")
	frames := f.transport.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, mesh.FrameAnnounce, frames[0].Kind)
	assert.Equal(t, "u4pruy", frames[1].Geohash)
	assert.Equal(t, []string{"anyone near?"}, contents(f.client.Timeline()))

	f.client.Submit(":geo not-a-hash!")
	assert.Equal(t, "geo:u4pruy", f.client.ScopeLabel())
	assert.Contains(t, contents(f.client.Timeline()), "invalid geohash 'not-a-hash!'")
}

func TestDirectiveUsage(t *testing.T) {
	f := newFixture(t)
	f.client.Submit(":pm")
	assert.Equal(t, []string{"usage: " + DirectiveHelp}, contents(f.client.Timeline()))
}

func TestLeaveDirective(t *testing.T) {
	t.Run("channel", func(t *testing.T) {
		f := newFixture(t)
		f.client.Submit("/join ops")
		f.client.Submit("/pass s3cret")
		assert.Equal(t, "1 member · locked · 1 online", f.client.ScopeDetail())

		f.client.Submit(":leave")
		assert.True(t, f.state.Scope().IsPublic())
		assert.Contains(t, contents(f.client.Timeline()), "left #ops")

		// the record is gone, so joining again needs no password
		f.client.Submit("/join ops")
		assert.Equal(t, "#ops", f.client.ScopeLabel())
		assert.Equal(t, "1 member · 1 online", f.client.ScopeDetail())
	})

	t.Run("named channel from elsewhere", func(t *testing.T) {
		f := newFixture(t)
		f.client.Submit("/join ops")
		f.client.Submit(":pub")

		f.client.Submit(":leave ops")
		f.client.Submit(":leave ops")
		msgs := contents(f.client.Timeline())
		assert.Contains(t, msgs, "left #ops")
		assert.Equal(t, "you have not joined #ops", msgs[len(msgs)-1])
	})

	t.Run("private chat", func(t *testing.T) {
		f := newFixture(t)
		f.client.Submit(":pm @alice")
		assert.Equal(t, "1 online", f.client.ScopeDetail())
		f.client.Submit(":pub")
		assert.Equal(t, "1 online · 1 private", f.client.ScopeDetail())

		f.client.Submit(":pm @alice")
		f.client.Submit(":leave")
		assert.True(t, f.state.Scope().IsPublic())
		assert.Equal(t, "1 online", f.client.ScopeDetail())
		assert.Contains(t, contents(f.client.Timeline()), "closed private chat with @alice")
	})

	t.Run("nothing to leave", func(t *testing.T) {
		f := newFixture(t)
		f.client.Submit(":leave")
		assert.Equal(t, []string{"nothing to leave here. usage: :leave <channel>"}, contents(f.client.Timeline()))
	})
}

func TestHandleFrame(t *testing.T) {
	f := newFixture(t)

	f.client.HandleFrame(mesh.Frame{Kind: mesh.FrameMessage, From: "P1", Nickname: "alice", Content: "hi all"})
	f.client.HandleFrame(mesh.Frame{Kind: mesh.FrameSOS, From: "P1", Nickname: "alice", Content: "🚨 **SOS ALERT** 🚨"})
	f.client.HandleFrame(mesh.Frame{Kind: mesh.FramePrivate, From: "P1", To: "p-me-0001", Content: "secret", ID: "m-9"})
	f.client.HandleFrame(mesh.Frame{Kind: mesh.FrameMessage, From: "P1", Nickname: "alice", Content: "near you", Geohash: "u4pruy"})
	f.client.HandleFrame(mesh.Frame{Kind: mesh.FrameAnnounce, From: "P2abcdef", Nickname: "bob", Geohash: "u4pruy"})

	public := f.store.Messages(session.PublicScope())
	require.Len(t, public, 2)
	assert.Equal(t, "alice", public[0].Sender)
	assert.True(t, public[0].IsRelay)
	assert.True(t, public[1].IsEmergency)

	private := f.store.Messages(session.PrivateScope("P1"))
	require.Len(t, private, 1)
	assert.Equal(t, "m-9", private[0].ID)

	location := f.store.Messages(mustLocation(t, "u4pruy"))
	assert.Equal(t, []string{"near you"}, contents(location))
	assert.Equal(t, []string{"alice#P1", "bob#P2ab"}, f.state.GeohashParticipants("u4pruy"))
}

func TestChangesSignal(t *testing.T) {
	f := newFixture(t)

	f.client.Submit("hello")
	select {
	case <-f.client.Changes():
	default:
		t.Fatal("expected a change signal")
	}
}

func mustLocation(t *testing.T, hash string) session.Scope {
	t.Helper()
	scope, err := session.LocationScope(hash)
	require.NoError(t, err)
	return scope
}
