// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package channels

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
	"github.com/jeranaias/meshline-tui/internal/storage"
)

type recordingTimeline struct {
	public []model.Message
	scoped map[session.Scope][]model.Message
}

func newRecordingTimeline() *recordingTimeline {
	return &recordingTimeline{scoped: make(map[session.Scope][]model.Message)}
}

func (r *recordingTimeline) Append(msg model.Message) { r.public = append(r.public, msg) }
func (r *recordingTimeline) AppendTo(scope session.Scope, msg model.Message) {
	r.scoped[scope] = append(r.scoped[scope], msg)
}

func newTestManager(t *testing.T, persister Persister) (*Manager, *recordingTimeline, *session.State) {
	t.Helper()
	timeline := newRecordingTimeline()
	state := session.NewState("alice", "p-alice")
	m, err := NewManager(Config{Timeline: timeline, State: state, Persister: persister})
	require.NoError(t, err)
	return m, timeline, state
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "#foo", Normalize("foo"))
	assert.Equal(t, "#foo", Normalize("#foo"))
}

func TestJoinCreatesAndSelectsChannel(t *testing.T) {
	m, _, state := newTestManager(t, nil)

	require.True(t, m.Join("foo", "", "p-alice"))

	name, ok := state.Scope().Channel()
	assert.True(t, ok)
	assert.Equal(t, "#foo", name)
	assert.True(t, m.IsCreator("#foo", "p-alice"))
	assert.False(t, m.IsCreator("#foo", "p-bob"))
	assert.False(t, m.IsProtected("#foo"))
	assert.Equal(t, []string{"#foo"}, m.ListJoined())
}

func TestJoinProtectedChannel(t *testing.T) {
	m, timeline, _ := newTestManager(t, nil)
	require.True(t, m.Join("#vault", "s3cret", "p-alice"))
	require.True(t, m.IsProtected("#vault"))

	assert.False(t, m.Join("#vault", "nope", "p-bob"))
	require.NotEmpty(t, timeline.public)
	assert.Equal(t, "wrong password for channel #vault.", timeline.public[len(timeline.public)-1].Content)

	assert.False(t, m.Join("#vault", "", "p-bob"))
	assert.True(t, m.Join("#vault", "s3cret", "p-bob"))
}

func TestSetPassword(t *testing.T) {
	m, _, _ := newTestManager(t, nil)
	require.True(t, m.Join("#open", "", "p-alice"))

	m.SetPassword("#open", "newpass")
	assert.True(t, m.IsProtected("#open"))
	assert.False(t, m.Join("#open", "oldpass", "p-bob"))
	assert.True(t, m.Join("#open", "newpass", "p-bob"))

	m.SetPassword("#open", "")
	assert.False(t, m.IsProtected("#open"))
}

func TestLeaveReturnsToPublicFeed(t *testing.T) {
	m, _, state := newTestManager(t, nil)
	require.True(t, m.Join("#a", "", "p-alice"))

	require.NoError(t, m.Leave("a"))
	assert.True(t, state.Scope().IsPublic())
	assert.Empty(t, m.ListJoined())
	assert.Error(t, m.Leave("#a"))

	// a left channel is forgotten, so the next joiner becomes its creator
	require.True(t, m.Join("#a", "", "p-bob"))
	assert.True(t, m.IsCreator("#a", "p-bob"))
}

func TestAppendMessageRecordsMembers(t *testing.T) {
	m, timeline, _ := newTestManager(t, nil)
	require.True(t, m.Join("#a", "", "p-alice"))

	m.AppendMessage("#a", model.NewMessage("bob", "hi"), "p-bob")

	assert.Len(t, timeline.scoped[session.ChannelScope("#a")], 1)
	assert.Equal(t, []string{"p-alice", "p-bob"}, m.Members("#a"))
}

func TestChannelsPersistAcrossRestarts(t *testing.T) {
	db, err := storage.OpenDB(filepath.Join(t.TempDir(), storage.DatabaseFile))
	require.NoError(t, err)
	defer db.Close()

	m, _, _ := newTestManager(t, db)
	require.True(t, m.Join("#vault", "s3cret", "p-alice"))

	reloaded, _, _ := newTestManager(t, db)
	assert.Equal(t, []string{"#vault"}, reloaded.ListJoined())
	assert.True(t, reloaded.IsCreator("#vault", "p-alice"))
	assert.False(t, reloaded.Join("#vault", "bad", "p-bob"))
	assert.True(t, reloaded.Join("#vault", "s3cret", "p-bob"))

	require.NoError(t, reloaded.Leave("#vault"))
	recs, err := db.LoadChannels()
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCreatorSurvivesRestartWithStoredPeerID(t *testing.T) {
	path := filepath.Join(t.TempDir(), storage.DatabaseFile)
	ids := []string{"aaaa1111bbbb2222", "cccc3333dddd4444"}
	next := func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}

	db, err := storage.OpenDB(path)
	require.NoError(t, err)
	me, err := db.LocalPeerID(next)
	require.NoError(t, err)
	first, _, _ := newTestManager(t, db)
	require.True(t, first.Join("#mesh", "", me))
	require.NoError(t, db.Close())

	db, err = storage.OpenDB(path)
	require.NoError(t, err)
	defer db.Close()
	meAgain, err := db.LocalPeerID(next)
	require.NoError(t, err)
	second, _, _ := newTestManager(t, db)

	assert.Equal(t, me, meAgain)
	assert.Equal(t, []string{"#mesh"}, second.ListJoined())
	assert.True(t, second.IsCreator("#mesh", meAgain))
}
