// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirectoryUpsertAndLookup(t *testing.T) {
	d := NewDirectory()
	d.Upsert("p2", "bob")
	d.Upsert("p1", "alice")

	nick, ok := d.NicknameOf("p1")
	require.True(t, ok)
	assert.Equal(t, "alice", nick)

	id, ok := d.PeerIDOf("bob")
	require.True(t, ok)
	assert.Equal(t, "p2", id)

	_, ok = d.PeerIDOf("Bob")
	assert.False(t, ok, "lookup is case-sensitive")

	assert.Equal(t, []PeerNickname{{"p1", "alice"}, {"p2", "bob"}}, d.Nicknames())
	assert.Equal(t, []string{"p1", "p2"}, d.ConnectedPeerIDs())
}

func TestDirectoryDuplicateNicknamesResolveInPeerOrder(t *testing.T) {
	d := NewDirectory()
	d.Upsert("p9", "sam")
	d.Upsert("p3", "sam")

	id, ok := d.PeerIDOf("sam")
	require.True(t, ok)
	assert.Equal(t, "p3", id)
}

func TestDirectoryNormalizesNicknames(t *testing.T) {
	d := NewDirectory()
	// "é" as e + combining acute
	d.Upsert("p1", "rémy")

	id, ok := d.PeerIDOf("rémy")
	require.True(t, ok)
	assert.Equal(t, "p1", id)
}

func TestDirectoryDisconnectKeepsNickname(t *testing.T) {
	d := NewDirectory()
	d.Upsert("p1", "alice")
	d.Disconnect("p1")

	assert.Empty(t, d.ConnectedPeerIDs())
	nick, ok := d.NicknameOf("p1")
	assert.True(t, ok)
	assert.Equal(t, "alice", nick)
}
