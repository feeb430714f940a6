// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(filepath.Join(t.TempDir(), "nested", DatabaseFile))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestChannelRoundTrip(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.SaveChannel(ChannelRecord{Name: "#b", CreatorID: "p1", Joined: true}))
	require.NoError(t, db.SaveChannel(ChannelRecord{
		Name: "#a", CreatorID: "p2", KeyHash: []byte{1, 2, 3}, Salt: []byte{9}, Joined: false,
	}))

	recs, err := db.LoadChannels()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "#a", recs[0].Name)
	assert.Equal(t, []byte{1, 2, 3}, recs[0].KeyHash)
	assert.False(t, recs[0].Joined)
	assert.Equal(t, "#b", recs[1].Name)
	assert.Nil(t, recs[1].KeyHash)
	assert.True(t, recs[1].Joined)

	// Upsert keeps one row per name
	require.NoError(t, db.SaveChannel(ChannelRecord{Name: "#b", CreatorID: "p1", Joined: false}))
	recs, err = db.LoadChannels()
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	require.NoError(t, db.DeleteChannel("#a"))
	recs, err = db.LoadChannels()
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestBlockList(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Block("mallory", "p9"))
	require.NoError(t, db.Block("eve", "p8"))

	blocked, err := db.ListBlocked()
	require.NoError(t, err)
	require.Len(t, blocked, 2)
	assert.Equal(t, "eve", blocked[0].Nickname)
	assert.Equal(t, "p9", blocked[1].PeerID)

	require.NoError(t, db.Unblock("eve"))
	err = db.Unblock("eve")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalPeerIDSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), DatabaseFile)
	calls := 0
	gen := func() string {
		calls++
		if calls == 1 {
			return "aaaa1111bbbb2222"
		}
		return "cccc3333dddd4444"
	}

	db, err := OpenDB(path)
	require.NoError(t, err)
	id, err := db.LocalPeerID(gen)
	require.NoError(t, err)
	assert.Equal(t, "aaaa1111bbbb2222", id)

	again, err := db.LocalPeerID(gen)
	require.NoError(t, err)
	assert.Equal(t, id, again)
	require.NoError(t, db.Close())

	reopened, err := OpenDB(path)
	require.NoError(t, err)
	defer reopened.Close()
	id, err = reopened.LocalPeerID(gen)
	require.NoError(t, err)
	assert.Equal(t, "aaaa1111bbbb2222", id)
}

func TestClosedDB(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	_, err := db.ListBlocked()
	assert.True(t, errors.Is(err, ErrClosed))
}
