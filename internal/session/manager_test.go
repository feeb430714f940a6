// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// SCOPE TESTS
// =============================================================================

func TestScopeAccessors(t *testing.T) {
	ch := ChannelScope("#general")
	name, ok := ch.Channel()
	assert.True(t, ok)
	assert.Equal(t, "#general", name)
	_, ok = ch.PrivatePeer()
	assert.False(t, ok)

	pm := PrivateScope("p1")
	peer, ok := pm.PrivatePeer()
	assert.True(t, ok)
	assert.Equal(t, "p1", peer)
	_, ok = pm.Channel()
	assert.False(t, ok)

	assert.True(t, PublicScope().IsPublic())
	assert.Equal(t, "public", PublicScope().Key())
	assert.Equal(t, "channel:#general", ch.Key())
}

func TestLocationScope(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"u4pruy", "u4pruy", false},
		{"  U4PRUY ", "u4pruy", false},
		{"9q8yy", "9q8yy", false},
		{"", "", true},
		{"abc!", "", true},
		{"aaaa", "", true}, // 'a' is not in the geohash alphabet
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			scope, err := LocationScope(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidGeohash))
				return
			}
			require.NoError(t, err)
			hash, ok := scope.Geohash()
			assert.True(t, ok)
			assert.Equal(t, tc.want, hash)
		})
	}
}

// =============================================================================
// STATE TESTS
// =============================================================================

func TestNewStateStartsOnPublicFeed(t *testing.T) {
	s := NewState("alice", "p-me")

	assert.Equal(t, "alice", s.Nickname())
	assert.Equal(t, "p-me", s.MyPeerID())
	assert.True(t, s.Scope().IsPublic())
	assert.False(t, s.IsGuardian())
}

func TestSetScopeReplacesSelection(t *testing.T) {
	s := NewState("alice", "p-me")

	s.SetScope(ChannelScope("#general"))
	s.SetScope(PrivateScope("p1"))

	_, inChannel := s.Scope().Channel()
	assert.False(t, inChannel)
	peer, inPrivate := s.Scope().PrivatePeer()
	assert.True(t, inPrivate)
	assert.Equal(t, "p1", peer)
}

func TestGeohashParticipants(t *testing.T) {
	s := NewState("alice", "p-me")

	s.AddGeohashParticipant("u4pruy", "bob#1a2b")
	s.AddGeohashParticipant("u4pruy", "bob#1a2b")
	s.AddGeohashParticipant("u4pruy", "carol#ffee")

	assert.Equal(t, []string{"bob#1a2b", "carol#ffee"}, s.GeohashParticipants("u4pruy"))
	assert.Empty(t, s.GeohashParticipants("9q8yy"))

	s.RemoveGeohashParticipant("u4pruy", "bob#1a2b")
	assert.Equal(t, []string{"carol#ffee"}, s.GeohashParticipants("u4pruy"))
}

func TestVersionChangesOnMutation(t *testing.T) {
	s := NewState("alice", "p-me")
	v0 := s.Version()

	s.SetGuardian(true)
	assert.Greater(t, s.Version(), v0)
}

func TestStateConcurrentAccess(t *testing.T) {
	s := NewState("alice", "p-me")
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.SetScope(ChannelScope("#x"))
			s.SetGuardian(true)
		}()
		go func() {
			defer wg.Done()
			_ = s.Scope()
			_ = s.IsGuardian()
		}()
	}
	wg.Wait()
}
