// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat context the UI selects and the interpreter reads.
package session

import (
	"sync"
)

// =============================================================================
// STATE
// =============================================================================

// State tracks the selected chat scope and the local identity.
// It is mutated by the UI layer and read by the command interpreter.
type State struct {
	mu sync.RWMutex

	// Identity
	nickname string
	myPeerID string

	// Selection
	scope Scope

	// Node role
	guardian bool

	// Geohash participants by display name, e.g. "alice#1a2b"
	participants map[string][]string

	// version increments on every mutation so hosts can re-render
	version uint64
}

// NewState creates a state on the public feed.
func NewState(nickname, myPeerID string) *State {
	return &State{
		nickname:     nickname,
		myPeerID:     myPeerID,
		scope:        PublicScope(),
		participants: make(map[string][]string),
	}
}

// Nickname returns the local nickname.
func (s *State) Nickname() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nickname
}

// SetNickname changes the local nickname.
func (s *State) SetNickname(nickname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nickname = nickname
	s.version++
}

// MyPeerID returns the local peer identifier.
func (s *State) MyPeerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.myPeerID
}

// Scope returns the selected chat scope.
func (s *State) Scope() Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scope
}

// SetScope selects a scope. The previous selection is cleared.
func (s *State) SetScope(scope Scope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scope = scope
	s.version++
}

// IsGuardian reports whether guardian mode is enabled.
func (s *State) IsGuardian() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.guardian
}

// SetGuardian enables or disables guardian mode.
func (s *State) SetGuardian(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guardian = on
	s.version++
}

// GeohashParticipants returns the display names seen in a location channel.
func (s *State) GeohashParticipants(hash string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	people := s.participants[hash]
	out := make([]string, len(people))
	copy(out, people)
	return out
}

// AddGeohashParticipant records a display name in a location channel.
// Duplicates are ignored.
func (s *State) AddGeohashParticipant(hash, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.participants[hash] {
		if existing == displayName {
			return
		}
	}
	s.participants[hash] = append(s.participants[hash], displayName)
	s.version++
}

// RemoveGeohashParticipant forgets a display name in a location channel.
func (s *State) RemoveGeohashParticipant(hash, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	people := s.participants[hash]
	for i, existing := range people {
		if existing == displayName {
			s.participants[hash] = append(people[:i], people[i+1:]...)
			s.version++
			return
		}
	}
}

// Version returns a counter that changes whenever the state changes.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
