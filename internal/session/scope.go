// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcloughlin/geohash"
)

// ErrInvalidGeohash is returned when a location scope is not a valid geohash.
var ErrInvalidGeohash = errors.New("invalid geohash")

// =============================================================================
// SCOPE TYPE
// =============================================================================

// ScopeKind identifies which chat target is active.
type ScopeKind int

const (
	ScopePublic   ScopeKind = iota // Mesh-wide public feed
	ScopeChannel                   // Named channel, ID is "#name"
	ScopePrivate                   // Private chat, ID is the peer ID
	ScopeLocation                  // Location channel, ID is the geohash
)

// String returns the string representation of the kind.
func (k ScopeKind) String() string {
	switch k {
	case ScopePublic:
		return "public"
	case ScopeChannel:
		return "channel"
	case ScopePrivate:
		return "private"
	case ScopeLocation:
		return "location"
	default:
		return "unknown"
	}
}

// Scope is the currently selected chat context. Exactly one kind is active.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// PublicScope returns the public feed scope.
func PublicScope() Scope {
	return Scope{Kind: ScopePublic}
}

// ChannelScope returns the scope for a named channel.
func ChannelScope(channel string) Scope {
	return Scope{Kind: ScopeChannel, ID: channel}
}

// PrivateScope returns the scope for a private chat with peerID.
func PrivateScope(peerID string) Scope {
	return Scope{Kind: ScopePrivate, ID: peerID}
}

// LocationScope returns the scope for a geohash location channel.
func LocationScope(hash string) (Scope, error) {
	hash = strings.ToLower(strings.TrimSpace(hash))
	if hash == "" {
		return Scope{}, fmt.Errorf("%w: empty", ErrInvalidGeohash)
	}
	if err := geohash.Validate(hash); err != nil {
		return Scope{}, fmt.Errorf("%w: %q: %v", ErrInvalidGeohash, hash, err)
	}
	return Scope{Kind: ScopeLocation, ID: hash}, nil
}

// IsPublic reports whether the public feed is selected.
func (s Scope) IsPublic() bool { return s.Kind == ScopePublic }

// Channel returns the channel name if a channel is selected.
func (s Scope) Channel() (string, bool) {
	return s.ID, s.Kind == ScopeChannel
}

// PrivatePeer returns the peer ID if a private chat is selected.
func (s Scope) PrivatePeer() (string, bool) {
	return s.ID, s.Kind == ScopePrivate
}

// Geohash returns the geohash if a location channel is selected.
func (s Scope) Geohash() (string, bool) {
	return s.ID, s.Kind == ScopeLocation
}

// Key returns a stable identifier usable as a map key.
func (s Scope) Key() string {
	if s.Kind == ScopePublic {
		return s.Kind.String()
	}
	return s.Kind.String() + ":" + s.ID
}

func (s Scope) String() string {
	switch s.Kind {
	case ScopePublic:
		return "public"
	case ScopePrivate:
		return "@" + s.ID
	default:
		return s.ID
	}
}
