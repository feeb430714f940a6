// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mesh

import (
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// PEER DIRECTORY
// =============================================================================

// PeerNickname is one entry of the peer-id to nickname mapping.
type PeerNickname struct {
	PeerID   string
	Nickname string
}

// Directory maps peer IDs to nicknames and tracks which peers are connected.
type Directory struct {
	mu        sync.RWMutex
	nicknames map[string]string
	connected map[string]bool
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		nicknames: make(map[string]string),
		connected: make(map[string]bool),
	}
}

// Upsert records a peer's nickname and marks it connected.
// Nicknames are stored NFC-normalized so visually identical names compare equal.
func (d *Directory) Upsert(peerID, nickname string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nicknames[peerID] = norm.NFC.String(nickname)
	d.connected[peerID] = true
}

// Disconnect marks a peer as gone but keeps its nickname for display.
func (d *Directory) Disconnect(peerID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.connected, peerID)
}

// NicknameOf returns the nickname for peerID.
func (d *Directory) NicknameOf(peerID string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	nick, ok := d.nicknames[peerID]
	return nick, ok
}

// PeerIDOf returns the first peer (in peer-id order) whose nickname equals nickname exactly.
func (d *Directory) PeerIDOf(nickname string) (string, bool) {
	for _, entry := range d.Nicknames() {
		if entry.Nickname == norm.NFC.String(nickname) {
			return entry.PeerID, true
		}
	}
	return "", false
}

// Nicknames returns the peer-id to nickname mapping ordered by peer ID.
func (d *Directory) Nicknames() []PeerNickname {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]PeerNickname, 0, len(d.nicknames))
	for id, nick := range d.nicknames {
		out = append(out, PeerNickname{PeerID: id, Nickname: nick})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeerID < out[j].PeerID })
	return out
}

// ConnectedPeerIDs returns the connected peers ordered by peer ID.
func (d *Directory) ConnectedPeerIDs() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.connected))
	for id := range d.connected {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
