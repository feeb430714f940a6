// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package privatechat

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
	"github.com/jeranaias/meshline-tui/internal/storage"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Directory resolves between peer IDs and nicknames.
type Directory interface {
	NicknameOf(peerID string) (string, bool)
	PeerIDOf(nickname string) (string, bool)
}

// Timeline receives private messages and notices.
type Timeline interface {
	Append(msg model.Message)
	AppendTo(scope session.Scope, msg model.Message)
}

// ScopeSelector switches the active chat scope.
type ScopeSelector interface {
	SetScope(scope session.Scope)
}

// BlockList persists blocked peers. *storage.DB satisfies it.
type BlockList interface {
	Block(nickname, peerID string) error
	Unblock(nickname string) error
	ListBlocked() ([]storage.BlockedPeer, error)
}

// Config holds the collaborators of a Manager. State, BlockList and Logger are optional.
type Config struct {
	Directory Directory
	Timeline  Timeline
	State     ScopeSelector
	BlockList BlockList
	Logger    *slog.Logger
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager tracks private chat sessions and the block list.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]time.Time // peerID -> opened at
	blocked  map[string]string    // nickname -> peerID

	directory Directory
	timeline  Timeline
	state     ScopeSelector
	blockList BlockList
	logger    *slog.Logger
}

// NewManager creates a manager and loads the persisted block list.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Directory == nil {
		return nil, errors.New("privatechat: directory is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		sessions:  make(map[string]time.Time),
		blocked:   make(map[string]string),
		directory: cfg.Directory,
		timeline:  cfg.Timeline,
		state:     cfg.State,
		blockList: cfg.BlockList,
		logger:    logger.With("component", "privatechat"),
	}

	if m.blockList != nil {
		peers, err := m.blockList.ListBlocked()
		if err != nil {
			return nil, fmt.Errorf("load block list: %w", err)
		}
		for _, p := range peers {
			m.blocked[p.Nickname] = p.PeerID
		}
	}

	return m, nil
}

// Start opens (or reattaches to) a session with peerID and selects it.
// Returns false if the peer is blocked.
func (m *Manager) Start(peerID string) bool {
	if m.IsBlocked(peerID) {
		m.notice(fmt.Sprintf("cannot start chat with %s: user is blocked.", m.display(peerID)))
		return false
	}

	m.mu.Lock()
	if _, ok := m.sessions[peerID]; !ok {
		m.sessions[peerID] = time.Now()
		m.logger.Debug("session opened", "peer", peerID)
	}
	m.mu.Unlock()

	if m.state != nil {
		m.state.SetScope(session.PrivateScope(peerID))
	}
	return true
}

// End closes the session with peerID. History stays in the timeline.
func (m *Manager) End(peerID string) {
	m.mu.Lock()
	delete(m.sessions, peerID)
	m.mu.Unlock()
}

// Sessions returns the peer IDs with an open session, sorted.
func (m *Manager) Sessions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Send echoes content into the private timeline with peerID and hands it to onSent
// together with the generated message ID.
func (m *Manager) Send(content, peerID, recipientNickname, myNickname, myPeerID string,
	onSent func(content, peerID, recipientNickname, messageID string)) {
	if m.IsBlocked(peerID) {
		m.notice(fmt.Sprintf("cannot send message to %s: user is blocked.", recipientNickname))
		return
	}

	msg := model.NewMessage(myNickname, content)
	msg.IsPrivate = true
	msg.RecipientNickname = recipientNickname
	msg.SenderPeerID = myPeerID

	if m.timeline != nil {
		m.timeline.AppendTo(session.PrivateScope(peerID), msg)
	}
	if onSent != nil {
		onSent(content, peerID, recipientNickname, msg.ID)
	}
}

// Receive records an inbound private message. Messages from blocked peers are dropped.
func (m *Manager) Receive(fromPeerID, content, messageID string) bool {
	if m.IsBlocked(fromPeerID) {
		m.logger.Debug("dropped message from blocked peer", "peer", fromPeerID)
		return false
	}

	msg := model.NewMessage(m.display(fromPeerID), content)
	if messageID != "" {
		msg.ID = messageID
	}
	msg.IsPrivate = true
	msg.SenderPeerID = fromPeerID

	m.mu.Lock()
	if _, ok := m.sessions[fromPeerID]; !ok {
		m.sessions[fromPeerID] = time.Now()
	}
	m.mu.Unlock()

	if m.timeline != nil {
		m.timeline.AppendTo(session.PrivateScope(fromPeerID), msg)
	}
	return true
}

// =============================================================================
// BLOCK LIST
// =============================================================================

// IsBlocked reports whether peerID is on the block list.
func (m *Manager) IsBlocked(peerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.blocked {
		if id == peerID {
			return true
		}
	}
	return false
}

// BlockByNickname blocks the peer currently using name and closes any session with it.
func (m *Manager) BlockByNickname(name string) {
	peerID, ok := m.directory.PeerIDOf(name)
	if !ok {
		m.notice(fmt.Sprintf("user '%s' not found", name))
		return
	}

	if m.blockList != nil {
		if err := m.blockList.Block(name, peerID); err != nil {
			m.logger.Warn("persist block failed", "nickname", name, "error", err)
		}
	}

	m.mu.Lock()
	m.blocked[name] = peerID
	delete(m.sessions, peerID)
	m.mu.Unlock()

	m.logger.Info("peer blocked", "nickname", name, "peer", peerID)
	m.notice(fmt.Sprintf("blocked user %s", name))
}

// UnblockByNickname removes name from the block list.
func (m *Manager) UnblockByNickname(name string) {
	m.mu.Lock()
	_, ok := m.blocked[name]
	delete(m.blocked, name)
	m.mu.Unlock()

	if !ok {
		m.notice(fmt.Sprintf("user '%s' is not blocked", name))
		return
	}

	if m.blockList != nil {
		if err := m.blockList.Unblock(name); err != nil && !errors.Is(err, storage.ErrNotFound) {
			m.logger.Warn("persist unblock failed", "nickname", name, "error", err)
		}
	}

	m.logger.Info("peer unblocked", "nickname", name)
	m.notice(fmt.Sprintf("unblocked user %s", name))
}

// ListBlocked returns a one-line summary of the block list.
func (m *Manager) ListBlocked() string {
	m.mu.Lock()
	names := make([]string, 0, len(m.blocked))
	for name := range m.blocked {
		names = append(names, name)
	}
	m.mu.Unlock()

	if len(names) == 0 {
		return "no blocked users"
	}
	sort.Strings(names)
	return "blocked users: " + strings.Join(names, ", ")
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Manager) display(peerID string) string {
	if nick, ok := m.directory.NicknameOf(peerID); ok && nick != "" {
		return nick
	}
	return peerID
}

func (m *Manager) notice(text string) {
	if m.timeline != nil {
		m.timeline.Append(model.NewSystemNotice(text))
	}
}
