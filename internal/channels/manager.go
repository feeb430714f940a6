// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package channels manages named, optionally password-protected chat channels.
package channels

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
	"github.com/jeranaias/meshline-tui/internal/storage"
)

const (
	keyIterations = 100_000
	keyLength     = 32
	saltLength    = 16
)

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrUnknown       = errors.New("unknown channel")
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Timeline receives channel messages and notices.
type Timeline interface {
	Append(msg model.Message)
	AppendTo(scope session.Scope, msg model.Message)
}

// ScopeSelector switches the active chat scope.
type ScopeSelector interface {
	Scope() session.Scope
	SetScope(scope session.Scope)
}

// Persister stores channel metadata across restarts. *storage.DB satisfies it.
type Persister interface {
	SaveChannel(rec storage.ChannelRecord) error
	LoadChannels() ([]storage.ChannelRecord, error)
	DeleteChannel(name string) error
}

// =============================================================================
// MANAGER
// =============================================================================

type channel struct {
	name    string
	creator string
	keyHash []byte
	salt    []byte
	joined  bool
	members map[string]struct{}
}

func (c *channel) protected() bool {
	return len(c.keyHash) > 0
}

func (c *channel) record() storage.ChannelRecord {
	return storage.ChannelRecord{
		Name:      c.name,
		CreatorID: c.creator,
		KeyHash:   c.keyHash,
		Salt:      c.salt,
		Joined:    c.joined,
	}
}

// Config holds the collaborators of a Manager. Persister and Logger are optional.
type Config struct {
	Timeline  Timeline
	State     ScopeSelector
	Persister Persister
	Logger    *slog.Logger
}

// Manager tracks known channels, their creators and passwords.
type Manager struct {
	mu       sync.Mutex
	channels map[string]*channel

	timeline  Timeline
	state     ScopeSelector
	persister Persister
	logger    *slog.Logger
}

// NewManager creates a manager and loads persisted channels.
func NewManager(cfg Config) (*Manager, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		channels:  make(map[string]*channel),
		timeline:  cfg.Timeline,
		state:     cfg.State,
		persister: cfg.Persister,
		logger:    logger.With("component", "channels"),
	}

	if m.persister != nil {
		recs, err := m.persister.LoadChannels()
		if err != nil {
			return nil, fmt.Errorf("load channels: %w", err)
		}
		for _, rec := range recs {
			m.channels[rec.Name] = &channel{
				name:    rec.Name,
				creator: rec.CreatorID,
				keyHash: rec.KeyHash,
				salt:    rec.Salt,
				joined:  rec.Joined,
				members: make(map[string]struct{}),
			}
		}
	}

	return m, nil
}

// Normalize returns name with a leading '#'.
func Normalize(name string) string {
	if strings.HasPrefix(name, "#") {
		return name
	}
	return "#" + name
}

// Join joins or creates a channel and selects it.
// An empty password means none. Returns false if the channel rejects the caller.
func (m *Manager) Join(name, password, callerID string) bool {
	name = Normalize(name)

	m.mu.Lock()
	ch, exists := m.channels[name]
	if exists {
		if err := ch.verify(password); err != nil {
			m.mu.Unlock()
			m.logger.Warn("join rejected", "channel", name, "error", err)
			if password == "" {
				m.notice(fmt.Sprintf("channel %s is password protected. use /join %s <password>", name, name))
			} else {
				m.notice(fmt.Sprintf("wrong password for channel %s.", name))
			}
			return false
		}
	} else {
		ch = &channel{
			name:    name,
			creator: callerID,
			members: make(map[string]struct{}),
		}
		if password != "" {
			ch.setPassword(password)
		}
		m.channels[name] = ch
		m.logger.Info("channel created", "channel", name, "protected", ch.protected())
	}
	ch.joined = true
	ch.members[callerID] = struct{}{}
	rec := ch.record()
	m.mu.Unlock()

	m.persist(rec)
	if m.state != nil {
		m.state.SetScope(session.ChannelScope(name))
	}
	return true
}

// Leave forgets a joined channel, including its creator and password, and
// returns to the public feed if it was selected. Joining again starts over.
func (m *Manager) Leave(name string) error {
	name = Normalize(name)

	m.mu.Lock()
	ch, ok := m.channels[name]
	if !ok || !ch.joined {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	delete(m.channels, name)
	m.mu.Unlock()

	if m.persister != nil {
		if err := m.persister.DeleteChannel(name); err != nil {
			m.logger.Warn("channel not deleted", "channel", name, "error", err)
		}
	}
	if m.state != nil {
		if current, inChannel := m.state.Scope().Channel(); inChannel && current == name {
			m.state.SetScope(session.PublicScope())
		}
	}
	return nil
}

// IsCreator reports whether peerID created the channel.
func (m *Manager) IsCreator(name, peerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[Normalize(name)]
	return ok && ch.creator == peerID
}

// SetPassword replaces the channel password. An empty password removes protection.
func (m *Manager) SetPassword(name, password string) {
	name = Normalize(name)

	m.mu.Lock()
	ch, ok := m.channels[name]
	if !ok {
		m.mu.Unlock()
		m.logger.Warn("set password on unknown channel", "channel", name)
		return
	}
	if password == "" {
		ch.keyHash, ch.salt = nil, nil
	} else {
		ch.setPassword(password)
	}
	rec := ch.record()
	m.mu.Unlock()

	m.persist(rec)
}

// IsProtected reports whether the channel requires a password.
func (m *Manager) IsProtected(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[Normalize(name)]
	return ok && ch.protected()
}

// ListJoined returns joined channel names in sorted order.
func (m *Manager) ListJoined() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for name, ch := range m.channels {
		if ch.joined {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// AppendMessage adds msg to the channel timeline and records senderID as a member.
func (m *Manager) AppendMessage(name string, msg model.Message, senderID string) {
	name = Normalize(name)

	if senderID != "" {
		m.mu.Lock()
		if ch, ok := m.channels[name]; ok {
			ch.members[senderID] = struct{}{}
		}
		m.mu.Unlock()
	}

	if m.timeline != nil {
		m.timeline.AppendTo(session.ChannelScope(name), msg)
	}
}

// Members returns the peer IDs seen in a channel, sorted.
func (m *Manager) Members(name string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[Normalize(name)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(ch.members))
	for id := range ch.members {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Manager) notice(text string) {
	if m.timeline != nil {
		m.timeline.Append(model.NewSystemNotice(text))
	}
}

func (m *Manager) persist(rec storage.ChannelRecord) {
	if m.persister == nil {
		return
	}
	if err := m.persister.SaveChannel(rec); err != nil {
		m.logger.Warn("persist channel failed", "channel", rec.Name, "error", err)
	}
}

func (c *channel) setPassword(password string) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("channels: read random salt: %v", err))
	}
	c.salt = salt
	c.keyHash = deriveKey(password, salt)
}

func (c *channel) verify(password string) error {
	if !c.protected() {
		return nil
	}
	if password == "" {
		return ErrWrongPassword
	}
	if subtle.ConstantTimeCompare(deriveKey(password, c.salt), c.keyHash) != 1 {
		return ErrWrongPassword
	}
	return nil
}

// deriveKey stretches a channel password into a fixed-size key.
func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, keyIterations, keyLength, sha256.New)
}
