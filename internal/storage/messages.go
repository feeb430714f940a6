// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides message timelines and the local database.
package storage

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
)

const (
	// DefaultMaxMessagesPerScope bounds each timeline.
	DefaultMaxMessagesPerScope = 1337

	// DefaultMaxPrivateScopes bounds how many private chats keep history.
	DefaultMaxPrivateScopes = 64
)

// =============================================================================
// TIMELINE
// =============================================================================

// timeline is a bounded, append-only list of messages. Oldest are evicted first.
type timeline struct {
	messages []model.Message
	limit    int
}

func newTimeline(limit int) *timeline {
	return &timeline{limit: limit}
}

func (t *timeline) append(msg model.Message) {
	t.messages = append(t.messages, msg)
	if t.limit > 0 && len(t.messages) > t.limit {
		excess := len(t.messages) - t.limit
		t.messages = append(t.messages[:0:0], t.messages[excess:]...)
	}
}

func (t *timeline) snapshot() []model.Message {
	out := make([]model.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// =============================================================================
// MESSAGE STORE
// =============================================================================

// MessageStore keeps in-memory timelines keyed by scope.
// Private chat timelines live in an LRU so idle conversations are dropped first.
type MessageStore struct {
	mu sync.Mutex

	maxPerScope int
	public      *timeline
	scoped      map[string]*timeline // channel and location timelines
	private     *lru.Cache[string, *timeline]

	// onChange is called after every mutation, outside the lock.
	onChange func(session.Scope)
}

// StoreConfig configures a MessageStore.
type StoreConfig struct {
	// MaxMessagesPerScope bounds each timeline (0 = default)
	MaxMessagesPerScope int

	// MaxPrivateScopes bounds the number of private timelines (0 = default)
	MaxPrivateScopes int
}

// NewMessageStore creates an empty store.
func NewMessageStore(cfg StoreConfig) (*MessageStore, error) {
	if cfg.MaxMessagesPerScope <= 0 {
		cfg.MaxMessagesPerScope = DefaultMaxMessagesPerScope
	}
	if cfg.MaxPrivateScopes <= 0 {
		cfg.MaxPrivateScopes = DefaultMaxPrivateScopes
	}

	private, err := lru.New[string, *timeline](cfg.MaxPrivateScopes)
	if err != nil {
		return nil, err
	}

	return &MessageStore{
		maxPerScope: cfg.MaxMessagesPerScope,
		public:      newTimeline(cfg.MaxMessagesPerScope),
		scoped:      make(map[string]*timeline),
		private:     private,
	}, nil
}

// OnChange registers a callback invoked after each mutation.
func (s *MessageStore) OnChange(fn func(session.Scope)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Append adds a message to the public feed.
func (s *MessageStore) Append(msg model.Message) {
	s.AppendTo(session.PublicScope(), msg)
}

// AppendTo adds a message to the timeline of scope.
func (s *MessageStore) AppendTo(scope session.Scope, msg model.Message) {
	s.mu.Lock()
	s.timelineFor(scope, true).append(msg)
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(scope)
	}
}

// Clear empties the public feed.
func (s *MessageStore) Clear() {
	s.ClearFor(session.PublicScope())
}

// ClearFor empties the timeline of scope.
func (s *MessageStore) ClearFor(scope session.Scope) {
	s.mu.Lock()
	if scope.Kind == session.ScopePublic {
		s.public = newTimeline(s.maxPerScope)
	} else if scope.Kind == session.ScopePrivate {
		s.private.Remove(scope.ID)
	} else {
		delete(s.scoped, scope.Key())
	}
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(scope)
	}
}

// Messages returns a copy of the timeline for scope.
func (s *MessageStore) Messages(scope session.Scope) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.timelineFor(scope, false)
	if t == nil {
		return nil
	}
	return t.snapshot()
}

// Reset drops every timeline.
func (s *MessageStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.public = newTimeline(s.maxPerScope)
	s.scoped = make(map[string]*timeline)
	s.private.Purge()
}

// timelineFor returns the timeline for scope, creating it when create is set.
// Caller must hold s.mu.
func (s *MessageStore) timelineFor(scope session.Scope, create bool) *timeline {
	switch scope.Kind {
	case session.ScopePublic:
		return s.public
	case session.ScopePrivate:
		if t, ok := s.private.Get(scope.ID); ok {
			return t
		}
		if !create {
			return nil
		}
		t := newTimeline(s.maxPerScope)
		s.private.Add(scope.ID, t)
		return t
	default:
		key := scope.Key()
		t, ok := s.scoped[key]
		if !ok && create {
			t = newTimeline(s.maxPerScope)
			s.scoped[key] = t
		}
		return t
	}
}
