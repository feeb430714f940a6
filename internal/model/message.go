// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
package model

import (
	"time"

	"github.com/google/uuid"
)

// SystemSender is the sender name carried by every locally generated notice.
const SystemSender = "system"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single chat line in one of the timelines.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// IsRelay is true for messages that arrived through another peer.
	IsRelay bool `json:"is_relay"`

	// Routing information
	SenderPeerID      string   `json:"sender_peer_id,omitempty"`
	Channel           string   `json:"channel,omitempty"`
	IsPrivate         bool     `json:"is_private,omitempty"`
	RecipientNickname string   `json:"recipient_nickname,omitempty"`
	Mentions          []string `json:"mentions,omitempty"`

	// IsEmergency marks SOS broadcasts so hosts can render them prominently.
	IsEmergency bool `json:"is_emergency,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(sender, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewSystemNotice creates an ephemeral, non-relayed notice for the local user.
func NewSystemNotice(content string) Message {
	return NewMessage(SystemSender, content)
}

// IsSystem reports whether the message was generated locally as a notice.
func (m Message) IsSystem() bool {
	return m.Sender == SystemSender
}
