// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
//
// # Key Types
//
//   - Message: a chat line with sender, content, timestamp and routing info
//   - EmergencyPayload: structured body of an SOS broadcast
//
// # Usage
//
// Create a system notice:
//
//	notice := model.NewSystemNotice("joined channel #general")
//	store.Append(notice)
package model
