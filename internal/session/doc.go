// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the chat context selected by the UI.
//
// # Key Types
//
//   - Scope: the active chat target (public, channel, private, location)
//   - State: identity, selected scope, node role and geohash participants
//
// # Usage
//
// Select a location channel:
//
//	scope, err := session.LocationScope("u4pruy")
//	if err != nil {
//	    return err
//	}
//	state.SetScope(scope)
//
// Only one scope is active at a time; selecting one replaces the previous.
package session
