// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package channels manages named, optionally password-protected chat channels.
//
// The first peer to join a channel becomes its creator. Only the creator may
// change the password. Passwords are never stored; a PBKDF2-SHA256 key with a
// random salt is kept instead and compared in constant time.
package channels
