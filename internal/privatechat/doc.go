// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package privatechat manages one-to-one chat sessions and the local block list.
//
// Blocking is keyed by nickname, since that is what the user types, but enforced
// by peer ID. The block list survives restarts when a BlockList is configured.
package privatechat
