// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mesh provides the peer directory and the transports that carry chat traffic.
//
// The directory maps peer IDs to nicknames and tracks which peers are currently
// reachable. Transports are fire-and-forget: callers never block on delivery.
//
// Two transports are available:
//
//   - LoopbackTransport keeps outbound frames in memory. It is used offline and in tests.
//   - RelayTransport exchanges JSON frames with a websocket relay. SOS frames are
//     written ahead of ordinary traffic and are not rate limited.
package mesh
