// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the websocket relay that meshline clients dial.
//
// The relay is deliberately dumb: it forwards every frame a peer sends to
// every other connected peer, except private frames, which only reach the
// addressed peer. It never stores messages.
//
// # Endpoints
//
//   - GET /ws     - websocket upgrade, one connection per peer
//   - GET /health - liveness check
//   - GET /stats  - connected peers and relayed frame counters
//
// # Middleware
//
//   - Panic recovery with stack trace logging
//   - Request logging through slog
//   - Per-IP connection rate limiting
//
// # Usage
//
//	srv := server.New(server.Config{Addr: ":8787"}, logger)
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
