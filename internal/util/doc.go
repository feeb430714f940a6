// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the hosts and the config layer.
//
// String Utilities (display-width aware, via go-runewidth):
//   - TruncateWidth, StringWidth, PadRight, WrapWidth
//
// File Operations:
//   - AtomicWriteFileWithDir: Crash-safe file writing with fsync
package util
