// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// Schema is the SQLite schema for channel metadata and the block list.
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Channels the local node created or joined
CREATE TABLE IF NOT EXISTS channels (
    name TEXT PRIMARY KEY,
    creator_id TEXT NOT NULL,
    key_hash BLOB,              -- PBKDF2 derived key, NULL when unprotected
    salt BLOB,
    joined INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL -- Unix timestamp
) WITHOUT ROWID;

-- Peers the local user refuses to talk to
CREATE TABLE IF NOT EXISTS blocked_peers (
    nickname TEXT PRIMARY KEY,
    peer_id TEXT NOT NULL,
    blocked_at INTEGER NOT NULL -- Unix timestamp
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_blocked_peer_id ON blocked_peers(peer_id);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
`
