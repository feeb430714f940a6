// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed   = errors.New("database closed")
	ErrNotFound = errors.New("not found")
)

// DatabaseFile is the file name of the local database inside the data dir.
const DatabaseFile = "meshline.db"

// =============================================================================
// RECORD TYPES
// =============================================================================

// ChannelRecord is the persisted state of a channel.
type ChannelRecord struct {
	Name      string
	CreatorID string
	KeyHash   []byte // nil when the channel has no password
	Salt      []byte
	Joined    bool
}

// BlockedPeer is a persisted block list entry.
type BlockedPeer struct {
	Nickname  string
	PeerID    string
	BlockedAt time.Time
}

// =============================================================================
// DATABASE
// =============================================================================

// DB is the local SQLite database holding channel metadata and the block list.
type DB struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// OpenDB opens (or creates) the database at path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &DB{db: db, path: path}, nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database. It is safe to call more than once.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// conn returns the open handle or ErrClosed. Caller must hold d.mu.
func (d *DB) conn() (*sql.DB, error) {
	if d.db == nil {
		return nil, ErrClosed
	}
	return d.db, nil
}

// =============================================================================
// IDENTITY
// =============================================================================

// LocalPeerID returns the peer id stored in metadata. On first use it stores
// generate() and returns that, so the id survives restarts until the data dir is wiped.
func (d *DB) LocalPeerID(generate func() string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.conn()
	if err != nil {
		return "", err
	}

	if _, err := db.Exec(`INSERT OR IGNORE INTO metadata (key, value) VALUES ('peer_id', ?)`, generate()); err != nil {
		return "", fmt.Errorf("store peer id: %w", err)
	}
	var id string
	if err := db.QueryRow(`SELECT value FROM metadata WHERE key = 'peer_id'`).Scan(&id); err != nil {
		return "", fmt.Errorf("load peer id: %w", err)
	}
	return id, nil
}

// =============================================================================
// CHANNELS
// =============================================================================

// SaveChannel inserts or replaces a channel record.
func (d *DB) SaveChannel(rec ChannelRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.conn()
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO channels (name, creator_id, key_hash, salt, joined, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			creator_id = excluded.creator_id,
			key_hash = excluded.key_hash,
			salt = excluded.salt,
			joined = excluded.joined,
			updated_at = excluded.updated_at`,
		rec.Name, rec.CreatorID, rec.KeyHash, rec.Salt, boolToInt(rec.Joined), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save channel %s: %w", rec.Name, err)
	}
	return nil
}

// LoadChannels returns every persisted channel ordered by name.
func (d *DB) LoadChannels() ([]ChannelRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT name, creator_id, key_hash, salt, joined FROM channels ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	defer rows.Close()

	var out []ChannelRecord
	for rows.Next() {
		var rec ChannelRecord
		var joined int
		if err := rows.Scan(&rec.Name, &rec.CreatorID, &rec.KeyHash, &rec.Salt, &joined); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		rec.Joined = joined != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

// DeleteChannel removes a channel record.
func (d *DB) DeleteChannel(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.conn()
	if err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM channels WHERE name = ?`, name); err != nil {
		return fmt.Errorf("delete channel %s: %w", name, err)
	}
	return nil
}

// =============================================================================
// BLOCK LIST
// =============================================================================

// Block adds a peer to the block list.
func (d *DB) Block(nickname, peerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.conn()
	if err != nil {
		return err
	}
	_, err = db.Exec(`
		INSERT INTO blocked_peers (nickname, peer_id, blocked_at) VALUES (?, ?, ?)
		ON CONFLICT(nickname) DO UPDATE SET peer_id = excluded.peer_id`,
		nickname, peerID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("block %s: %w", nickname, err)
	}
	return nil
}

// Unblock removes a nickname from the block list.
// Returns ErrNotFound if it was not blocked.
func (d *DB) Unblock(nickname string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec(`DELETE FROM blocked_peers WHERE nickname = ?`, nickname)
	if err != nil {
		return fmt.Errorf("unblock %s: %w", nickname, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBlocked returns the block list ordered by nickname.
func (d *DB) ListBlocked() ([]BlockedPeer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	db, err := d.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`SELECT nickname, peer_id, blocked_at FROM blocked_peers ORDER BY nickname`)
	if err != nil {
		return nil, fmt.Errorf("list blocked: %w", err)
	}
	defer rows.Close()

	var out []BlockedPeer
	for rows.Next() {
		var p BlockedPeer
		var ts int64
		if err := rows.Scan(&p.Nickname, &p.PeerID, &ts); err != nil {
			return nil, fmt.Errorf("scan blocked peer: %w", err)
		}
		p.BlockedAt = time.Unix(ts, 0)
		out = append(out, p)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
