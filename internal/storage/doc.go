// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides message timelines and the local database.
//
// MessageStore keeps bounded in-memory timelines for the public feed, each
// channel or location channel, and recent private chats. DB persists channel
// metadata and the block list in SQLite under the data directory.
//
// # Usage
//
//	store, _ := storage.NewMessageStore(storage.StoreConfig{})
//	store.Append(model.NewSystemNotice("hello"))
//
//	db, err := storage.OpenDB(filepath.Join(dataDir, storage.DatabaseFile))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
package storage
