// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestNewWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	logger.Debug("hidden")
	logger.With("component", "commands").Info("dispatched", "verb", "/join")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec))
	assert.Equal(t, "dispatched", rec["msg"])
	assert.Equal(t, "commands", rec["component"])
	assert.Equal(t, "meshline", rec["app"])
	assert.Equal(t, "/join", rec["verb"])
}

func TestNewToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "meshline.log")
	logger, closer, err := New(Options{Path: path, Format: "text"})
	require.NoError(t, err)

	logger.Warn("careful")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "careful")
	assert.Contains(t, string(data), "level=WARN")
}
