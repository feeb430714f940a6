// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshline-tui/internal/config"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "meshline "+Version)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	for _, name := range []string{"MESHLINE_NICKNAME", "MESHLINE_RELAY_URL", "MESHLINE_LOG_LEVEL", "MESHLINE_PLAIN", "MESHLINE_DATA_DIR"} {
		t.Setenv(name, "")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[identity]\nnickname = \"fromfile\"\n[storage]\ndata_dir = \""+filepath.ToSlash(dir)+"\"\n"), 0600))

	cfg, gotPath, err := loadConfig(flags{configPath: path, nickname: "fromflag", plain: true, logLevel: "debug"})
	require.NoError(t, err)
	assert.Equal(t, path, gotPath)
	assert.Equal(t, "fromflag", cfg.Identity.Nickname)
	assert.Equal(t, "plain", cfg.UI.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigRejectsBadRelay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0600))

	_, _, err := loadConfig(flags{configPath: path, relayURL: "http://example.com"})
	assert.Error(t, err)
}

func TestLoadConfigRelayFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[relay]\nlisten = \"0.0.0.0:9000\"\n"), 0600))

	cfg, _, err := loadConfig(flags{configPath: path})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Relay.Listen)

	cfg, _, err = loadConfig(flags{configPath: path, listen: "127.0.0.1:9100", connectLimit: 3})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Relay.Listen)
	assert.Equal(t, 3, cfg.Relay.ConnectLimit)
}

func TestRelayCommandRegistered(t *testing.T) {
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"relay"})
	require.NoError(t, err)
	assert.Equal(t, "relay", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("listen"))
	assert.NotNil(t, cmd.InheritedFlags().Lookup("config"))
}

func TestWipeExtraPaths(t *testing.T) {
	data := filepath.Join(t.TempDir(), "data")
	tests := []struct {
		name    string
		logFile string
		want    []string
	}{
		{"default log inside data dir", "", nil},
		{"stderr only", "-", nil},
		{"log beside data dir", filepath.Join(data+"-logs", "meshline.log"), []string{filepath.Join(data+"-logs", "meshline.log")}},
		{"log elsewhere", "/var/tmp/meshline.log", []string{"/var/tmp/meshline.log"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Storage.DataDir = data
			cfg.Log.File = tt.logFile
			assert.Equal(t, tt.want, wipeExtraPaths(cfg))
		})
	}
}

func TestNewPeerID(t *testing.T) {
	a, b := newPeerID(), newPeerID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}

func TestPipeReader(t *testing.T) {
	r := newPipeReader(strings.NewReader("/join ops\r\nhello\n"))

	line, err := r.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "/join ops", line)

	line, err = r.Prompt("> ")
	require.NoError(t, err)
	assert.Equal(t, "hello", line)

	_, err = r.Prompt("> ")
	assert.ErrorIs(t, err, io.EOF)
}
