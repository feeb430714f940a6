// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/meshline-tui/internal/util"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete meshline configuration.
type Config struct {
	Identity  IdentityConfig  `toml:"identity" json:"identity"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	Relay     RelayConfig     `toml:"relay" json:"relay"`
	Emergency EmergencyConfig `toml:"emergency" json:"emergency"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Log       LogConfig       `toml:"log" json:"log"`
}

// IdentityConfig is who we are on the mesh.
type IdentityConfig struct {
	Nickname string `toml:"nickname" json:"nickname"`
}

// StorageConfig controls local state.
type StorageConfig struct {
	// DataDir holds the database and log file. Erased by /wipe.
	DataDir string `toml:"data_dir" json:"data_dir"`

	MaxMessagesPerScope int `toml:"max_messages_per_scope" json:"max_messages_per_scope"`
	MaxPrivateScopes    int `toml:"max_private_scopes" json:"max_private_scopes"`
}

// RelayConfig configures the websocket relay. An empty URL keeps the client offline.
type RelayConfig struct {
	URL       string  `toml:"url" json:"url"`
	SendRate  float64 `toml:"send_rate" json:"send_rate"`
	SendBurst int     `toml:"send_burst" json:"send_burst"`

	// Listen and ConnectLimit only apply to `meshline relay`
	Listen       string `toml:"listen" json:"listen"`
	ConnectLimit int    `toml:"connect_limit" json:"connect_limit"`
}

// EmergencyConfig configures SOS broadcasts.
type EmergencyConfig struct {
	// Location is included in every SOS payload
	Location string `toml:"location" json:"location"`
}

// UIConfig selects the interactive host.
type UIConfig struct {
	// Mode is "tui" or "plain"
	Mode string `toml:"mode" json:"mode"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `toml:"level" json:"level"`

	// File is the log destination. Empty means <data_dir>/meshline.log, "-" means stderr.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

const (
	DefaultLocation  = "[12.9716° N, 77.5946° E]"
	DefaultSendRate  = 5.0
	DefaultSendBurst = 10

	DefaultRelayListen       = "127.0.0.1:8787"
	DefaultRelayConnectLimit = 30 // per IP per minute
)

// Default returns a Config with sensible default values.
func Default() *Config {
	dataDir := ""
	if dir, err := ConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "data")
	}

	return &Config{
		Identity: IdentityConfig{
			Nickname: "",
		},
		Storage: StorageConfig{
			DataDir:             dataDir,
			MaxMessagesPerScope: 1337,
			MaxPrivateScopes:    64,
		},
		Relay: RelayConfig{
			SendRate:     DefaultSendRate,
			SendBurst:    DefaultSendBurst,
			Listen:       DefaultRelayListen,
			ConnectLimit: DefaultRelayConnectLimit,
		},
		Emergency: EmergencyConfig{
			Location: DefaultLocation,
		},
		UI: UIConfig{
			Mode: "tui",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the meshline configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".meshline"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default location.
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file.
// Files ending in .json are decoded as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes the configuration to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# meshline configuration file")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e ValidateErrors) Unwrap() error {
	return ErrInvalidConfig
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.ContainsAny(c.Identity.Nickname, " \t\n") {
		errs = append(errs, ValidationError{
			Field:   "identity.nickname",
			Message: "must not contain whitespace",
		})
	}

	if c.Storage.MaxMessagesPerScope < 1 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_messages_per_scope",
			Message: fmt.Sprintf("must be positive, got %d", c.Storage.MaxMessagesPerScope),
		})
	}
	if c.Storage.MaxPrivateScopes < 1 {
		errs = append(errs, ValidationError{
			Field:   "storage.max_private_scopes",
			Message: fmt.Sprintf("must be positive, got %d", c.Storage.MaxPrivateScopes),
		})
	}

	if c.Relay.URL != "" {
		u, err := url.Parse(c.Relay.URL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "relay.url",
				Message: fmt.Sprintf("invalid relay URL '%s', must be ws:// or wss://", c.Relay.URL),
			})
		}
	}
	if c.Relay.SendRate <= 0 {
		errs = append(errs, ValidationError{
			Field:   "relay.send_rate",
			Message: "must be positive",
		})
	}
	if c.Relay.ConnectLimit < 0 {
		errs = append(errs, ValidationError{
			Field:   "relay.connect_limit",
			Message: "must not be negative",
		})
	}
	if c.Relay.SendBurst < 1 {
		errs = append(errs, ValidationError{
			Field:   "relay.send_burst",
			Message: "must be at least 1",
		})
	}

	validModes := map[string]bool{"tui": true, "plain": true}
	if !validModes[strings.ToLower(c.UI.Mode)] {
		errs = append(errs, ValidationError{
			Field:   "ui.mode",
			Message: fmt.Sprintf("invalid mode '%s', must be one of: tui, plain", c.UI.Mode),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero-value fields with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = defaults.Storage.DataDir
	}
	if c.Storage.MaxMessagesPerScope == 0 {
		c.Storage.MaxMessagesPerScope = defaults.Storage.MaxMessagesPerScope
	}
	if c.Storage.MaxPrivateScopes == 0 {
		c.Storage.MaxPrivateScopes = defaults.Storage.MaxPrivateScopes
	}
	if c.Relay.SendRate == 0 {
		c.Relay.SendRate = defaults.Relay.SendRate
	}
	if c.Relay.SendBurst == 0 {
		c.Relay.SendBurst = defaults.Relay.SendBurst
	}
	if c.Relay.Listen == "" {
		c.Relay.Listen = defaults.Relay.Listen
	}
	if c.Relay.ConnectLimit == 0 {
		c.Relay.ConnectLimit = defaults.Relay.ConnectLimit
	}
	if c.Emergency.Location == "" {
		c.Emergency.Location = defaults.Emergency.Location
	}
	if c.UI.Mode == "" {
		c.UI.Mode = defaults.UI.Mode
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//   - MESHLINE_NICKNAME: overrides identity.nickname
//   - MESHLINE_DATA_DIR: overrides storage.data_dir
//   - MESHLINE_RELAY_URL: overrides relay.url
//   - MESHLINE_SEND_RATE: overrides relay.send_rate
//   - MESHLINE_LOG_LEVEL: overrides log.level
//   - MESHLINE_PLAIN: "1" or "true" forces ui.mode = "plain"
func (c *Config) ApplyEnvOverrides() {
	if nick := os.Getenv("MESHLINE_NICKNAME"); nick != "" {
		c.Identity.Nickname = nick
	}
	if dir := os.Getenv("MESHLINE_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if relay := os.Getenv("MESHLINE_RELAY_URL"); relay != "" {
		c.Relay.URL = relay
	}
	if rate := os.Getenv("MESHLINE_SEND_RATE"); rate != "" {
		if v, err := strconv.ParseFloat(rate, 64); err == nil {
			c.Relay.SendRate = v
		}
	}
	if level := os.Getenv("MESHLINE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if plain := os.Getenv("MESHLINE_PLAIN"); plain != "" {
		if plain == "1" || strings.ToLower(plain) == "true" {
			c.UI.Mode = "plain"
		}
	}
}

// LogPath resolves where log output should go. Returns "" for stderr.
func (c *Config) LogPath() string {
	switch c.Log.File {
	case "-":
		return ""
	case "":
		return filepath.Join(c.Storage.DataDir, "meshline.log")
	default:
		return c.Log.File
	}
}
