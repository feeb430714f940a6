// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package host implements the process-level actions the chat client can trigger:
// emergency data erasure, termination and battery level reporting.
package host

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/jeranaias/meshline-tui/internal/model"
)

// DefaultPowerSupplyDir is where Linux exposes battery state.
const DefaultPowerSupplyDir = "/sys/class/power_supply"

// Resetter clears in-memory state. *storage.MessageStore satisfies it.
type Resetter interface {
	Reset()
}

// Lifecycle erases local state and ends the process.
type Lifecycle struct {
	// DataDir is removed entirely by EraseAllLocalState
	DataDir string

	// ExtraPaths are removed along with DataDir, e.g. a log file kept elsewhere
	ExtraPaths []string

	// Store is reset before the data dir is removed
	Store Resetter

	// DB is closed before the data dir is removed
	DB interface{ Close() error }

	// Exit terminates the process (default: os.Exit)
	Exit func(code int)

	// PowerSupplyDir overrides DefaultPowerSupplyDir
	PowerSupplyDir string

	// Logger is optional
	Logger *slog.Logger

	erased atomic.Bool
}

// Erased reports whether EraseAllLocalState has run. Callers holding
// state that would be flushed on shutdown check it and drop that state.
func (l *Lifecycle) Erased() bool {
	return l.erased.Load()
}

func (l *Lifecycle) logger() *slog.Logger {
	if l.Logger == nil {
		return slog.Default().With("component", "host")
	}
	return l.Logger.With("component", "host")
}

// EraseAllLocalState closes the database, resets the in-memory timelines and
// removes the data directory and any extra paths. Every step runs even if an earlier one fails.
func (l *Lifecycle) EraseAllLocalState() error {
	log := l.logger()
	log.Warn("erasing all local state", "data_dir", l.DataDir)
	l.erased.Store(true)

	var errs []error
	if l.DB != nil {
		if err := l.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if l.Store != nil {
		l.Store.Reset()
	}
	if l.DataDir != "" {
		if err := os.RemoveAll(l.DataDir); err != nil {
			errs = append(errs, fmt.Errorf("remove data dir: %w", err))
		}
	}
	for _, path := range l.ExtraPaths {
		if path == "" {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		log.Error("erase incomplete", "error", err)
	}
	return err
}

// TerminateProcess exits with status 0.
func (l *Lifecycle) TerminateProcess() {
	l.logger().Warn("terminating process")
	if l.Exit != nil {
		l.Exit(0)
		return
	}
	os.Exit(0)
}

// ReadBatteryPercent returns the charge of the first battery found, or
// model.BatteryUnknown if none can be read.
func (l *Lifecycle) ReadBatteryPercent() int {
	dir := l.PowerSupplyDir
	if dir == "" {
		dir = DefaultPowerSupplyDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return model.BatteryUnknown
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		supply := filepath.Join(dir, name)
		kind, err := os.ReadFile(filepath.Join(supply, "type"))
		if err != nil || strings.TrimSpace(string(kind)) != "Battery" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(supply, "capacity"))
		if err != nil {
			continue
		}
		pct, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil || pct < 0 || pct > 100 {
			continue
		}
		return pct
	}
	return model.BatteryUnknown
}
