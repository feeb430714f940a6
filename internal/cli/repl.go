// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/meshline-tui/internal/client"
)

// LineReader reads one line of input. liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// LineEditor provides input history and tab completion for the REPL.
type LineEditor struct {
	line        *liner.State
	historyFile string
	discard     bool
}

// NewLineEditor creates a liner-backed editor. Tab cycles through the
// completion candidates produced by complete.
func NewLineEditor(historyDir string, complete func(string) []string) *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabCircular)
	line.SetCompleter(complete)

	e := &LineEditor{
		line:        line,
		historyFile: filepath.Join(historyDir, "history"),
	}
	e.loadHistory()
	return e
}

func (e *LineEditor) loadHistory() {
	if f, err := os.Open(e.historyFile); err == nil {
		_, _ = e.line.ReadHistory(f)
		f.Close()
	}
}

// Prompt reads a line and appends non-empty input to the history.
func (e *LineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Discard drops the in-memory history so Close does not write it back.
// Used after local state has been erased.
func (e *LineEditor) Discard() {
	e.discard = true
	e.line.ClearHistory()
}

// Close persists the history (0600) unless discarded, and restores the terminal.
func (e *LineEditor) Close() error {
	if e.discard {
		return e.line.Close()
	}
	if err := os.MkdirAll(filepath.Dir(e.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = e.line.WriteHistory(f)
			f.Close()
		}
	}
	return e.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the line-mode chat host.
type REPL struct {
	client  *client.Client
	input   LineReader
	printer *Printer
	logger  *slog.Logger
}

// NewREPL creates a line-mode host reading from input and printing through printer.
func NewREPL(c *client.Client, input LineReader, printer *Printer, logger *slog.Logger) *REPL {
	if logger == nil {
		logger = slog.Default()
	}
	return &REPL{
		client:  c,
		input:   input,
		printer: printer,
		logger:  logger.With("component", "repl"),
	}
}

// isQuit reports whether line asks the host to exit.
func isQuit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case ":q", ":quit", ":exit":
		return true
	}
	return false
}

// Run reads lines until EOF, Ctrl+C, ":q" or ctx is done. Messages arriving
// in the background are printed as they come in.
func (r *REPL) Run(ctx context.Context, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	defer func() {
		cancel()
		<-done
	}()

	fmt.Fprintf(out, "meshline: type a message, /command or %s. :q quits.\n", client.DirectiveHelp)
	r.flush()

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.client.Changes():
				r.flush()
			}
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.input.Prompt(r.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if isQuit(line) {
			return nil
		}

		r.client.Submit(line)
		r.flush()
	}
}

func (r *REPL) prompt() string {
	return r.client.ScopeLabel() + "> "
}

func (r *REPL) flush() {
	r.printer.Flush(r.client.Timeline(), r.client.State().Nickname())
}
