// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the line-mode chat host used when the terminal cannot
// run the full-screen TUI (or with --plain).
//
// # Key Types
//
//   - LineEditor: liner-backed input with history and tab completion
//   - Printer: prints each timeline message once, with optional colors
//   - REPL: reads lines and hands them to client.Submit
//
// # Usage
//
//	editor := cli.NewLineEditor(configDir, c.Suggester().Candidates)
//	defer editor.Close()
//	printer := cli.NewPrinter(os.Stdout, cli.GetColorProfile(), cli.GetTerminalWidth())
//	err := cli.NewREPL(c, editor, printer, logger).Run(ctx, os.Stdout)
package cli
