// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the interactive chat screen built on Bubble Tea.

# Layout

  - Header: active scope, nickname, node role and online peer count
  - Viewport: timeline of the active scope, SOS alerts rendered as markdown
  - Suggestions: command or @mention candidates for the current input
  - Input line and key hints

# Input

Every keystroke recomputes the command and mention suggestions. Tab applies
the first visible suggestion. Enter hands the line to client.Submit, which
applies scope directives, runs slash commands or sends chat text.

# Usage

	m := chat.New(c, styles.NewTheme(), logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
*/
package chat
