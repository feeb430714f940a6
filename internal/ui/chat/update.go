// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles Bubble Tea messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.client.Changes())

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	suggester := m.client.Suggester()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		line := m.input.Value()
		m.input.Reset()
		m.updateSuggestions()
		m.client.Submit(line)
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		if completed, ok := suggester.Complete(m.input.Value()); ok {
			m.input.SetValue(completed)
			m.input.CursorEnd()
		}
		m.updateSuggestions()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		// Selecting nothing hides both panels
		suggester.UpdateCommandSuggestions("")
		suggester.UpdateMentionSuggestions("")
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.updateSuggestions()
	return m, cmd
}

// updateSuggestions recomputes both suggestion sets from the input line.
func (m *Model) updateSuggestions() {
	suggester := m.client.Suggester()
	value := m.input.Value()
	suggester.UpdateCommandSuggestions(value)
	suggester.UpdateMentionSuggestions(value)
	m.layout()
}
