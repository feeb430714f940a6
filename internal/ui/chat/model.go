// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/meshline-tui/internal/client"
	"github.com/jeranaias/meshline-tui/internal/ui/styles"
)

// Layout rows reserved around the viewport: header (text + border),
// input line, footer help.
const (
	headerHeight = 2
	inputHeight  = 1
	footerHeight = 1
)

// changedMsg is delivered when the client reports new content.
type changedMsg struct{}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	client *client.Client
	theme  *styles.Theme
	keys   KeyMap
	logger *slog.Logger

	input    textinput.Model
	viewport viewport.Model
	markdown *glamour.TermRenderer

	width  int
	height int
	ready  bool
}

// New creates the chat screen for c.
func New(c *client.Client, theme *styles.Theme, logger *slog.Logger) Model {
	if theme == nil {
		theme = styles.NewTheme()
	}
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = "message, /command or :pub :ch :pm :geo"
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)
	vp.SetContent("")

	return Model{
		client:   c,
		theme:    theme,
		keys:     DefaultKeyMap(),
		logger:   logger.With("component", "tui"),
		input:    ti,
		viewport: vp,
	}
}

// Init starts the cursor blink and the change listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForChange(m.client.Changes()))
}

// waitForChange blocks until the client signals a change.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// Input returns the current input line.
func (m Model) Input() string {
	return m.input.Value()
}

// handleResize lays the screen out for a new terminal size.
func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height

	m.viewport.Width = max(m.width, 1)
	m.layout()
	m.input.Width = max(m.width-len(m.input.Prompt)-1, 10)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.theme.GlamourStyle()),
		glamour.WithWordWrap(max(m.width-4, 20)),
	)
	if err != nil {
		m.logger.Warn("markdown renderer unavailable", "error", err)
	} else {
		m.markdown = renderer
	}

	m.ready = true
	m.refresh()
	return m
}

// layout sizes the viewport around the header, suggestion panel and input.
func (m *Model) layout() {
	vpHeight := m.height - headerHeight - inputHeight - footerHeight - m.suggestionHeight()
	m.viewport.Height = max(vpHeight, 1)
}

// refresh re-renders the timeline into the viewport and keeps it pinned to the bottom.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTimeline())
	m.viewport.GotoBottom()
}
