// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/util"
)

// maxSuggestionRows caps the suggestion panel height.
const maxSuggestionRows = 6

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "connecting to mesh..."
	}

	parts := []string{
		m.renderHeader(),
		m.viewport.View(),
	}
	if panel := m.renderSuggestions(); panel != "" {
		parts = append(parts, panel)
	}
	parts = append(parts, m.input.View(), m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// =============================================================================
// HEADER & FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	state := m.client.State()

	role := "civilian"
	if state.IsGuardian() {
		role = "guardian 🛡️"
	}
	nick := state.Nickname()
	if nick == "" {
		nick = "anon"
	}

	left := m.theme.HeaderBrand.Render("meshline") + " " + m.theme.HeaderScope.Render(m.client.ScopeLabel())
	right := m.theme.HeaderInfo.Render(fmt.Sprintf("%s · %s · %s", nick, role, m.client.ScopeDetail()))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(max(m.width, 1)).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderFooter() string {
	var hints []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		hints = append(hints, h.Key+" "+h.Desc)
	}
	return m.theme.Help.Render(util.TruncateWidth(strings.Join(hints, " · "), max(m.width, 10)))
}

// =============================================================================
// TIMELINE
// =============================================================================

func (m Model) renderTimeline() string {
	msgs := m.client.Timeline()
	if len(msgs) == 0 {
		return m.theme.Help.Render("nothing here yet. type /channels, /w or just say hi.")
	}

	me := m.client.State().Nickname()
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, m.renderMessage(msg, me))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderMessage(msg model.Message, me string) string {
	stamp := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))

	if msg.IsSystem() {
		return stamp + " " + m.theme.SystemNotice.Render(m.wrap(msg.Content, 6))
	}
	if msg.IsEmergency {
		return stamp + "\n" + m.theme.Emergency.Render(m.renderMarkdown(msg.Content))
	}

	nickStyle := m.theme.PeerNick
	if msg.Sender == me {
		nickStyle = m.theme.OwnNick
	}
	nick := nickStyle.Render("<" + msg.Sender + ">")

	body := m.wrap(msg.Content, 6+lipgloss.Width(nick)+1)
	body = m.highlightMentions(body, msg.Mentions)
	return stamp + " " + nick + " " + body
}

// renderMarkdown renders SOS alerts; falls back to raw text without a renderer.
func (m Model) renderMarkdown(content string) string {
	if m.markdown == nil {
		return content
	}
	out, err := m.markdown.Render(content)
	if err != nil {
		m.logger.Debug("markdown render failed", "error", err)
		return content
	}
	return strings.Trim(out, "\n")
}

func (m Model) highlightMentions(body string, mentions []string) string {
	for _, nick := range mentions {
		tag := "@" + nick
		body = strings.ReplaceAll(body, tag, m.theme.Mention.Render(tag))
	}
	return body
}

// wrap wraps content to the viewport width minus indent columns.
func (m Model) wrap(content string, indent int) string {
	width := m.viewport.Width - indent
	if width < 10 {
		return content
	}
	lines := util.WrapWidth(content, width)
	return strings.Join(lines, "\n"+strings.Repeat(" ", indent))
}

// =============================================================================
// SUGGESTIONS
// =============================================================================

// suggestionHeight is the number of rows the suggestion panel occupies.
func (m Model) suggestionHeight() int {
	panel := m.renderSuggestions()
	if panel == "" {
		return 0
	}
	return lipgloss.Height(panel)
}

func (m Model) renderSuggestions() string {
	suggester := m.client.Suggester()
	var rows []string

	if mentions := suggester.Mentions(); mentions.Visible {
		for _, nick := range mentions.Items {
			rows = append(rows, m.theme.SuggestionName.Render("@"+nick))
		}
	} else if cmds := suggester.Commands(); cmds.Visible {
		nameWidth := 0
		for _, def := range cmds.Items {
			nameWidth = max(nameWidth, util.StringWidth(def.Name))
		}
		for _, def := range cmds.Items {
			row := m.theme.SuggestionName.Render(util.PadRight(def.Name, nameWidth))
			if def.ArgumentHint != "" {
				row += " " + m.theme.SuggestionHint.Render(def.ArgumentHint)
			}
			if len(def.Aliases) > 0 {
				row += " " + m.theme.SuggestionHint.Render("("+strings.Join(def.Aliases, ", ")+")")
			}
			row += "  " + m.theme.SuggestionDetail.Render(def.Description)
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return ""
	}
	if len(rows) > maxSuggestionRows {
		more := len(rows) - maxSuggestionRows
		rows = append(rows[:maxSuggestionRows], m.theme.SuggestionDetail.Render(fmt.Sprintf("+%d more", more)))
	}
	return m.theme.Suggestions.Render(strings.Join(rows, "\n"))
}
