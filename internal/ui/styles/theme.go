// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components of the chat screen.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderScope lipgloss.Style
	HeaderInfo  lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	Timestamp    lipgloss.Style
	OwnNick      lipgloss.Style
	PeerNick     lipgloss.Style
	MessageBody  lipgloss.Style
	Mention      lipgloss.Style
	SystemNotice lipgloss.Style
	Emergency    lipgloss.Style

	// ==========================================================================
	// INPUT & SUGGESTIONS
	// ==========================================================================

	InputPrompt      lipgloss.Style
	Suggestions      lipgloss.Style
	SuggestionName   lipgloss.Style
	SuggestionHint   lipgloss.Style
	SuggestionDetail lipgloss.Style
	Help             lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()
	return newTheme(colorProfile, termenv.HasDarkBackground())
}

// NewPlainTheme creates a theme without terminal detection. Used by tests
// and when output is not a terminal.
func NewPlainTheme() *Theme {
	return newTheme(termenv.Ascii, true)
}

func newTheme(profile termenv.Profile, isDark bool) *Theme {
	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

// GlamourStyle names the glamour standard style matching the terminal.
func (t *Theme) GlamourStyle() string {
	switch {
	case t.ColorProfile == termenv.Ascii:
		return "notty"
	case t.IsDark:
		return "dark"
	default:
		return "light"
	}
}

func (t *Theme) initStyles() {
	// Header
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.HeaderScope = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.HeaderInfo = lipgloss.NewStyle().
		Foreground(TextSecondary)

	// Messages
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.OwnNick = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.PeerNick = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.MessageBody = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Mention = lipgloss.NewStyle().Bold(true).Foreground(Emerald)

	t.SystemNotice = lipgloss.NewStyle().
		Italic(true).
		Foreground(Amber)

	t.Emergency = lipgloss.NewStyle().
		BorderStyle(lipgloss.ThickBorder()).
		BorderForeground(Rose).
		Padding(0, 1)

	// Input & suggestions
	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(Cyan)

	t.Suggestions = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SuggestionName = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.SuggestionHint = lipgloss.NewStyle().Foreground(TextSecondary)
	t.SuggestionDetail = lipgloss.NewStyle().Foreground(TextMuted)

	t.Help = lipgloss.NewStyle().Foreground(TextMuted)
}
