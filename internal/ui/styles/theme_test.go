// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestPlainTheme(t *testing.T) {
	theme := NewPlainTheme()

	assert.Equal(t, termenv.Ascii, theme.ColorProfile)
	assert.False(t, theme.HasTrueColor)
	assert.Equal(t, "notty", theme.GlamourStyle())
}

func TestGlamourStyle(t *testing.T) {
	tests := []struct {
		profile termenv.Profile
		dark    bool
		want    string
	}{
		{termenv.Ascii, true, "notty"},
		{termenv.TrueColor, true, "dark"},
		{termenv.ANSI256, false, "light"},
	}

	for _, tc := range tests {
		theme := newTheme(tc.profile, tc.dark)
		assert.Equal(t, tc.want, theme.GlamourStyle())
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewPlainTheme()

	assert.Contains(t, theme.SystemNotice.Render("joined channel #ops"), "joined channel #ops")
	assert.Contains(t, theme.OwnNick.Render("me"), "me")
	assert.Contains(t, theme.Emergency.Render("SOS"), "SOS")
}
