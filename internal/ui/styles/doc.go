// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the color palette and lipgloss styles of the chat screen.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection.

# Palette (colors.go)

  - Cyan - brand, own nickname, commands
  - Purple - channel scope
  - Emerald - mentions, private chats
  - Amber - system notices
  - Rose - SOS alerts

# Theme (theme.go)

	theme := styles.NewTheme()
	if theme.IsDark {
		// Dark terminal detected
	}

GlamourStyle picks the markdown style used to render SOS alerts.
*/
package styles
