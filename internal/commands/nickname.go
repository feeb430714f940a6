// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "strings"

// resolvePeerID returns the first peer whose nickname equals nickname exactly.
func (p *Processor) resolvePeerID(nickname string) (string, bool) {
	return p.directory.PeerIDOf(nickname)
}

// displayName returns the nickname of peerID, or peerID itself if unknown.
func (p *Processor) displayName(peerID string) string {
	return displayName(p.directory, peerID)
}

func displayName(dir Directory, peerID string) string {
	if nick, ok := dir.NicknameOf(peerID); ok {
		return nick
	}
	return peerID
}

// extractMentions collects the @nick tokens of a chat line, without the '@'.
func extractMentions(text string) []string {
	var mentions []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(text) {
		if !strings.HasPrefix(word, "@") {
			continue
		}
		nick := strings.TrimRight(strings.TrimPrefix(word, "@"), ".,!?:;")
		if nick == "" || seen[nick] {
			continue
		}
		seen[nick] = true
		mentions = append(mentions, nick)
	}
	return mentions
}
