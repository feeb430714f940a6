// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"sync"
)

// =============================================================================
// SUGGESTION SETS
// =============================================================================

// CommandSuggestions is the command list currently offered to the user.
type CommandSuggestions struct {
	Items   []CommandDefinition
	Visible bool
}

// MentionSuggestions is the nickname list currently offered after an '@'.
type MentionSuggestions struct {
	Items   []string
	Visible bool
}

// =============================================================================
// SUGGESTER
// =============================================================================

// Suggester computes command and @mention suggestions as the user types.
// Each update replaces the previous set wholesale.
type Suggester struct {
	registry  Vocabulary
	directory Directory

	mu       sync.Mutex
	commands CommandSuggestions
	mentions MentionSuggestions
}

// NewSuggester creates a suggester over a command vocabulary and the peer directory.
func NewSuggester(registry Vocabulary, directory Directory) *Suggester {
	return &Suggester{registry: registry, directory: directory}
}

// UpdateCommandSuggestions offers every command whose name starts with the
// first token of input. Input that is not a command hides the list.
func (s *Suggester) UpdateCommandSuggestions(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !IsCommand(input) {
		s.commands.Visible = false
		return
	}

	token := strings.Split(input, " ")[0]
	var items []CommandDefinition
	for _, def := range s.registry.Definitions() {
		if hasPrefixFold(def.Name, token) {
			items = append(items, def)
		}
	}
	s.commands = CommandSuggestions{Items: items, Visible: len(items) > 0}
}

// UpdateMentionSuggestions offers connected peers whose nickname starts with
// the text after the last '@'.
func (s *Suggester) UpdateMentionSuggestions(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lastAt := strings.LastIndex(input, "@")
	if lastAt == -1 {
		s.mentions.Visible = false
		return
	}

	query := input[lastAt+1:]
	var items []string
	for _, peerID := range s.directory.ConnectedPeerIDs() {
		nick := displayName(s.directory, peerID)
		if hasPrefixFold(nick, query) {
			items = append(items, nick)
		}
	}
	s.mentions = MentionSuggestions{Items: items, Visible: len(items) > 0}
}

// SelectCommandSuggestion hides the list and returns the new input text.
func (s *Suggester) SelectCommandSuggestion(def CommandDefinition) string {
	s.mu.Lock()
	s.commands.Visible = false
	s.mu.Unlock()
	return def.Name
}

// SelectMentionSuggestion hides the list and returns currentText with the
// partial mention replaced by "@nickname ".
func (s *Suggester) SelectMentionSuggestion(nickname, currentText string) string {
	s.mu.Lock()
	s.mentions.Visible = false
	s.mu.Unlock()

	lastAt := strings.LastIndex(currentText, "@")
	if lastAt == -1 {
		return nickname
	}
	return currentText[:lastAt+1] + nickname + " "
}

// Commands returns the current command suggestions.
func (s *Suggester) Commands() CommandSuggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.commands
	out.Items = append([]CommandDefinition(nil), s.commands.Items...)
	return out
}

// Mentions returns the current mention suggestions.
func (s *Suggester) Mentions() MentionSuggestions {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.mentions
	out.Items = append([]string(nil), s.mentions.Items...)
	return out
}

// Complete updates both sets for input and applies the first visible
// suggestion, mentions first. ok is false if nothing was offered.
func (s *Suggester) Complete(input string) (string, bool) {
	s.UpdateMentionSuggestions(input)
	if m := s.Mentions(); m.Visible {
		return s.SelectMentionSuggestion(m.Items[0], input), true
	}
	s.UpdateCommandSuggestions(input)
	if c := s.Commands(); c.Visible && !strings.Contains(input, " ") {
		return s.SelectCommandSuggestion(c.Items[0]) + " ", true
	}
	return input, false
}

// Candidates lists every completion of input: full lines for commands or
// mentions, suitable for line editors that cycle through alternatives.
func (s *Suggester) Candidates(input string) []string {
	s.UpdateMentionSuggestions(input)
	if m := s.Mentions(); m.Visible {
		prefix := input[:strings.LastIndex(input, "@")+1]
		out := make([]string, 0, len(m.Items))
		for _, nick := range m.Items {
			out = append(out, prefix+nick+" ")
		}
		return out
	}

	s.UpdateCommandSuggestions(input)
	if c := s.Commands(); c.Visible && !strings.Contains(input, " ") {
		out := make([]string, 0, len(c.Items))
		for _, def := range c.Items {
			out = append(out, def.Name+" ")
		}
		return out
	}
	return nil
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
