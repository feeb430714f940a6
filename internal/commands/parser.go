// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// Invocation is one parsed command line.
type Invocation struct {
	// Verb is the lower-cased first token, including the slash
	Verb string

	// Args are the remaining tokens in order. Splitting is on single spaces,
	// so repeated spaces produce empty arguments.
	Args []string
}

// Arg returns the i-th argument or "".
func (inv Invocation) Arg(i int) string {
	if i < 0 || i >= len(inv.Args) {
		return ""
	}
	return inv.Args[i]
}

// Rest joins the arguments from index i on with single spaces.
func (inv Invocation) Rest(i int) string {
	if i >= len(inv.Args) {
		return ""
	}
	return strings.Join(inv.Args[i:], " ")
}

// Parse splits a slash command. ok is false if text is not a command.
func Parse(text string) (inv Invocation, ok bool) {
	if !IsCommand(text) {
		return Invocation{}, false
	}
	parts := strings.Split(text, " ")
	return Invocation{
		Verb: strings.ToLower(parts[0]),
		Args: parts[1:],
	}, true
}

// IsCommand returns true if the input is a slash command.
func IsCommand(input string) bool {
	return strings.HasPrefix(input, "/")
}

// ExtractCommandName extracts the first whitespace-delimited token of a command.
// e.g., "/join #mesh" -> "/join"
func ExtractCommandName(input string) string {
	if !IsCommand(input) {
		return ""
	}
	end := strings.IndexFunc(input, unicode.IsSpace)
	if end == -1 {
		return input
	}
	return input[:end]
}

// stripMention removes one leading '@' from a nickname argument.
func stripMention(name string) string {
	return strings.TrimPrefix(name, "@")
}
