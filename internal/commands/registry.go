// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// CommandDefinition describes one slash command.
type CommandDefinition struct {
	// Name is the primary command name (e.g., "/j")
	Name string

	// Aliases are alternative names (e.g., "/join")
	Aliases []string

	// ArgumentHint shows argument syntax (e.g., "<channel>"). Empty if none.
	ArgumentHint string

	// Description is shown next to suggestions
	Description string
}

// Usage renders the definition as "/name hint".
func (d CommandDefinition) Usage() string {
	if d.ArgumentHint == "" {
		return d.Name
	}
	return d.Name + " " + d.ArgumentHint
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Vocabulary is the read-only side of a Registry.
type Vocabulary interface {
	Lookup(verb string) (CommandDefinition, bool)
	Definitions() []CommandDefinition
}

// Registry holds the command vocabulary in registration order.
type Registry struct {
	ordered  []CommandDefinition
	commands map[string]int // lower-cased name -> index
	aliases  map[string]int // lower-cased alias -> index
}

// NewRegistry creates a registry holding the built-in commands.
func NewRegistry() *Registry {
	r := newEmptyRegistry()
	for _, def := range builtinCommands() {
		if err := r.Register(def); err != nil {
			panic(fmt.Sprintf("commands: builtin registry: %v", err))
		}
	}
	return r
}

func newEmptyRegistry() *Registry {
	return &Registry{
		commands: make(map[string]int),
		aliases:  make(map[string]int),
	}
}

// Register adds a command. Names and aliases must not collide with any
// existing name or alias.
func (r *Registry) Register(def CommandDefinition) error {
	if !strings.HasPrefix(def.Name, "/") {
		return fmt.Errorf("command %q must start with /", def.Name)
	}

	keys := append([]string{def.Name}, def.Aliases...)
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		k := strings.ToLower(key)
		if seen[k] {
			return fmt.Errorf("command %s lists %s twice", def.Name, key)
		}
		seen[k] = true
		if _, ok := r.commands[k]; ok {
			return fmt.Errorf("%s conflicts with an existing command", key)
		}
		if _, ok := r.aliases[k]; ok {
			return fmt.Errorf("%s conflicts with an existing alias", key)
		}
	}

	idx := len(r.ordered)
	r.ordered = append(r.ordered, def)
	r.commands[strings.ToLower(def.Name)] = idx
	for _, alias := range def.Aliases {
		r.aliases[strings.ToLower(alias)] = idx
	}
	return nil
}

// Lookup finds a command by primary name first, then by alias. Case-insensitive.
func (r *Registry) Lookup(verb string) (CommandDefinition, bool) {
	key := strings.ToLower(verb)
	if idx, ok := r.commands[key]; ok {
		return r.ordered[idx], true
	}
	if idx, ok := r.aliases[key]; ok {
		return r.ordered[idx], true
	}
	return CommandDefinition{}, false
}

// Definitions returns every command in registration order.
func (r *Registry) Definitions() []CommandDefinition {
	out := make([]CommandDefinition, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// frozenRegistry hides Register from callers outside the processor.
type frozenRegistry struct{ r *Registry }

func (f frozenRegistry) Lookup(verb string) (CommandDefinition, bool) { return f.r.Lookup(verb) }
func (f frozenRegistry) Definitions() []CommandDefinition             { return f.r.Definitions() }

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func builtinCommands() []CommandDefinition {
	return []CommandDefinition{
		{Name: "/block", ArgumentHint: "[nickname]", Description: "block or list blocked peers"},
		{Name: "/channels", Description: "show all discovered channels"},
		{Name: "/clear", Description: "clear chat messages"},
		{Name: "/hug", ArgumentHint: "<nickname>", Description: "send someone a warm hug"},
		{Name: "/j", Aliases: []string{"/join"}, ArgumentHint: "<channel>", Description: "join or create a channel"},
		{Name: "/m", Aliases: []string{"/msg"}, ArgumentHint: "<nickname> [message]", Description: "send private message"},
		{Name: "/pass", ArgumentHint: "<password>", Description: "set the password of your channel"},
		{Name: "/slap", ArgumentHint: "<nickname>", Description: "slap someone with a trout"},
		{Name: "/unblock", ArgumentHint: "<nickname>", Description: "unblock a peer"},
		{Name: "/w", Description: "see who's online"},
		{Name: "/role", Aliases: []string{"/r"}, ArgumentHint: "<guardian|civilian>", Description: "set your node role"},
		{Name: "/sos", ArgumentHint: "<flood|food|medical|fire|rubble>", Description: "send EMERGENCY priority signal"},
		{Name: "/wipe", Description: "IMMEDIATELY WIPE ALL DATA"},
	}
}
