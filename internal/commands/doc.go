// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands interprets slash commands typed into the chat input.
//
// The Processor looks the verb up in the Registry (name first, then alias,
// case-insensitively) and runs exactly one handler. Handlers never return
// errors: usage problems, unknown nicknames and missing permissions all end
// up as a system notice in the message store.
//
// # Key Types
//
//   - Registry: ordered command vocabulary with aliases and argument hints
//   - Processor: parser, dispatcher and handlers
//   - Suggester: command-prefix and @mention-prefix suggestions
//
// # Built-in Commands
//
//   - /j (/join), /pass, /channels: channels
//   - /m (/msg), /w, /block, /unblock: peers
//   - /hug, /slap: actions, routed like chat text
//   - /clear, /role (/r): local state
//   - /sos, /wipe: emergency
//
// # Usage
//
//	p := commands.NewProcessor(commands.Config{...})
//	caller := commands.Caller{PeerID: myID, Send: transport.Send}
//	if !p.ProcessCommand(line, caller) {
//	    p.SendText(line, caller)
//	}
package commands
