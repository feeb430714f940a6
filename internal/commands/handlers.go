// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"strings"

	"github.com/jeranaias/meshline-tui/internal/session"
)

func defaultHandlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		"/block":    handleBlock,
		"/channels": handleChannels,
		"/clear":    handleClear,
		"/hug":      actionHandler("gives", "a warm hug 🫂"),
		"/j":        handleJoin,
		"/m":        handleMessage,
		"/pass":     handlePass,
		"/slap":     actionHandler("slaps", "around a bit with a large trout 🐟"),
		"/unblock":  handleUnblock,
		"/w":        handleWho,
		"/role":     handleRole,
		"/sos":      handleSOS,
		"/wipe":     handleWipe,
	}
}

// =============================================================================
// CHANNELS
// =============================================================================

func handleJoin(p *Processor, req Request) {
	if len(req.Args) == 0 {
		p.notice("usage: /join <channel>")
		return
	}

	channel := req.Args[0]
	if !strings.HasPrefix(channel, "#") {
		channel = "#" + channel
	}
	password := req.Arg(1)

	// A rejected join is reported by the channel manager itself
	if p.channels.Join(channel, password, req.Caller.PeerID) {
		p.notice("joined channel " + channel)
	}
}

func handlePass(p *Processor, req Request) {
	channel, ok := req.Scope.Channel()
	if !ok {
		p.notice("you must be in a channel to set a password.")
		return
	}

	if len(req.Args) != 1 {
		p.channelNotice(channel, "usage: /pass <password>")
		return
	}
	if !p.channels.IsCreator(channel, req.Caller.PeerID) {
		p.channelNotice(channel, "you must be the channel creator to set a password.")
		return
	}

	p.channels.SetPassword(channel, req.Args[0])
	p.logger.Info("channel password changed", "channel", channel)
	p.channelNotice(channel, "password changed for channel "+channel)
}

func handleChannels(p *Processor, req Request) {
	joined := strings.Join(p.channels.ListJoined(), ", ")
	if joined == "" {
		p.notice("no channels discovered")
		return
	}
	p.notice("available channels: " + joined)
}

// =============================================================================
// PEERS
// =============================================================================

func handleMessage(p *Processor, req Request) {
	if len(req.Args) == 0 {
		p.notice("usage: /msg <nickname> [message]")
		return
	}

	target := stripMention(req.Args[0])
	peerID, ok := p.resolvePeerID(target)
	if !ok {
		p.notice(fmt.Sprintf("user '%s' not found. they may be offline or using a different nickname.", target))
		return
	}

	if !p.privateChat.Start(peerID) {
		return
	}

	if len(req.Args) > 1 {
		content := req.Rest(1)
		p.privateChat.Send(content, peerID, p.displayName(peerID), p.state.Nickname(), req.Caller.PeerID, p.sendPrivateVia)
		return
	}
	p.notice("started private chat with " + target)
}

func handleWho(p *Processor, req Request) {
	var names []string
	label := "online users"

	if hash, ok := req.Scope.Geohash(); ok {
		label = "participants in " + hash
		self := p.state.Nickname() + "#"
		for _, name := range p.state.GeohashParticipants(hash) {
			if !strings.HasPrefix(name, self) {
				names = append(names, name)
			}
		}
	} else {
		for _, peerID := range p.directory.ConnectedPeerIDs() {
			names = append(names, p.displayName(peerID))
		}
	}

	if len(names) == 0 {
		p.notice("no one else is around right now.")
		return
	}
	p.notice(label + ": " + strings.Join(names, ", "))
}

func handleBlock(p *Processor, req Request) {
	if len(req.Args) == 0 {
		p.notice(p.privateChat.ListBlocked())
		return
	}
	p.privateChat.BlockByNickname(stripMention(req.Args[0]))
}

func handleUnblock(p *Processor, req Request) {
	if len(req.Args) == 0 {
		p.notice("usage: /unblock <nickname>")
		return
	}
	p.privateChat.UnblockByNickname(stripMention(req.Args[0]))
}

// actionHandler builds /hug and /slap: "* <me> <verb> <target> <object> *".
func actionHandler(verb, object string) handlerFunc {
	return func(p *Processor, req Request) {
		if len(req.Args) == 0 {
			// Usage names the alias that was typed
			p.notice(fmt.Sprintf("usage: /%s <nickname>", strings.TrimPrefix(req.Verb, "/")))
			return
		}

		me := p.state.Nickname()
		if me == "" {
			me = "someone"
		}
		target := stripMention(req.Args[0])
		p.route(req, fmt.Sprintf("* %s %s %s %s *", me, verb, target, object), nil)
	}
}

// =============================================================================
// LOCAL STATE
// =============================================================================

func handleClear(p *Processor, req Request) {
	switch req.Scope.Kind {
	case session.ScopePrivate, session.ScopeChannel:
		p.store.ClearFor(req.Scope)
	default:
		p.store.Clear()
	}
}

func handleRole(p *Processor, req Request) {
	if len(req.Args) == 0 {
		role := "Civilian"
		if p.state.IsGuardian() {
			role = "Guardian 🛡️"
		}
		p.notice(fmt.Sprintf("Current Role: %s (usage: /role <guardian|civilian>)", role))
		return
	}

	switch strings.ToLower(req.Args[0]) {
	case "guardian":
		p.state.SetGuardian(true)
		p.notice("🛡️ You are now active as a Guardian Node.")
	case "civilian":
		p.state.SetGuardian(false)
		p.notice("You are now a Civilian Node.")
	default:
		p.notice("usage: /role <guardian|civilian>")
	}
}

func handleWipe(p *Processor, req Request) {
	if p.lifecycle == nil {
		p.notice("Error: Cannot execute wipe (lifecycle not attached)")
		return
	}

	p.notice("⚠️ INITIATING EMERGENCY WIPE Sequence...")
	p.logger.Warn("emergency wipe requested")
	if err := p.lifecycle.EraseAllLocalState(); err != nil {
		p.logger.Error("wipe incomplete", "error", err)
	}
	p.lifecycle.TerminateProcess()
}

// =============================================================================
// UNKNOWN
// =============================================================================

func handleUnknown(p *Processor, req Request) {
	verb := req.Verb

	// A registered verb without a handler is reported without suggestions
	if _, ok := p.registry.Lookup(verb); ok {
		p.notice(fmt.Sprintf("unknown command '%s'", verb))
		return
	}

	var similar []string
	for _, def := range p.registry.Definitions() {
		if strings.HasPrefix(def.Name, verb) {
			similar = append(similar, def.Name)
		}
	}
	if len(similar) > 0 {
		p.notice(fmt.Sprintf("unknown command '%s', did you mean: %s", verb, strings.Join(similar, ", ")))
		return
	}
	p.notice(fmt.Sprintf("unknown command '%s'", verb))
}
