// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jeranaias/meshline-tui/internal/channels"
	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
)

// =============================================================================
// SCOPE DIRECTIVES
// =============================================================================

// DirectiveKind identifies a host scope switch.
type DirectiveKind int

const (
	DirectivePublic   DirectiveKind = iota // :pub
	DirectiveChannel                       // :ch <name>
	DirectivePrivate                       // :pm <nick>
	DirectiveLocation                      // :geo <geohash>
	DirectiveLeave                         // :leave [channel]
)

// Directive is a parsed scope switch. Directives are handled by the host,
// never by the command interpreter.
type Directive struct {
	Kind   DirectiveKind
	Target string
}

var directiveVerbs = map[string]DirectiveKind{
	":pub":   DirectivePublic,
	":ch":    DirectiveChannel,
	":pm":    DirectivePrivate,
	":geo":   DirectiveLocation,
	":leave": DirectiveLeave,
}

// DirectiveHelp lists the directives for host help output.
const DirectiveHelp = ":pub  :ch <channel>  :pm <nickname>  :geo <geohash>  :leave [channel]"

// ParseDirective recognizes ":pub", ":ch", ":pm", ":geo" and ":leave". Any other line,
// including other text starting with ':', is not a directive.
func ParseDirective(line string) (Directive, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Directive{}, false
	}
	kind, ok := directiveVerbs[strings.ToLower(fields[0])]
	if !ok {
		return Directive{}, false
	}
	d := Directive{Kind: kind}
	if len(fields) > 1 {
		d.Target = fields[1]
	}
	return d, true
}

// applyDirective switches scope. Problems are reported as system notices.
func (c *Client) applyDirective(d Directive) {
	if d.Kind != DirectivePublic && d.Kind != DirectiveLeave && d.Target == "" {
		c.notice("usage: " + DirectiveHelp)
		return
	}

	switch d.Kind {
	case DirectivePublic:
		c.state.SetScope(session.PublicScope())

	case DirectiveChannel:
		name := channels.Normalize(d.Target)
		if !slices.Contains(c.channels.ListJoined(), name) {
			c.notice(fmt.Sprintf("you have not joined %s. use /join %s", name, name))
			return
		}
		c.state.SetScope(session.ChannelScope(name))

	case DirectivePrivate:
		nick := strings.TrimPrefix(d.Target, "@")
		peerID, ok := c.directory.PeerIDOf(nick)
		if !ok {
			c.notice(fmt.Sprintf("user '%s' not found. they may be offline or using a different nickname.", nick))
			return
		}
		// Start selects the private scope and reports blocked peers itself
		if !c.privateChat.Start(peerID) {
			return
		}

	case DirectiveLocation:
		scope, err := session.LocationScope(d.Target)
		if err != nil {
			c.logger.Debug("location rejected", "geohash", d.Target, "error", err)
			c.notice(fmt.Sprintf("invalid geohash '%s'", d.Target))
			return
		}
		c.state.SetScope(scope)
		c.state.AddGeohashParticipant(scope.ID, participantName(c.state.Nickname(), c.state.MyPeerID()))
		c.transport.Announce(scope.ID)

	case DirectiveLeave:
		c.leave(d.Target)
	}

	c.logger.Debug("scope selected", "scope", c.state.Scope().String())
}

// leave forgets the named channel, or without a name closes the active
// channel or private chat.
func (c *Client) leave(target string) {
	scope := c.state.Scope()
	if target == "" {
		if peerID, ok := scope.PrivatePeer(); ok {
			c.privateChat.End(peerID)
			c.state.SetScope(session.PublicScope())
			c.notice("closed private chat with " + c.ScopeLabelOf(scope))
			return
		}
		name, ok := scope.Channel()
		if !ok {
			c.notice("nothing to leave here. usage: :leave <channel>")
			return
		}
		target = name
	}

	name := channels.Normalize(target)
	if err := c.channels.Leave(name); err != nil {
		c.notice(fmt.Sprintf("you have not joined %s", name))
		return
	}
	c.notice("left " + name)
}

func (c *Client) notice(text string) {
	c.store.Append(model.NewSystemNotice(text))
}
