// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jeranaias/meshline-tui/internal/channels"
	"github.com/jeranaias/meshline-tui/internal/commands"
	"github.com/jeranaias/meshline-tui/internal/mesh"
	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/privatechat"
	"github.com/jeranaias/meshline-tui/internal/session"
	"github.com/jeranaias/meshline-tui/internal/storage"
)

// Config holds everything a Client drives. Logger is optional.
type Config struct {
	State       *session.State
	Store       *storage.MessageStore
	Directory   *mesh.Directory
	Transport   mesh.Transport
	Channels    *channels.Manager
	PrivateChat *privatechat.Manager
	Processor   *commands.Processor
	Suggester   *commands.Suggester
	Logger      *slog.Logger
}

// Client is the host-independent half of the chat front end: it routes
// submitted lines, applies inbound frames and exposes the active timeline.
type Client struct {
	state       *session.State
	store       *storage.MessageStore
	directory   *mesh.Directory
	transport   mesh.Transport
	channels    *channels.Manager
	privateChat *privatechat.Manager
	processor   *commands.Processor
	suggester   *commands.Suggester
	logger      *slog.Logger

	changes chan struct{}
}

// New creates a client and subscribes to store changes.
func New(cfg Config) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		state:       cfg.State,
		store:       cfg.Store,
		directory:   cfg.Directory,
		transport:   cfg.Transport,
		channels:    cfg.Channels,
		privateChat: cfg.PrivateChat,
		processor:   cfg.Processor,
		suggester:   cfg.Suggester,
		logger:      logger.With("component", "client"),
		changes:     make(chan struct{}, 1),
	}
	c.store.OnChange(func(session.Scope) { c.notify() })
	return c
}

// Changes delivers a signal whenever something visible may have changed.
// Signals coalesce; receivers should re-read everything they display.
func (c *Client) Changes() <-chan struct{} {
	return c.changes
}

// State returns the session state.
func (c *Client) State() *session.State {
	return c.state
}

// Suggester returns the suggestion engine.
func (c *Client) Suggester() *commands.Suggester {
	return c.suggester
}

// Caller identifies the local user to the interpreter.
func (c *Client) Caller() commands.Caller {
	return commands.Caller{PeerID: c.state.MyPeerID(), Send: c.send}
}

// Submit handles one line of input: a host directive, a slash command or chat text.
func (c *Client) Submit(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	if d, ok := ParseDirective(line); ok {
		c.applyDirective(d)
		c.notify()
		return
	}

	caller := c.Caller()
	if !c.processor.ProcessCommand(line, caller) {
		c.processor.SendText(line, caller)
	}
	c.notify()
}

// Timeline returns the messages of the active scope. Outside the public feed,
// system notices from the public feed are interleaved by time so command
// feedback stays visible.
func (c *Client) Timeline() []model.Message {
	scope := c.state.Scope()
	public := c.store.Messages(session.PublicScope())
	if scope.IsPublic() {
		return public
	}

	out := c.store.Messages(scope)
	for _, msg := range public {
		if msg.IsSystem() {
			out = append(out, msg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ScopeLabel names the active scope for headers and prompts.
func (c *Client) ScopeLabel() string {
	return c.ScopeLabelOf(c.state.Scope())
}

// ScopeLabelOf names scope the way ScopeLabel names the active one.
func (c *Client) ScopeLabelOf(scope session.Scope) string {
	switch scope.Kind {
	case session.ScopePrivate:
		if nick, ok := c.directory.NicknameOf(scope.ID); ok {
			return "@" + nick
		}
		return "@" + scope.ID
	case session.ScopeLocation:
		return "geo:" + scope.ID
	default:
		return scope.String()
	}
}

// ScopeDetail summarizes the active scope for the header: member count and
// lock state in a channel, open private chats on the public feed.
func (c *Client) ScopeDetail() string {
	online := fmt.Sprintf("%d online", c.OnlineCount())
	scope := c.state.Scope()

	if name, ok := scope.Channel(); ok {
		detail := "1 member"
		if n := len(c.channels.Members(name)); n != 1 {
			detail = fmt.Sprintf("%d members", n)
		}
		if c.channels.IsProtected(name) {
			detail += " · locked"
		}
		return detail + " · " + online
	}
	if scope.IsPublic() {
		if n := len(c.privateChat.Sessions()); n > 0 {
			return fmt.Sprintf("%s · %d private", online, n)
		}
	}
	return online
}

// OnlineCount returns the number of connected peers.
func (c *Client) OnlineCount() int {
	return len(c.directory.ConnectedPeerIDs())
}

// send is the Caller.Send of the local user.
func (c *Client) send(content string, mentions []string, channel string) {
	if hash, ok := c.state.Scope().Geohash(); ok && channel == "" {
		c.echoLocation(hash, content, mentions)
		c.transport.SendLocation(content, mentions, hash)
		return
	}
	c.transport.Send(content, mentions, channel)
}

// echoLocation shows our own location channel line, since relays never return it.
func (c *Client) echoLocation(hash, content string, mentions []string) {
	scope, err := session.LocationScope(hash)
	if err != nil {
		return
	}
	msg := model.NewMessage(c.state.Nickname(), content)
	msg.SenderPeerID = c.state.MyPeerID()
	msg.Mentions = mentions
	c.store.AppendTo(scope, msg)
}

func (c *Client) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

// participantName is how a peer appears in a location channel, e.g. "alice#1a2b".
func participantName(nickname, peerID string) string {
	suffix := peerID
	if len(suffix) > 4 {
		suffix = suffix[:4]
	}
	if nickname == "" {
		nickname = "anon"
	}
	return nickname + "#" + suffix
}
