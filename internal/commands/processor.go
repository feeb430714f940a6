// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"log/slog"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// MessageStore holds the public feed and per-scope timelines.
type MessageStore interface {
	Append(msg model.Message)
	Clear()
	ClearFor(scope session.Scope)
}

// ChannelManager owns channel membership and passwords.
type ChannelManager interface {
	Join(name, password, callerID string) bool
	IsCreator(name, peerID string) bool
	SetPassword(name, password string)
	ListJoined() []string
	AppendMessage(name string, msg model.Message, senderID string)
}

// PrivateChatManager owns private sessions and the block list.
type PrivateChatManager interface {
	Start(peerID string) bool
	Send(content, peerID, recipientNickname, myNickname, myPeerID string,
		onSent func(content, peerID, recipientNickname, messageID string))
	BlockByNickname(name string)
	UnblockByNickname(name string)
	ListBlocked() string
}

// Directory maps peer IDs to nicknames.
type Directory interface {
	NicknameOf(peerID string) (string, bool)
	PeerIDOf(nickname string) (string, bool)
	ConnectedPeerIDs() []string
}

// Transport is the outbound path for private and emergency traffic.
// Ordinary broadcasts go through the caller's Send callback instead.
type Transport interface {
	SendEmergency(payload model.EmergencyPayload)
	SendPrivate(content, peerID, recipientNickname, messageID string)
}

// HostLifecycle performs process-level actions.
type HostLifecycle interface {
	EraseAllLocalState() error
	TerminateProcess()
	ReadBatteryPercent() int
}

// State is the chat context the interpreter reads.
type State interface {
	Scope() session.Scope
	Nickname() string
	IsGuardian() bool
	SetGuardian(on bool)
	GeohashParticipants(hash string) []string
}

// SendFunc hands a chat line to the transport. An empty channel means the
// public feed or the selected location channel.
type SendFunc func(content string, mentions []string, channel string)

// Caller identifies who typed the command and how their broadcasts leave.
type Caller struct {
	PeerID string
	Send   SendFunc
}

// =============================================================================
// PROCESSOR
// =============================================================================

// Config holds the collaborators of a Processor. Lifecycle and Logger may be nil.
type Config struct {
	Registry    *Registry
	State       State
	Store       MessageStore
	Channels    ChannelManager
	PrivateChat PrivateChatManager
	Directory   Directory
	Transport   Transport
	Lifecycle   HostLifecycle

	// EmergencyLocation is embedded in SOS payloads
	EmergencyLocation string

	Logger *slog.Logger
}

// Request is what a handler receives: the parsed line, the caller and the
// scope that was active when the line was entered.
type Request struct {
	Invocation
	Caller Caller
	Scope  session.Scope
}

type handlerFunc func(p *Processor, req Request)

// Processor interprets slash commands. It must be driven from a single goroutine.
type Processor struct {
	registry    *Registry
	handlers    map[string]handlerFunc // canonical name -> handler
	state       State
	store       MessageStore
	channels    ChannelManager
	privateChat PrivateChatManager
	directory   Directory
	transport   Transport
	lifecycle   HostLifecycle
	location    string
	logger      *slog.Logger
}

// NewProcessor creates a processor. A nil Registry means the built-in commands.
func NewProcessor(cfg Config) *Processor {
	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	location := cfg.EmergencyLocation
	if location == "" {
		location = DefaultEmergencyLocation
	}

	return &Processor{
		registry:    registry,
		handlers:    defaultHandlers(),
		state:       cfg.State,
		store:       cfg.Store,
		channels:    cfg.Channels,
		privateChat: cfg.PrivateChat,
		directory:   cfg.Directory,
		transport:   cfg.Transport,
		lifecycle:   cfg.Lifecycle,
		location:    location,
		logger:      logger.With("component", "commands"),
	}
}

// Vocabulary returns a read-only view of the command vocabulary. The
// registry is fixed once the processor is built.
func (p *Processor) Vocabulary() Vocabulary {
	return frozenRegistry{r: p.registry}
}

// ProcessCommand runs text if it is a slash command. It returns false only
// for input that does not start with '/'; every command, valid or not, is
// handled and reported through a system notice when needed.
func (p *Processor) ProcessCommand(text string, caller Caller) bool {
	inv, ok := Parse(text)
	if !ok {
		return false
	}

	req := Request{
		Invocation: inv,
		Caller:     caller,
		Scope:      p.state.Scope(),
	}

	def, found := p.registry.Lookup(inv.Verb)
	handler := p.handlers[def.Name]
	if !found || handler == nil {
		p.logger.Debug("unknown command", "verb", inv.Verb)
		handleUnknown(p, req)
		return true
	}

	p.logger.Debug("dispatch", "verb", inv.Verb, "command", def.Name, "args", len(inv.Args), "scope", req.Scope.String())
	handler(p, req)
	return true
}

// SendText routes a plain chat line the same way action commands are routed.
func (p *Processor) SendText(text string, caller Caller) {
	p.route(Request{Caller: caller, Scope: p.state.Scope()}, text, extractMentions(text))
}

// =============================================================================
// HELPERS
// =============================================================================

// notice appends a system notice to the public store.
func (p *Processor) notice(text string) {
	p.store.Append(model.NewSystemNotice(text))
}

// channelNotice appends a system notice to a channel timeline.
func (p *Processor) channelNotice(channel, text string) {
	p.channels.AppendMessage(channel, model.NewSystemNotice(text), "")
}

// sendPrivateVia is the onSent callback of the private chat send path.
func (p *Processor) sendPrivateVia(content, peerID, recipientNickname, messageID string) {
	p.transport.SendPrivate(content, peerID, recipientNickname, messageID)
}

// route delivers content to the scope it was typed in.
func (p *Processor) route(req Request, content string, mentions []string) {
	myNick := p.state.Nickname()

	switch req.Scope.Kind {
	case session.ScopePrivate:
		peerID := req.Scope.ID
		p.privateChat.Send(content, peerID, p.displayName(peerID), myNick, req.Caller.PeerID, p.sendPrivateVia)

	case session.ScopeLocation:
		// The location transport echoes locally
		req.Caller.send(content, mentions, "")

	default:
		sender := myNick
		if sender == "" {
			sender = req.Caller.PeerID
		}
		msg := model.NewMessage(sender, content)
		msg.SenderPeerID = req.Caller.PeerID
		msg.Mentions = mentions

		if channel, ok := req.Scope.Channel(); ok {
			msg.Channel = channel
			p.channels.AppendMessage(channel, msg, req.Caller.PeerID)
			req.Caller.send(content, mentions, channel)
			return
		}
		p.store.Append(msg)
		req.Caller.send(content, mentions, "")
	}
}

func (c Caller) send(content string, mentions []string, channel string) {
	if c.Send != nil {
		c.Send(content, mentions, channel)
	}
}
