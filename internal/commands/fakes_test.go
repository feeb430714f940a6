// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sort"

	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
)

// =============================================================================
// RECORDING FAKES
// =============================================================================

type fakeStore struct {
	public   []model.Message
	cleared  int
	clearFor []session.Scope
}

func (f *fakeStore) Append(msg model.Message) { f.public = append(f.public, msg) }
func (f *fakeStore) Clear()                   { f.cleared++ }
func (f *fakeStore) ClearFor(scope session.Scope) {
	f.clearFor = append(f.clearFor, scope)
}

func (f *fakeStore) notices() []string {
	var out []string
	for _, m := range f.public {
		if m.IsSystem() {
			out = append(out, m.Content)
		}
	}
	return out
}

func (f *fakeStore) last() string {
	if len(f.public) == 0 {
		return ""
	}
	return f.public[len(f.public)-1].Content
}

type joinCall struct{ name, password, caller string }

type channelMessage struct {
	channel string
	msg     model.Message
	sender  string
}

type fakeChannels struct {
	state     *session.State
	creators  map[string]string
	joined    []string
	joins     []joinCall
	rejectAll bool
	passwords map[string]string
	messages  []channelMessage
}

func newFakeChannels(state *session.State) *fakeChannels {
	return &fakeChannels{
		state:     state,
		creators:  make(map[string]string),
		passwords: make(map[string]string),
	}
}

func (f *fakeChannels) Join(name, password, callerID string) bool {
	f.joins = append(f.joins, joinCall{name, password, callerID})
	if f.rejectAll {
		return false
	}
	if _, ok := f.creators[name]; !ok {
		f.creators[name] = callerID
	}
	f.joined = append(f.joined, name)
	f.state.SetScope(session.ChannelScope(name))
	return true
}

func (f *fakeChannels) IsCreator(name, peerID string) bool { return f.creators[name] == peerID }
func (f *fakeChannels) SetPassword(name, password string)  { f.passwords[name] = password }
func (f *fakeChannels) ListJoined() []string {
	out := append([]string(nil), f.joined...)
	sort.Strings(out)
	return out
}
func (f *fakeChannels) AppendMessage(name string, msg model.Message, senderID string) {
	f.messages = append(f.messages, channelMessage{name, msg, senderID})
}

type privateSend struct {
	content, peerID, recipient, myNick, myPeerID string
}

type fakePrivateChat struct {
	started   []string
	refuse    bool
	sends     []privateSend
	blocked   []string
	unblocked []string
	list      string
}

func (f *fakePrivateChat) Start(peerID string) bool {
	if f.refuse {
		return false
	}
	f.started = append(f.started, peerID)
	return true
}

func (f *fakePrivateChat) Send(content, peerID, recipientNickname, myNickname, myPeerID string,
	onSent func(content, peerID, recipientNickname, messageID string)) {
	f.sends = append(f.sends, privateSend{content, peerID, recipientNickname, myNickname, myPeerID})
	onSent(content, peerID, recipientNickname, "msg-1")
}

func (f *fakePrivateChat) BlockByNickname(name string)   { f.blocked = append(f.blocked, name) }
func (f *fakePrivateChat) UnblockByNickname(name string) { f.unblocked = append(f.unblocked, name) }
func (f *fakePrivateChat) ListBlocked() string           { return f.list }

type fakeTransport struct {
	emergencies []model.EmergencyPayload
	private     []privateSend
}

func (f *fakeTransport) SendEmergency(payload model.EmergencyPayload) {
	f.emergencies = append(f.emergencies, payload)
}

func (f *fakeTransport) SendPrivate(content, peerID, recipientNickname, messageID string) {
	f.private = append(f.private, privateSend{content: content, peerID: peerID, recipient: recipientNickname})
}

type fakeLifecycle struct {
	calls    []string
	battery  int
	eraseErr error

	// store, when set, is snapshotted into noticesAtErase
	store          *fakeStore
	noticesAtErase []string
}

func (f *fakeLifecycle) EraseAllLocalState() error {
	f.calls = append(f.calls, "erase")
	if f.store != nil {
		f.noticesAtErase = f.store.notices()
	}
	return f.eraseErr
}
func (f *fakeLifecycle) TerminateProcess()       { f.calls = append(f.calls, "terminate") }
func (f *fakeLifecycle) ReadBatteryPercent() int { return f.battery }

type sentLine struct {
	content  string
	mentions []string
	channel  string
}

type sendRecorder struct {
	lines []sentLine
}

func (r *sendRecorder) send(content string, mentions []string, channel string) {
	r.lines = append(r.lines, sentLine{content, mentions, channel})
}
