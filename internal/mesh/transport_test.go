// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/meshline-tui/internal/model"
)

func testIdentity() Identity {
	return Identity{PeerID: "self", Nickname: func() string { return "me" }}
}

func TestLoopbackRecordsFrames(t *testing.T) {
	tr := NewLoopbackTransport(testIdentity(), nil)

	tr.Send("hello", []string{"bob"}, "#general")
	tr.SendPrivate("psst", "p2", "bob", "m-1")
	tr.SendEmergency(model.EmergencyPayload{Sender: "me", Message: "EMERGENCY", Location: "Unknown", Battery: model.BatteryUnknown})

	frames := tr.Frames()
	require.Len(t, frames, 3)

	assert.Equal(t, FrameMessage, frames[0].Kind)
	assert.Equal(t, "self", frames[0].From)
	assert.Equal(t, "me", frames[0].Nickname)
	assert.Equal(t, "#general", frames[0].Channel)
	assert.Equal(t, []string{"bob"}, frames[0].Mentions)

	assert.Equal(t, FramePrivate, frames[1].Kind)
	assert.Equal(t, "p2", frames[1].To)
	assert.Equal(t, "m-1", frames[1].ID)

	assert.Equal(t, FrameSOS, frames[2].Kind)
	require.NotNil(t, frames[2].Emergency)
	assert.Equal(t, "EMERGENCY", frames[2].Emergency.Message)
	assert.Contains(t, frames[2].Content, "SOS ALERT")
	assert.NoError(t, tr.Close())
}

func TestIdentityWithoutNicknameFunc(t *testing.T) {
	f := newFrame(Identity{PeerID: "x"}, FrameAnnounce, nil)
	assert.Equal(t, "", f.Nickname)
	assert.Equal(t, "x", f.From)
	assert.NotZero(t, f.Timestamp)
}

func TestLoopbackLocationAndAnnounce(t *testing.T) {
	tr := NewLoopbackTransport(testIdentity(), nil)

	tr.Announce("u4pruy")
	tr.SendLocation("anyone near?", nil, "u4pruy")

	frames := tr.Frames()
	require.Len(t, frames, 2)
	assert.Equal(t, FrameAnnounce, frames[0].Kind)
	assert.Equal(t, "u4pruy", frames[0].Geohash)
	assert.Equal(t, FrameMessage, frames[1].Kind)
	assert.Equal(t, "u4pruy", frames[1].Geohash)
	assert.Empty(t, frames[1].Channel)
}
