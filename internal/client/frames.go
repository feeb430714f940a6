// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"github.com/jeranaias/meshline-tui/internal/mesh"
	"github.com/jeranaias/meshline-tui/internal/model"
	"github.com/jeranaias/meshline-tui/internal/session"
)

// HandleFrame applies a frame received from the mesh. The transport has
// already updated the peer directory. Safe to call from the transport's
// read goroutine.
func (c *Client) HandleFrame(f mesh.Frame) {
	defer c.notify()

	switch f.Kind {
	case mesh.FrameAnnounce:
		if f.Geohash != "" {
			c.state.AddGeohashParticipant(f.Geohash, participantName(f.Nickname, f.From))
		}

	case mesh.FrameLeave:
		c.logger.Debug("peer left", "peer", f.From)

	case mesh.FramePrivate:
		c.privateChat.Receive(f.From, f.Content, f.ID)

	case mesh.FrameSOS:
		msg := c.inbound(f)
		msg.IsEmergency = true
		c.logger.Warn("sos received", "peer", f.From)
		c.store.Append(msg)

	case mesh.FrameMessage:
		msg := c.inbound(f)
		switch {
		case f.Geohash != "":
			scope, err := session.LocationScope(f.Geohash)
			if err != nil {
				c.logger.Debug("dropped frame with invalid geohash", "geohash", f.Geohash)
				return
			}
			c.state.AddGeohashParticipant(scope.ID, participantName(f.Nickname, f.From))
			c.store.AppendTo(scope, msg)
		case f.Channel != "":
			msg.Channel = f.Channel
			c.channels.AppendMessage(f.Channel, msg, f.From)
		default:
			c.store.Append(msg)
		}
	}
}

func (c *Client) inbound(f mesh.Frame) model.Message {
	sender := f.Nickname
	if sender == "" {
		sender = f.From
	}
	msg := model.NewMessage(sender, f.Content)
	if f.ID != "" {
		msg.ID = f.ID
	}
	msg.SenderPeerID = f.From
	msg.Mentions = f.Mentions
	msg.IsRelay = true
	return msg
}
