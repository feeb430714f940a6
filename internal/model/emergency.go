// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"strings"
)

// BatteryUnknown is reported when the host cannot read a battery level.
const BatteryUnknown = -1

// EmergencyPayload is the structured body of an SOS broadcast.
type EmergencyPayload struct {
	Sender   string `json:"sender"`
	Message  string `json:"message"`
	Location string `json:"location"`
	Battery  int    `json:"battery"`
}

// BatteryLabel renders the battery level, or "Unknown" when unavailable.
func (p EmergencyPayload) BatteryLabel() string {
	if p.Battery > 0 {
		return fmt.Sprintf("%d%%", p.Battery)
	}
	return "Unknown"
}

// Text renders the payload as the markdown block peers display.
func (p EmergencyPayload) Text() string {
	sender := p.Sender
	if sender == "" {
		sender = "Unknown"
	}
	lines := []string{
		"🚨 **SOS ALERT** 🚨",
		"User: @" + sender,
		"Msg: **" + p.Message + "**",
		"📍 Loc: " + p.Location,
		"🔋 Batt: " + p.BatteryLabel(),
	}
	return strings.Join(lines, "\n")
}
