// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"

	"github.com/jeranaias/meshline-tui/internal/model"
)

// DefaultEmergencyLocation is sent when no location is configured.
const DefaultEmergencyLocation = "[12.9716° N, 77.5946° E]"

// emergencyShortcuts maps /sos keywords to the broadcast text.
var emergencyShortcuts = map[string]string{
	"flood":   "🌊 TRAPPED IN FLOOD WATER - Need Evacuation!",
	"food":    "🥪 CRITICAL SHORTAGE - Need Food & Water",
	"medical": "🚑 MEDICAL EMERGENCY - Need Doctor/Ambulance",
	"med":     "🚑 MEDICAL EMERGENCY - Need Doctor/Ambulance",
	"fire":    "🔥 FIRE OUTBREAK - Need Assistance",
	"rubble":  "🧱 TRAPPED UNDER RUBBLE",
}

// EmergencyMessage expands a /sos argument. Unknown text is sent as typed;
// an empty argument becomes "EMERGENCY".
func EmergencyMessage(raw string) string {
	if raw == "" {
		return "EMERGENCY"
	}
	if msg, ok := emergencyShortcuts[strings.ToLower(raw)]; ok {
		return msg
	}
	return raw
}

func handleSOS(p *Processor, req Request) {
	battery := model.BatteryUnknown
	if p.lifecycle != nil {
		battery = p.lifecycle.ReadBatteryPercent()
	}

	payload := model.EmergencyPayload{
		Sender:   p.state.Nickname(),
		Message:  EmergencyMessage(req.Rest(0)),
		Location: p.location,
		Battery:  battery,
	}

	p.logger.Warn("sos broadcast", "message", payload.Message, "battery", payload.BatteryLabel())
	p.transport.SendEmergency(payload)
	p.notice("🚨 SOS SIGNAL SENT: Broadcasting detailed status!")
}
