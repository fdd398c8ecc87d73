package managers

import (
	"encoding/json"

	"studyroom/internal/models"
)

// SignalingRelay passes WebRTC negotiation messages between two
// connections of the same room. The payload is never interpreted
// beyond reading the target sid; the server forwards it verbatim.
type SignalingRelay struct {
	reg *Registry
}

func NewSignalingRelay(reg *Registry) *SignalingRelay {
	return &SignalingRelay{reg: reg}
}

// Relay forwards one offer/answer/ice_candidate payload. A missing
// target, an unknown target or a target in a different room is
// silently dropped; stale signaling is normal churn and never an
// error to the sender. Reports whether the message was delivered.
func (s *SignalingRelay) Relay(kind, senderSID string, payload json.RawMessage) bool {
	var meta struct {
		Target string `json:"target"`
	}
	if err := json.Unmarshal(payload, &meta); err != nil {
		return false
	}
	if meta.Target == "" || !s.reg.SameRoom(senderSID, meta.Target) {
		return false
	}
	s.reg.SendTo(meta.Target, models.OutEvent{Type: kind, Data: payload})
	return true
}
