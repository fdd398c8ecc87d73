package managers

import "studyroom/internal/models"

// HandRaiseTracker keeps the per-room raised/lowered flags. Entries
// live exactly as long as the membership they track.
type HandRaiseTracker struct {
	reg    *Registry
	states map[string]map[string]bool // room id -> sid -> raised
}

func NewHandRaiseTracker(reg *Registry) *HandRaiseTracker {
	return &HandRaiseTracker{reg: reg, states: make(map[string]map[string]bool)}
}

// Init records a lowered hand for a fresh room member.
func (t *HandRaiseTracker) Init(roomID, sid string) {
	room, ok := t.states[roomID]
	if !ok {
		room = make(map[string]bool)
		t.states[roomID] = room
	}
	room[sid] = false
}

// SetRaised records a toggle and tells the whole room, sender
// included. A connection with no current room is ignored; the toggle
// raced its own join or disconnect. The full snapshot is re-sent along
// with the delta on every toggle.
func (t *HandRaiseTracker) SetRaised(sid string, raised bool) {
	roomID, kind := t.reg.ResolveRoom(sid)
	if kind == KindNone {
		return
	}
	id, ok := t.reg.IdentityOf(roomID, sid)
	if !ok {
		return
	}
	t.Init(roomID, sid)
	t.states[roomID][sid] = raised
	t.reg.Broadcast(roomID, models.OutEvent{Type: models.EvHandRaiseUpdate, Data: models.HandRaiseUpdate{
		SID:      sid,
		UserName: id.UserName,
		Raised:   raised,
	}})
	t.reg.Broadcast(roomID, models.OutEvent{Type: models.EvHandStates, Data: models.HandStates{
		States: t.States(roomID),
	}})
}

// States builds the room's snapshot, joining names and roles from the
// roster.
func (t *HandRaiseTracker) States(roomID string) []models.HandState {
	states := make([]models.HandState, 0, len(t.states[roomID]))
	for sid, raised := range t.states[roomID] {
		entry := models.HandState{SID: sid, Role: models.RoleStudent, Raised: raised}
		if id, ok := t.reg.IdentityOf(roomID, sid); ok {
			entry.UserName = id.UserName
			entry.Role = id.Role
		}
		states = append(states, entry)
	}
	return states
}

// RemoveConn drops one member's entry.
func (t *HandRaiseTracker) RemoveConn(roomID, sid string) {
	if room, ok := t.states[roomID]; ok {
		delete(room, sid)
		if len(room) == 0 {
			delete(t.states, roomID)
		}
	}
}

// DeleteRoom drops a whole room's entries.
func (t *HandRaiseTracker) DeleteRoom(roomID string) { delete(t.states, roomID) }
