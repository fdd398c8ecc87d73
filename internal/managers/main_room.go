package managers

import (
	"go.uber.org/zap"

	"studyroom/internal/models"
	"studyroom/internal/utils"
)

// MainRoomCapacity bounds every main room. The first entrant is host.
const MainRoomCapacity = 4

type mainParticipant struct {
	SID       string
	UserName  string
	Role      string
	UserID    string
	UserDBID  uint
	Connected bool
}

// MainRoomManager owns the ordered membership list of every main
// room. Index 0 is always the current host; a room with no members is
// deleted synchronously.
type MainRoomManager struct {
	log    *zap.Logger
	reg    *Registry
	hands  *HandRaiseTracker
	ledger StudyTimeLedger
	rooms  map[string][]*mainParticipant

	// newRoomID mints ids for server-assigned rooms, replaced in tests.
	newRoomID func() string
}

func NewMainRoomManager(log *zap.Logger, reg *Registry, hands *HandRaiseTracker, ledger StudyTimeLedger) *MainRoomManager {
	return &MainRoomManager{
		log:       log,
		reg:       reg,
		hands:     hands,
		ledger:    ledger,
		rooms:     make(map[string][]*mainParticipant),
		newRoomID: func() string { return utils.RandomHex(4) },
	}
}

// Join places a connection into a main room and announces it. The
// caller has already detached the connection from any previous room.
// Placement order: the requested room if it exists with space, a fresh
// room under the requested id, any existing room with space, then a
// brand-new room. A full or unusable requested room is never an error,
// the joiner just lands elsewhere. Returns the assigned room id.
func (m *MainRoomManager) Join(sid string, req models.JoinRoomRequest) string {
	room := ""
	if req.Room != "" && KindOf(req.Room) == KindMain {
		if plist, ok := m.rooms[req.Room]; ok {
			if len(plist) < MainRoomCapacity {
				room = req.Room
			}
		} else {
			// An inviter's URL becomes the room.
			room = req.Room
			m.rooms[room] = nil
		}
	}
	if room == "" {
		for rid, plist := range m.rooms {
			if len(plist) < MainRoomCapacity {
				room = rid
				break
			}
		}
	}
	if room == "" {
		room = m.newRoomID()
		m.rooms[room] = nil
	}
	// The chosen room must still have space at append time.
	if len(m.rooms[room]) >= MainRoomCapacity {
		room = m.newRoomID()
		m.rooms[room] = nil
	}

	m.reg.Bind(sid, room)
	m.rooms[room] = append(m.rooms[room], &mainParticipant{
		SID:       sid,
		UserName:  req.UserName,
		Role:      req.Role,
		UserID:    req.UserID,
		UserDBID:  req.UserDBID,
		Connected: true,
	})
	m.reg.SetIdentity(room, sid, Identity{UserName: req.UserName, Role: req.Role})
	m.hands.Init(room, sid)

	isHost := len(m.rooms[room]) == 1
	state := m.buildRoomState(room)
	m.reg.SendTo(sid, models.OutEvent{Type: models.EvRoomAssigned, Data: models.RoomAssigned{
		RoomID:       room,
		IsHost:       isHost,
		Participants: state.Participants,
	}})
	m.reg.BroadcastExcept(room, sid, models.OutEvent{Type: models.EvUserJoined, Data: models.UserJoined{
		SID:                   sid,
		UserName:              req.UserName,
		Role:                  req.Role,
		TotalStudyTimeMinutes: m.totalMinutes(req.UserDBID),
	}})
	m.reg.Broadcast(room, models.OutEvent{Type: models.EvHandStates, Data: models.HandStates{
		States: m.hands.States(room),
	}})
	return room
}

// Leave removes a connection from its main room, re-elects the host
// when index 0 departed, and deletes the room when it empties. Safe to
// call for rooms or members that are already gone.
func (m *MainRoomManager) Leave(sid, roomID string) {
	name := ""
	if id, ok := m.reg.IdentityOf(roomID, sid); ok {
		name = id.UserName
	}
	m.reg.RemoveIdentity(roomID, sid)
	m.reg.Broadcast(roomID, models.OutEvent{Type: models.EvUserLeft, Data: models.UserLeft{
		SID:      sid,
		UserName: name,
	}})

	plist, ok := m.rooms[roomID]
	if !ok {
		return
	}
	for idx, p := range plist {
		if p.SID != sid {
			continue
		}
		plist = append(plist[:idx], plist[idx+1:]...)
		if len(plist) == 0 {
			delete(m.rooms, roomID)
			m.hands.DeleteRoom(roomID)
			return
		}
		m.rooms[roomID] = plist
		if idx == 0 {
			newHost := plist[0]
			m.reg.Broadcast(roomID, models.OutEvent{Type: models.EvHostChanged, Data: models.HostChanged{
				NewHostSID:  newHost.SID,
				NewHostName: newHost.UserName,
			}})
		}
		return
	}
}

// HandleStateRequest re-sends the membership and hand-raise snapshots
// to a requester that suspects stale local state. Honored only for
// current members; an unknown room yields an empty snapshot so the
// client can reset.
func (m *MainRoomManager) HandleStateRequest(sid string, req models.RoomStateRequest) {
	roomID := req.RoomID
	if roomID == "" {
		roomID, _ = m.reg.ResolveRoom(sid)
	}
	if KindOf(roomID) != KindMain {
		return
	}
	plist, ok := m.rooms[roomID]
	if !ok {
		m.reg.SendTo(sid, models.OutEvent{Type: models.EvRoomState, Data: models.RoomState{
			Participants: []models.Participant{},
		}})
		return
	}
	member := false
	for _, p := range plist {
		if p.SID == sid {
			member = true
			break
		}
	}
	if !member {
		return
	}
	m.reg.SendTo(sid, models.OutEvent{Type: models.EvRoomState, Data: m.buildRoomState(roomID)})
	m.reg.SendTo(sid, models.OutEvent{Type: models.EvHandStates, Data: models.HandStates{
		States: m.hands.States(roomID),
	}})
}

// RoomState recomputes a room's snapshot on demand.
func (m *MainRoomManager) RoomState(roomID string) (models.RoomState, bool) {
	if _, ok := m.rooms[roomID]; !ok {
		return models.RoomState{}, false
	}
	return m.buildRoomState(roomID), true
}

// Contains reports whether a connection is on a room's member list.
func (m *MainRoomManager) Contains(roomID, sid string) bool {
	for _, p := range m.rooms[roomID] {
		if p.SID == sid {
			return true
		}
	}
	return false
}

// RoomCount reports the number of live main rooms.
func (m *MainRoomManager) RoomCount() int { return len(m.rooms) }

func (m *MainRoomManager) buildRoomState(roomID string) models.RoomState {
	plist := m.rooms[roomID]
	state := models.RoomState{Participants: make([]models.Participant, 0, len(plist))}
	for i, p := range plist {
		state.Participants = append(state.Participants, models.Participant{
			SID:                   p.SID,
			UserName:              p.UserName,
			Role:                  p.Role,
			Connected:             p.Connected,
			IsHost:                i == 0,
			TotalStudyTimeMinutes: m.totalMinutes(p.UserDBID),
		})
	}
	if len(plist) > 0 {
		state.HostSID = plist[0].SID
	}
	return state
}

// totalMinutes degrades to zero on missing ids or ledger failure.
func (m *MainRoomManager) totalMinutes(userDBID uint) int64 {
	if userDBID == 0 || m.ledger == nil {
		return 0
	}
	minutes, err := m.ledger.TotalMinutes(userDBID)
	if err != nil {
		m.log.Debug("study-time lookup failed", zap.Uint("user_db_id", userDBID), zap.Error(err))
		return 0
	}
	return minutes
}
