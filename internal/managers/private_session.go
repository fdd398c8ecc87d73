package managers

import (
	"studyroom/internal/models"
	"studyroom/internal/utils"
)

type privateSession struct {
	MainRoom   string
	AdminSID   string
	StudentSID string
}

// PrivateSessionManager owns the ephemeral 2-party breakout sessions
// nested under main rooms. A session has exactly two legs; losing
// either one tears it down and redirects the survivor back to the
// originating main room.
type PrivateSessionManager struct {
	reg      *Registry
	hands    *HandRaiseTracker
	sessions map[string]privateSession

	newSessionID func() string
}

func NewPrivateSessionManager(reg *Registry, hands *HandRaiseTracker) *PrivateSessionManager {
	return &PrivateSessionManager{
		reg:      reg,
		hands:    hands,
		sessions: make(map[string]privateSession),
		newSessionID: func() string {
			return PrivateRoomPrefix + utils.RandomHex(8)
		},
	}
}

// Start mints a session for an admin and a student of the same main
// room and redirects both legs. Main-room membership is untouched;
// each leg physically moves on its own join. Anything short of an
// admin targeting a co-present student is silently dropped.
func (p *PrivateSessionManager) Start(sid string, req models.StartPrivateRequest) (string, bool) {
	roomID, kind := p.reg.ResolveRoom(sid)
	if kind != KindMain || req.StudentSID == "" {
		return "", false
	}
	id, ok := p.reg.IdentityOf(roomID, sid)
	if !ok || id.Role != models.RoleAdmin {
		return "", false
	}
	if _, ok := p.reg.IdentityOf(roomID, req.StudentSID); !ok {
		return "", false
	}

	sessionID := p.newSessionID()
	p.sessions[sessionID] = privateSession{
		MainRoom:   roomID,
		AdminSID:   sid,
		StudentSID: req.StudentSID,
	}
	redirect := models.OutEvent{Type: models.EvRedirectToPrivate, Data: models.RedirectToPrivate{
		SessionID: sessionID,
		MainRoom:  roomID,
	}}
	p.reg.SendTo(sid, redirect)
	p.reg.SendTo(req.StudentSID, redirect)
	return sessionID, true
}

// Exists reports whether a session id references a live session.
func (p *PrivateSessionManager) Exists(sessionID string) bool {
	_, ok := p.sessions[sessionID]
	return ok
}

// JoinMember handles a join_room event naming a live session: the leg
// re-registers for signaling inside the session. The caller validated
// the session and detached the leg from its previous room.
func (p *PrivateSessionManager) JoinMember(sid string, req models.JoinRoomRequest) {
	roomID := req.Room
	p.reg.Bind(sid, roomID)
	p.reg.SetIdentity(roomID, sid, Identity{UserName: req.UserName, Role: req.Role})
	p.hands.Init(roomID, sid)
	p.reg.SendTo(sid, models.OutEvent{Type: models.EvHandStates, Data: models.HandStates{
		States: p.hands.States(roomID),
	}})
	p.reg.BroadcastExcept(roomID, sid, models.OutEvent{Type: models.EvUserJoined, Data: models.UserJoined{
		SID:      sid,
		UserName: req.UserName,
		Role:     req.Role,
	}})
}

// JoinSession handles join_private_room: the leg binds into the
// session and both legs get the updated roster plus an audio re-sync,
// since a fresh join may need renegotiated media. The caller validated
// the session and detached the leg from its previous room.
func (p *PrivateSessionManager) JoinSession(sid string, req models.JoinPrivateRequest) {
	sessionID := req.SessionID
	p.reg.Bind(sid, sessionID)
	p.reg.SetIdentity(sessionID, sid, Identity{UserName: req.UserName, Role: req.Role})

	participants := make([]models.PrivateParticipant, 0, 2)
	for _, member := range p.reg.RosterSIDs(sessionID) {
		id, _ := p.reg.IdentityOf(sessionID, member)
		participants = append(participants, models.PrivateParticipant{
			SID:      member,
			UserName: id.UserName,
			Role:     id.Role,
		})
	}
	p.reg.Broadcast(sessionID, models.OutEvent{Type: models.EvPrivateParticipants, Data: models.PrivateParticipants{
		Participants: participants,
	}})
	p.reg.Broadcast(sessionID, models.OutEvent{Type: models.EvPrivateAudioSync, Data: struct{}{}})
}

// MediaReady re-broadcasts the audio re-sync when one side's media
// pipeline came up late.
func (p *PrivateSessionManager) MediaReady(sid string) {
	roomID, kind := p.reg.ResolveRoom(sid)
	if kind != KindPrivate {
		return
	}
	if _, ok := p.sessions[roomID]; !ok {
		return
	}
	p.reg.Broadcast(roomID, models.OutEvent{Type: models.EvPrivateAudioSync, Data: struct{}{}})
}

// End tears the sender's session down: both legs are redirected to the
// stored main room and the record vanishes. Rejoining the main room is
// the client's move after the redirect. A repeated end is a no-op.
// Returns the main room id on success.
func (p *PrivateSessionManager) End(sid string) (string, bool) {
	roomID, kind := p.reg.ResolveRoom(sid)
	if kind != KindPrivate {
		return "", false
	}
	sess, ok := p.sessions[roomID]
	if !ok {
		return "", false
	}
	p.reg.Broadcast(roomID, models.OutEvent{Type: models.EvRedirectToMainRoom, Data: models.RedirectToMainRoom{
		MainRoom: sess.MainRoom,
	}})
	p.reg.DeleteRoster(roomID)
	p.hands.DeleteRoom(roomID)
	delete(p.sessions, roomID)
	return sess.MainRoom, true
}

// DisconnectCleanup handles a leg dropping while bound to a private
// room: the session is located by scanning for the leg, the survivor
// is redirected, and the record removed. Stale bindings with no
// session still get their roster and hand entries scrubbed, so the
// cleanup is idempotent.
func (p *PrivateSessionManager) DisconnectCleanup(sid, roomID string) (string, bool) {
	p.reg.RemoveIdentity(roomID, sid)
	p.hands.RemoveConn(roomID, sid)
	for sessionID, sess := range p.sessions {
		if sess.AdminSID != sid && sess.StudentSID != sid {
			continue
		}
		other := sess.AdminSID
		if sid == sess.AdminSID {
			other = sess.StudentSID
		}
		p.reg.SendTo(other, models.OutEvent{Type: models.EvRedirectToMainRoom, Data: models.RedirectToMainRoom{
			MainRoom: sess.MainRoom,
		}})
		delete(p.sessions, sessionID)
		return sess.MainRoom, true
	}
	return "", false
}

// Chat relays private_chat / private_chat_image within a session. The
// message goes to the other leg and is echoed to the sender with the
// sender sid attached, so the client can de-duplicate its own bubble.
func (p *PrivateSessionManager) Chat(sid, eventType string, req models.ChatRequest) {
	roomID, kind := p.reg.ResolveRoom(sid)
	if kind != KindPrivate {
		return
	}
	name := ""
	if id, ok := p.reg.IdentityOf(roomID, sid); ok {
		name = id.UserName
	}
	msg := models.OutEvent{Type: eventType, Data: models.ChatMessage{
		SenderSID: sid,
		UserName:  name,
		Text:      req.Text,
		DataURL:   req.DataURL,
	}}
	p.reg.BroadcastExcept(roomID, sid, msg)
	p.reg.SendTo(sid, msg)
}

// SessionCount reports the number of live sessions.
func (p *PrivateSessionManager) SessionCount() int { return len(p.sessions) }
