package managers

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"studyroom/internal/metrics"
	"studyroom/internal/models"
)

// Gateway is the single entry point for inbound real-time events. One
// mutex serializes every event end-to-end, so each handler observes
// and mutates registry state as an atomic step; no component below it
// carries its own locking.
type Gateway struct {
	mu  sync.Mutex
	log *zap.Logger
	now func() time.Time

	reg      *Registry
	mains    *MainRoomManager
	hands    *HandRaiseTracker
	relay    *SignalingRelay
	privates *PrivateSessionManager

	ledger   StudyTimeLedger
	presence PresencePublisher
}

func NewGateway(log *zap.Logger, ledger StudyTimeLedger, presence PresencePublisher) *Gateway {
	reg := NewRegistry()
	hands := NewHandRaiseTracker(reg)
	return &Gateway{
		log:      log,
		now:      time.Now,
		reg:      reg,
		mains:    NewMainRoomManager(log, reg, hands, ledger),
		hands:    hands,
		relay:    NewSignalingRelay(reg),
		privates: NewPrivateSessionManager(reg, hands),
		ledger:   ledger,
		presence: presence,
	}
}

// Connect registers a fresh connection. It belongs to no room until
// its first join_room.
func (g *Gateway) Connect(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reg.AddClient(c)
	metrics.SetConnections(g.reg.ClientCount())
}

// HandleEvent dispatches one inbound event to its owning component.
// Malformed payloads, stale references and unauthorized requests are
// all dropped without a reply; clients recover via resync.
func (g *Gateway) HandleEvent(sid string, ev models.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	metrics.EventReceived(ev.Type)

	switch ev.Type {
	case models.EvJoinRoom:
		var req models.JoinRoomRequest
		if !decodeData(ev.Data, &req) {
			return
		}
		g.handleJoinRoom(sid, req)

	case models.EvRequestRoomState:
		var req models.RoomStateRequest
		if !decodeData(ev.Data, &req) {
			return
		}
		g.mains.HandleStateRequest(sid, req)

	case models.EvHandRaise:
		var req models.HandRaiseRequest
		if !decodeData(ev.Data, &req) {
			return
		}
		g.hands.SetRaised(sid, req.Raised)

	case models.EvOffer, models.EvAnswer, models.EvICECandidate:
		if g.relay.Relay(ev.Type, sid, ev.Data) {
			metrics.SignalRelayed(ev.Type)
		} else {
			metrics.SignalDropped(ev.Type)
		}

	case models.EvStartPrivateSession:
		var req models.StartPrivateRequest
		if !decodeData(ev.Data, &req) {
			return
		}
		if sessionID, ok := g.privates.Start(sid, req); ok {
			g.publishPresence(models.PresencePrivateStarted, sessionID, sid)
			metrics.SetPrivateSessions(g.privates.SessionCount())
		}

	case models.EvJoinPrivateRoom:
		var req models.JoinPrivateRequest
		if !decodeData(ev.Data, &req) {
			return
		}
		if ident := g.tokenIdentity(sid); ident != nil {
			req.UserName = ident.Name
			req.Role = ident.Role
		}
		if req.Role == "" {
			req.Role = models.RoleStudent
		}
		if !g.privates.Exists(req.SessionID) {
			return
		}
		g.departCurrentRoom(sid)
		g.privates.JoinSession(sid, req)
		metrics.SetMainRooms(g.mains.RoomCount())

	case models.EvPrivateMediaReady:
		g.privates.MediaReady(sid)

	case models.EvEndPrivateSession:
		if mainRoom, ok := g.privates.End(sid); ok {
			g.publishPresence(models.PresencePrivateEnded, mainRoom, sid)
			metrics.SetPrivateSessions(g.privates.SessionCount())
		}

	case models.EvPrivateChat, models.EvPrivateChatImage:
		var req models.ChatRequest
		if !decodeData(ev.Data, &req) {
			return
		}
		g.privates.Chat(sid, ev.Type, req)

	default:
		g.log.Debug("unknown event type", zap.String("type", ev.Type), zap.String("sid", sid))
	}
}

func (g *Gateway) handleJoinRoom(sid string, req models.JoinRoomRequest) {
	if ident := g.tokenIdentity(sid); ident != nil {
		req.UserName = ident.Name
		req.Role = ident.Role
		req.UserDBID = ident.UserDBID
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}

	if KindOf(req.Room) == KindPrivate {
		if !g.privates.Exists(req.Room) {
			return
		}
		g.departCurrentRoom(sid)
		g.privates.JoinMember(sid, req)
		return
	}

	g.departCurrentRoom(sid)
	room := g.mains.Join(sid, req)
	if c := g.reg.Client(sid); c != nil {
		c.markEntered(req.UserDBID, g.now())
	}
	g.publishPresence(models.PresenceUserJoined, room, sid)
	metrics.SetMainRooms(g.mains.RoomCount())
}

// Disconnect fans cleanup out across every component. It is safe to
// invoke with any amount of state already gone; a connection may drop
// after only partial setup.
func (g *Gateway) Disconnect(sid string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.recordStudyTime(sid)

	roomID := g.reg.Unbind(sid)
	switch KindOf(roomID) {
	case KindPrivate:
		g.publishPresence(models.PresenceUserLeft, roomID, sid)
		if _, ok := g.privates.DisconnectCleanup(sid, roomID); ok {
			g.publishPresence(models.PresencePrivateEnded, roomID, sid)
		}
	case KindMain:
		g.publishPresence(models.PresenceUserLeft, roomID, sid)
		g.hands.RemoveConn(roomID, sid)
		g.mains.Leave(sid, roomID)
	}
	g.reg.RemoveClient(sid)

	metrics.SetConnections(g.reg.ClientCount())
	metrics.SetMainRooms(g.mains.RoomCount())
	metrics.SetPrivateSessions(g.privates.SessionCount())
}

// RoomState exposes a main room's snapshot to the HTTP surface.
func (g *Gateway) RoomState(roomID string) (models.RoomState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mains.RoomState(roomID)
}

// departCurrentRoom detaches a connection from whatever room it is
// bound to, with full membership cleanup, before it binds elsewhere.
func (g *Gateway) departCurrentRoom(sid string) {
	roomID, kind := g.reg.ResolveRoom(sid)
	switch kind {
	case KindMain:
		g.hands.RemoveConn(roomID, sid)
		g.mains.Leave(sid, roomID)
	case KindPrivate:
		g.reg.RemoveIdentity(roomID, sid)
		g.hands.RemoveConn(roomID, sid)
	}
}

// recordStudyTime adds the connection's accrued whole minutes to the
// ledger. Sub-minute stays are not recorded; ledger failure never
// blocks cleanup.
func (g *Gateway) recordStudyTime(sid string) {
	c := g.reg.Client(sid)
	if c == nil || g.ledger == nil {
		return
	}
	uid, span, ok := c.studySpan(g.now())
	if !ok {
		return
	}
	minutes := int64(span.Minutes())
	if minutes <= 0 {
		return
	}
	if err := g.ledger.AddMinutes(uid, minutes); err != nil {
		g.log.Warn("study-time accrual failed", zap.Uint("user_db_id", uid), zap.Error(err))
		return
	}
	metrics.StudyMinutesRecorded(minutes)
}

func (g *Gateway) publishPresence(eventType, roomID, sid string) {
	if g.presence == nil {
		return
	}
	ev := models.PresenceEvent{
		Type:      eventType,
		RoomID:    roomID,
		SID:       sid,
		Timestamp: g.now().UnixMilli(),
	}
	if id, ok := g.reg.IdentityOf(roomID, sid); ok {
		ev.UserName = id.UserName
		ev.Role = id.Role
	}
	g.presence.Publish(ev)
}

func (g *Gateway) tokenIdentity(sid string) *models.TokenIdentity {
	if c := g.reg.Client(sid); c != nil {
		return c.Token
	}
	return nil
}

func decodeData(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, v) == nil
}
