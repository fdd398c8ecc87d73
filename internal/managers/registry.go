package managers

import (
	"strings"

	"studyroom/internal/models"
)

// PrivateRoomPrefix namespaces breakout-session ids away from main
// room ids. Main room ids never carry it.
const PrivateRoomPrefix = "private_"

// RoomKind is the result of resolving a room id once at the registry
// boundary, so nothing downstream re-parses id strings.
type RoomKind int

const (
	KindNone RoomKind = iota
	KindMain
	KindPrivate
)

// KindOf classifies a room id.
func KindOf(roomID string) RoomKind {
	switch {
	case roomID == "":
		return KindNone
	case strings.HasPrefix(roomID, PrivateRoomPrefix):
		return KindPrivate
	default:
		return KindMain
	}
}

// Identity is the per-room name/role record kept for every member,
// shared by the hand-raise tracker and the chat relay.
type Identity struct {
	UserName string
	Role     string
}

// Registry is the single source of truth for "where is this
// connection". It owns the live Client objects, the connection→room
// binding, and the per-room identity roster. All mutation happens
// under the gateway's event lock; the registry itself carries no
// locking.
type Registry struct {
	clients map[string]*Client
	binding map[string]string              // sid -> room id
	roster  map[string]map[string]Identity // room id -> sid -> identity
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		binding: make(map[string]string),
		roster:  make(map[string]map[string]Identity),
	}
}

func (r *Registry) AddClient(c *Client) { r.clients[c.SID] = c }

func (r *Registry) RemoveClient(sid string) { delete(r.clients, sid) }

func (r *Registry) Client(sid string) *Client { return r.clients[sid] }

func (r *Registry) ClientCount() int { return len(r.clients) }

// ResolveRoom returns the current binding and its kind.
func (r *Registry) ResolveRoom(sid string) (string, RoomKind) {
	room := r.binding[sid]
	return room, KindOf(room)
}

// Bind overwrites any prior binding, last write wins. Membership
// cleanup in the previous room is the caller's job; the registry only
// records the pointer.
func (r *Registry) Bind(sid, roomID string) { r.binding[sid] = roomID }

// Unbind removes and returns the prior binding.
func (r *Registry) Unbind(sid string) string {
	room := r.binding[sid]
	delete(r.binding, sid)
	return room
}

// SameRoom reports whether both connections currently resolve to the
// same room. Either side missing means no.
func (r *Registry) SameRoom(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	ra, ok := r.binding[a]
	if !ok || ra == "" {
		return false
	}
	return ra == r.binding[b]
}

// SetIdentity records a member in a room's roster.
func (r *Registry) SetIdentity(roomID, sid string, id Identity) {
	members, ok := r.roster[roomID]
	if !ok {
		members = make(map[string]Identity)
		r.roster[roomID] = members
	}
	members[sid] = id
}

// IdentityOf looks up a member's roster record.
func (r *Registry) IdentityOf(roomID, sid string) (Identity, bool) {
	id, ok := r.roster[roomID][sid]
	return id, ok
}

// RemoveIdentity drops a member from a room's roster.
func (r *Registry) RemoveIdentity(roomID, sid string) {
	if members, ok := r.roster[roomID]; ok {
		delete(members, sid)
		if len(members) == 0 {
			delete(r.roster, roomID)
		}
	}
}

// DeleteRoster removes a whole room's roster (private-session
// teardown).
func (r *Registry) DeleteRoster(roomID string) { delete(r.roster, roomID) }

// RosterSIDs lists a room's member sids.
func (r *Registry) RosterSIDs(roomID string) []string {
	members := r.roster[roomID]
	sids := make([]string, 0, len(members))
	for sid := range members {
		sids = append(sids, sid)
	}
	return sids
}

// SendTo delivers one event to one connection; absent targets are
// silently ignored (stale references are expected churn).
func (r *Registry) SendTo(sid string, ev models.OutEvent) {
	if c := r.clients[sid]; c != nil {
		c.Send(ev)
	}
}

// Broadcast delivers to every roster member of a room.
func (r *Registry) Broadcast(roomID string, ev models.OutEvent) {
	for sid := range r.roster[roomID] {
		r.SendTo(sid, ev)
	}
}

// BroadcastExcept delivers to every roster member but one.
func (r *Registry) BroadcastExcept(roomID, exceptSID string, ev models.OutEvent) {
	for sid := range r.roster[roomID] {
		if sid == exceptSID {
			continue
		}
		r.SendTo(sid, ev)
	}
}
