package models

import "encoding/json"

// Roles carried by every connection. The host is positional (index 0
// of its room), not a role.
const (
	RoleAdmin   = "admin"
	RoleStudent = "student"
)

// Event is the wire envelope for everything crossing the WebSocket.
// Inbound payloads stay raw until the owning component decodes them;
// signaling payloads are forwarded without ever being decoded.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutEvent is the outbound counterpart; Data is marshalled as-is.
type OutEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Inbound event types.
const (
	EvJoinRoom            = "join_room"
	EvRequestRoomState    = "request_room_state"
	EvHandRaise           = "hand_raise"
	EvOffer               = "offer"
	EvAnswer              = "answer"
	EvICECandidate        = "ice_candidate"
	EvStartPrivateSession = "start_private_session"
	EvJoinPrivateRoom     = "join_private_room"
	EvPrivateMediaReady   = "private_media_ready"
	EvEndPrivateSession   = "end_private_session"
	EvPrivateChat         = "private_chat"
	EvPrivateChatImage    = "private_chat_image"
)

// Outbound event types.
const (
	EvRoomAssigned        = "room_assigned"
	EvUserJoined          = "user_joined"
	EvUserLeft            = "user_left"
	EvHostChanged         = "host_changed"
	EvRoomState           = "room_state"
	EvHandRaiseUpdate     = "hand_raise_update"
	EvHandStates          = "hand_states"
	EvRedirectToPrivate   = "redirect_to_private"
	EvPrivateParticipants = "private_participants"
	EvPrivateAudioSync    = "private_audio_sync"
	EvRedirectToMainRoom  = "redirect_to_main_room"
)

// JoinRoomRequest is the payload of join_room. Room may name a main
// room (invite URL) or a private session id.
type JoinRoomRequest struct {
	Room     string `json:"room,omitempty"`
	UserName string `json:"user_name"`
	Role     string `json:"role"`
	UserID   string `json:"user_id,omitempty"`
	UserDBID uint   `json:"user_db_id,omitempty"`
}

// RoomStateRequest is the payload of request_room_state.
type RoomStateRequest struct {
	RoomID string `json:"room_id,omitempty"`
}

// HandRaiseRequest is the payload of hand_raise.
type HandRaiseRequest struct {
	Raised bool `json:"raised"`
}

// StartPrivateRequest is the payload of start_private_session.
type StartPrivateRequest struct {
	StudentSID string `json:"student_sid"`
}

// JoinPrivateRequest is the payload of join_private_room.
type JoinPrivateRequest struct {
	SessionID string `json:"session_id"`
	UserName  string `json:"user_name"`
	Role      string `json:"role"`
}

// ChatRequest covers private_chat and private_chat_image.
type ChatRequest struct {
	Text    string `json:"text,omitempty"`
	DataURL string `json:"data_url,omitempty"`
}

// Participant is one slot of a main-room snapshot.
type Participant struct {
	SID                   string `json:"sid"`
	UserName              string `json:"user_name"`
	Role                  string `json:"role"`
	Connected             bool   `json:"connected"`
	IsHost                bool   `json:"is_host"`
	TotalStudyTimeMinutes int64  `json:"total_study_time_minutes"`
}

// RoomState is the payload of room_state and the participants part of
// room_assigned.
type RoomState struct {
	Participants []Participant `json:"participants"`
	HostSID      string        `json:"host_sid,omitempty"`
}

// RoomAssigned is the payload of room_assigned, sent to a joiner only.
type RoomAssigned struct {
	RoomID       string        `json:"room_id"`
	IsHost       bool          `json:"is_host"`
	Participants []Participant `json:"participants"`
}

// UserJoined is the payload of user_joined.
type UserJoined struct {
	SID                   string `json:"sid"`
	UserName              string `json:"user_name"`
	Role                  string `json:"role"`
	TotalStudyTimeMinutes int64  `json:"total_study_time_minutes,omitempty"`
}

// UserLeft is the payload of user_left.
type UserLeft struct {
	SID      string `json:"sid"`
	UserName string `json:"user_name,omitempty"`
}

// HostChanged is broadcast when the index-0 participant departs.
type HostChanged struct {
	NewHostSID  string `json:"new_host_sid"`
	NewHostName string `json:"new_host_name"`
}

// HandState is one entry of a hand_states snapshot.
type HandState struct {
	SID      string `json:"sid"`
	UserName string `json:"user_name"`
	Role     string `json:"role"`
	Raised   bool   `json:"raised"`
}

// HandStates is the payload of hand_states.
type HandStates struct {
	States []HandState `json:"states"`
}

// HandRaiseUpdate is the payload of hand_raise_update.
type HandRaiseUpdate struct {
	SID      string `json:"sid"`
	UserName string `json:"user_name"`
	Raised   bool   `json:"raised"`
}

// RedirectToPrivate tells both legs to move into a breakout session.
type RedirectToPrivate struct {
	SessionID string `json:"session_id"`
	MainRoom  string `json:"main_room"`
}

// RedirectToMainRoom tells a private-session leg to return home.
type RedirectToMainRoom struct {
	MainRoom string `json:"main_room"`
}

// PrivateParticipant is one leg of a private session roster.
type PrivateParticipant struct {
	SID      string `json:"sid"`
	UserName string `json:"user_name"`
	Role     string `json:"role"`
}

// PrivateParticipants is the payload of private_participants.
type PrivateParticipants struct {
	Participants []PrivateParticipant `json:"participants"`
}

// ChatMessage is the outbound payload of private_chat and
// private_chat_image.
type ChatMessage struct {
	SenderSID string `json:"sender_sid"`
	UserName  string `json:"user_name"`
	Text      string `json:"text,omitempty"`
	DataURL   string `json:"data_url,omitempty"`
}

// TokenIdentity is what a validated JWT contributes to a connection.
// When present it overrides client-supplied identity fields.
type TokenIdentity struct {
	UserDBID uint
	Name     string
	Role     string
}

// PresenceEvent is published to Redis for other services to observe.
// Advisory only; the in-memory registry stays authoritative.
type PresenceEvent struct {
	Type      string `json:"type"`
	RoomID    string `json:"roomId"`
	SID       string `json:"sid"`
	UserName  string `json:"userName,omitempty"`
	Role      string `json:"role,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Presence event types.
const (
	PresenceUserJoined     = "user-joined"
	PresenceUserLeft       = "user-left"
	PresencePrivateStarted = "private-started"
	PresencePrivateEnded   = "private-ended"
)
