package managers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyroom/internal/models"
)

// seedPrivatePair joins an admin and a student into a main room and
// starts a breakout between them, returning both captures and the
// session id.
func seedPrivatePair(t *testing.T, g *Gateway) (admin, student *capture, sessionID string) {
	t.Helper()
	admin = connect(g, "admin")
	joinMain(t, g, "admin", "study-1", "prof", models.RoleAdmin)
	student = connect(g, "student")
	joinMain(t, g, "student", "study-1", "alice", models.RoleStudent)

	admin.reset()
	student.reset()
	send(t, g, "admin", models.EvStartPrivateSession, models.StartPrivateRequest{StudentSID: "student"})

	redirect := admin.last(t, models.EvRedirectToPrivate).Data.(models.RedirectToPrivate)
	return admin, student, redirect.SessionID
}

func TestStartPrivateRedirectsBothLegs(t *testing.T) {
	g, _ := newTestGateway(t)
	admin, student, sessionID := seedPrivatePair(t, g)

	assert.True(t, strings.HasPrefix(sessionID, PrivateRoomPrefix))
	for _, cap := range []*capture{admin, student} {
		redirect := cap.last(t, models.EvRedirectToPrivate).Data.(models.RedirectToPrivate)
		assert.Equal(t, sessionID, redirect.SessionID)
		assert.Equal(t, "study-1", redirect.MainRoom)
	}

	// Starting a session leaves main-room membership untouched until
	// each leg actually joins the breakout.
	state, ok := g.RoomState("study-1")
	require.True(t, ok)
	assert.Len(t, state.Participants, 2)
}

func TestStartPrivateRejectedForNonAdmin(t *testing.T) {
	g, _ := newTestGateway(t)

	a := connect(g, "a")
	joinMain(t, g, "a", "study-1", "a", models.RoleStudent)
	b := connect(g, "b")
	joinMain(t, g, "b", "study-1", "b", models.RoleStudent)

	a.reset()
	b.reset()
	send(t, g, "a", models.EvStartPrivateSession, models.StartPrivateRequest{StudentSID: "b"})
	assert.Empty(t, a.events)
	assert.Empty(t, b.events)
	assert.Zero(t, g.privates.SessionCount())
}

func TestStartPrivateRejectedForForeignStudent(t *testing.T) {
	g, _ := newTestGateway(t)

	admin := connect(g, "admin")
	joinMain(t, g, "admin", "study-1", "prof", models.RoleAdmin)
	other := connect(g, "other")
	joinMain(t, g, "other", "study-2", "bob", models.RoleStudent)

	admin.reset()
	other.reset()
	send(t, g, "admin", models.EvStartPrivateSession, models.StartPrivateRequest{StudentSID: "other"})
	assert.Empty(t, admin.events)
	assert.Empty(t, other.events)
}

func TestJoinPrivateRoomMovesMemberOutOfMain(t *testing.T) {
	g, _ := newTestGateway(t)
	admin, student, sessionID := seedPrivatePair(t, g)

	bystander := connect(g, "bystander")
	joinMain(t, g, "bystander", "study-1", "carol", models.RoleStudent)

	admin.reset()
	student.reset()
	bystander.reset()

	// join_room with the private id moves the leg out of the main
	// room; the remaining main members see a departure.
	send(t, g, "admin", models.EvJoinRoom, models.JoinRoomRequest{Room: sessionID, UserName: "prof", Role: models.RoleAdmin})
	left := bystander.last(t, models.EvUserLeft).Data.(models.UserLeft)
	assert.Equal(t, "admin", left.SID)

	state, ok := g.RoomState("study-1")
	require.True(t, ok)
	assert.Len(t, state.Participants, 2)

	send(t, g, "student", models.EvJoinRoom, models.JoinRoomRequest{Room: sessionID, UserName: "alice", Role: models.RoleStudent})

	// The second leg's arrival reaches the first.
	joined := admin.last(t, models.EvUserJoined).Data.(models.UserJoined)
	assert.Equal(t, "student", joined.SID)
}

func TestJoinPrivateSessionBroadcastsParticipants(t *testing.T) {
	g, _ := newTestGateway(t)
	admin, student, sessionID := seedPrivatePair(t, g)

	admin.reset()
	student.reset()
	send(t, g, "admin", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "prof", Role: models.RoleAdmin})
	send(t, g, "student", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "alice", Role: models.RoleStudent})

	parts := admin.last(t, models.EvPrivateParticipants).Data.(models.PrivateParticipants)
	assert.Len(t, parts.Participants, 2)
	assert.NotEmpty(t, admin.ofType(models.EvPrivateAudioSync))
	assert.NotEmpty(t, student.ofType(models.EvPrivateAudioSync))
}

func TestJoinUnknownPrivateRoomIgnored(t *testing.T) {
	g, _ := newTestGateway(t)

	cap := connect(g, "a")
	joinMain(t, g, "a", "study-1", "a", models.RoleStudent)
	cap.reset()

	send(t, g, "a", models.EvJoinRoom, models.JoinRoomRequest{Room: PrivateRoomPrefix + "deadbeef", UserName: "a", Role: models.RoleStudent})
	assert.Empty(t, cap.ofType(models.EvRoomAssigned))

	// Still a member of the main room.
	state, ok := g.RoomState("study-1")
	require.True(t, ok)
	assert.Equal(t, "a", state.HostSID)
}

func TestEndPrivateSessionRedirectsBothLegs(t *testing.T) {
	g, _ := newTestGateway(t)
	admin, student, sessionID := seedPrivatePair(t, g)

	send(t, g, "admin", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "prof", Role: models.RoleAdmin})
	send(t, g, "student", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "alice", Role: models.RoleStudent})

	admin.reset()
	student.reset()
	send(t, g, "student", models.EvEndPrivateSession, nil)

	for _, cap := range []*capture{admin, student} {
		back := cap.last(t, models.EvRedirectToMainRoom).Data.(models.RedirectToMainRoom)
		assert.Equal(t, "study-1", back.MainRoom)
	}
	assert.Zero(t, g.privates.SessionCount())

	// Ending an already-ended session does nothing.
	admin.reset()
	student.reset()
	send(t, g, "admin", models.EvEndPrivateSession, nil)
	assert.Empty(t, admin.events)
	assert.Empty(t, student.events)
}

func TestPrivateDisconnectRedirectsSurvivor(t *testing.T) {
	g, _ := newTestGateway(t)
	_, student, sessionID := seedPrivatePair(t, g)

	send(t, g, "admin", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "prof", Role: models.RoleAdmin})
	send(t, g, "student", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "alice", Role: models.RoleStudent})

	student.reset()
	g.Disconnect("admin")

	back := student.last(t, models.EvRedirectToMainRoom).Data.(models.RedirectToMainRoom)
	assert.Equal(t, "study-1", back.MainRoom)
	assert.Zero(t, g.privates.SessionCount())
}

func TestPrivateChatEchoesToBothLegs(t *testing.T) {
	g, _ := newTestGateway(t)
	admin, student, sessionID := seedPrivatePair(t, g)

	send(t, g, "admin", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "prof", Role: models.RoleAdmin})
	send(t, g, "student", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "alice", Role: models.RoleStudent})

	admin.reset()
	student.reset()
	send(t, g, "student", models.EvPrivateChat, models.ChatRequest{Text: "question about q3"})

	for _, cap := range []*capture{admin, student} {
		msg := cap.last(t, models.EvPrivateChat).Data.(models.ChatMessage)
		assert.Equal(t, "student", msg.SenderSID)
		assert.Equal(t, "alice", msg.UserName)
		assert.Equal(t, "question about q3", msg.Text)
	}
}

func TestPrivateChatFromMainRoomIgnored(t *testing.T) {
	g, _ := newTestGateway(t)

	a := connect(g, "a")
	joinMain(t, g, "a", "study-1", "a", models.RoleStudent)
	b := connect(g, "b")
	joinMain(t, g, "b", "study-1", "b", models.RoleStudent)

	a.reset()
	b.reset()
	send(t, g, "a", models.EvPrivateChat, models.ChatRequest{Text: "hi"})
	assert.Empty(t, a.ofType(models.EvPrivateChat))
	assert.Empty(t, b.ofType(models.EvPrivateChat))
}

func TestSignalingRelayedInsidePrivateSession(t *testing.T) {
	g, _ := newTestGateway(t)
	_, student, sessionID := seedPrivatePair(t, g)

	send(t, g, "admin", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "prof", Role: models.RoleAdmin})
	send(t, g, "student", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "alice", Role: models.RoleStudent})

	student.reset()
	g.HandleEvent("admin", models.Event{Type: models.EvOffer, Data: json.RawMessage(`{"target":"student","sdp":"v=0"}`)})
	require.Len(t, student.ofType(models.EvOffer), 1)
}

func TestMediaReadyForwardedToPartner(t *testing.T) {
	g, _ := newTestGateway(t)
	admin, student, sessionID := seedPrivatePair(t, g)

	send(t, g, "admin", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "prof", Role: models.RoleAdmin})
	send(t, g, "student", models.EvJoinPrivateRoom, models.JoinPrivateRequest{SessionID: sessionID, UserName: "alice", Role: models.RoleStudent})

	admin.reset()
	student.reset()
	send(t, g, "student", models.EvPrivateMediaReady, nil)
	assert.NotEmpty(t, admin.ofType(models.EvPrivateAudioSync))
	assert.NotEmpty(t, student.ofType(models.EvPrivateAudioSync))
}
