package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
	"realtime-service/internal/services"
)

func frame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(InboundEvent{Event: event, Data: data})
	require.NoError(t, err)
	return raw
}

func TestDispatchMalformedEnvelope(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	c := newTestClient("c1", 1)
	h.hub.Register(c)

	h.dispatch(c, []byte("not json"))

	events := drain(t, c)
	require.Len(t, events, 1)
	assert.Equal(t, EvtError, events[0].Event)
}

func TestDispatchUnknownEvent(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	c := newTestClient("c1", 1)
	h.hub.Register(c)

	h.dispatch(c, frame(t, "warp_drive", map[string]any{}))

	events := drain(t, c)
	require.Len(t, events, 1)
	assert.Equal(t, EvtError, events[0].Event)
	body := events[0].Data.(map[string]any)
	assert.Equal(t, "unknown event", body["reason"])
}

func TestDispatchTypingExcludesSender(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	alice := newTestClient("alice", 1)
	bob := newTestClient("bob", 2)
	h.hub.Register(alice)
	h.hub.Register(bob)

	room := ConversationRoom(1, 2)
	h.hub.Join(alice, room)
	h.hub.Join(bob, room)

	h.dispatch(alice, frame(t, EvtTyping, TypingPayload{ReceiverID: 2, Typing: true}))

	assert.Empty(t, drain(t, alice))
	events := drain(t, bob)
	require.Len(t, events, 1)
	assert.Equal(t, EvtUserTyping, events[0].Event)
	body := events[0].Data.(map[string]any)
	assert.Equal(t, float64(1), body["sender_id"])
	assert.Equal(t, true, body["typing"])
}

func TestDispatchCallSignalOpensSessionAndRelays(t *testing.T) {
	callRepo := new(mocks.CallRepositoryMock)
	callRepo.On("Create", mock.Anything, 1, 2, models.CallKindVideo).
		Return(models.CallSession{ID: 77, CallerID: 1, ReceiverID: 2, Kind: models.CallKindVideo, Status: models.CallStatusOngoing}, nil)

	h := &RelayHandler{hub: NewHub(), calls: services.NewCallService(callRepo)}
	caller := newTestClient("caller", 1)
	callee := newTestClient("callee", 2)
	h.hub.Register(caller)
	h.hub.Register(callee)

	offer := json.RawMessage(`{"type":"offer","sdp":"v=0"}`)
	h.dispatch(caller, frame(t, EvtCallSignal, CallSignalPayload{TargetID: 2, Kind: models.CallKindVideo, Signal: offer}))

	pushed := drain(t, callee)
	require.Len(t, pushed, 1)
	assert.Equal(t, EvtIncomingCall, pushed[0].Event)
	body := pushed[0].Data.(map[string]any)
	assert.Equal(t, float64(1), body["sender_id"])
	assert.Equal(t, float64(77), body["session_id"])
	assert.Equal(t, models.CallKindVideo, body["kind"])

	acks := drain(t, caller)
	require.Len(t, acks, 1)
	assert.Equal(t, EvtAck, acks[0].Event)

	callRepo.AssertExpectations(t)
}

func TestDispatchCallSignalInvalidKind(t *testing.T) {
	callRepo := new(mocks.CallRepositoryMock)
	h := &RelayHandler{hub: NewHub(), calls: services.NewCallService(callRepo)}
	caller := newTestClient("caller", 1)
	callee := newTestClient("callee", 2)
	h.hub.Register(caller)
	h.hub.Register(callee)

	h.dispatch(caller, frame(t, EvtCallSignal, CallSignalPayload{TargetID: 2, Kind: "hologram"}))

	events := drain(t, caller)
	require.Len(t, events, 1)
	assert.Equal(t, EvtError, events[0].Event)
	body := events[0].Data.(map[string]any)
	assert.Equal(t, services.ErrInvalidKind.Error(), body["reason"])

	// Nothing reaches the callee and no session is opened.
	assert.Empty(t, drain(t, callee))
	callRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatchCallAnswerTagsSender(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	callee := newTestClient("callee", 2)
	caller := newTestClient("caller", 1)
	h.hub.Register(callee)
	h.hub.Register(caller)

	answer := json.RawMessage(`{"type":"answer","sdp":"v=0"}`)
	h.dispatch(callee, frame(t, EvtCallAnswer, CallAnswerPayload{TargetID: 1, SessionID: 77, Signal: answer}))

	events := drain(t, caller)
	require.Len(t, events, 1)
	assert.Equal(t, EvtCallAnswered, events[0].Event)
	body := events[0].Data.(map[string]any)
	assert.Equal(t, float64(2), body["sender_id"])
	assert.Equal(t, float64(77), body["session_id"])
}

func TestDispatchIceCandidateToOfflineTarget(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	caller := newTestClient("caller", 1)
	h.hub.Register(caller)

	candidate := json.RawMessage(`{"candidate":"udp 1"}`)
	h.dispatch(caller, frame(t, EvtIceCandidate, IceCandidatePayload{TargetID: 99, Candidate: candidate}))

	// Fire and forget: no error frame comes back for an offline target.
	assert.Empty(t, drain(t, caller))
}

func TestDispatchGroupInviteSkipsInviter(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	inviter := newTestClient("inviter", 1)
	peer2 := newTestClient("peer2", 2)
	peer3 := newTestClient("peer3", 3)
	h.hub.Register(inviter)
	h.hub.Register(peer2)
	h.hub.Register(peer3)

	h.dispatch(inviter, frame(t, EvtGroupCallInvite, GroupCallInvitePayload{
		ParticipantIDs: []int{1, 2, 3},
		Kind:           models.CallKindVoice,
	}))

	assert.Empty(t, drain(t, inviter))
	for _, peer := range []*Client{peer2, peer3} {
		events := drain(t, peer)
		require.Len(t, events, 1)
		assert.Equal(t, EvtGroupCallInvite, events[0].Event)
		body := events[0].Data.(map[string]any)
		assert.Equal(t, float64(1), body["sender_id"])
	}
}

func TestDispatchGroupInviteEmptyList(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	inviter := newTestClient("inviter", 1)
	h.hub.Register(inviter)

	h.dispatch(inviter, frame(t, EvtGroupCallInvite, GroupCallInvitePayload{Kind: models.CallKindVoice}))

	events := drain(t, inviter)
	require.Len(t, events, 1)
	assert.Equal(t, EvtError, events[0].Event)
}

func TestDispatchSendMessageEmptyRejected(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	fanout := new(mocks.FanoutMock)
	svc := services.NewMessageService(msgRepo, new(mocks.ReactionRepositoryMock), fanout, nil, nil)

	h := &RelayHandler{hub: NewHub(), messages: svc}
	c := newTestClient("c1", 1)
	h.hub.Register(c)

	h.dispatch(c, frame(t, EvtSendMessage, SendMessagePayload{ReceiverID: 2}))

	events := drain(t, c)
	require.Len(t, events, 1)
	assert.Equal(t, EvtError, events[0].Event)
	body := events[0].Data.(map[string]any)
	assert.Equal(t, services.ErrEmptyMessage.Error(), body["reason"])

	msgRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
	fanout.AssertNotCalled(t, "BroadcastNewMessage", mock.Anything)
}

func TestDispatchSendMessageAcksAndFansOut(t *testing.T) {
	content := "hello"
	stored := models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Content: &content, Type: models.MessageTypeText}

	msgRepo := new(mocks.MessageRepositoryMock)
	msgRepo.On("CreateMessage", mock.Anything, mock.Anything).Return(stored, nil)

	h := &RelayHandler{hub: NewHub()}
	h.messages = services.NewMessageService(msgRepo, new(mocks.ReactionRepositoryMock), h.hub, nil, nil)

	sender := newTestClient("sender", 1)
	receiver := newTestClient("receiver", 2)
	h.hub.Register(sender)
	h.hub.Register(receiver)
	room := ConversationRoom(1, 2)
	h.hub.Join(sender, room)
	h.hub.Join(receiver, room)

	h.dispatch(sender, frame(t, EvtSendMessage, SendMessagePayload{ReceiverID: 2, Content: &content}))

	// Receiver sees the room broadcast plus the personal-room notification.
	got := drain(t, receiver)
	require.Len(t, got, 2)
	assert.Equal(t, EvtNewMessage, got[0].Event)
	assert.Equal(t, EvtMessageNotification, got[1].Event)

	// Sender sees the room broadcast and the ack.
	mine := drain(t, sender)
	require.Len(t, mine, 2)
	assert.Equal(t, EvtNewMessage, mine[0].Event)
	assert.Equal(t, EvtAck, mine[1].Event)

	msgRepo.AssertExpectations(t)
}

func TestDispatchJoinLeaveRoom(t *testing.T) {
	h := &RelayHandler{hub: NewHub()}
	c := newTestClient("c1", 1)
	h.hub.Register(c)

	room := ConversationRoom(1, 5)
	h.dispatch(c, frame(t, EvtJoinConversation, RoomPayload{Room: room}))
	assert.Len(t, h.hub.MembersOf(room), 1)

	h.dispatch(c, frame(t, EvtLeaveConversation, RoomPayload{Room: room}))
	assert.Empty(t, h.hub.MembersOf(room))
}
