package ws

import "encoding/json"

// Client-to-server event names.
const (
	EvtJoinConversation  = "join_conversation"
	EvtLeaveConversation = "leave_conversation"
	EvtSendMessage       = "send_message"
	EvtTyping            = "typing"
	EvtCallSignal        = "call_signal"
	EvtCallAnswer        = "call_answer"
	EvtCallEnd           = "call_end"
	EvtIceCandidate      = "ice_candidate"
	EvtGroupCallInvite   = "group_call_invite"
	EvtNewPost           = "new_post"
	EvtPostLiked         = "post_liked"
	EvtNewComment        = "new_comment"
)

// Server-to-client event names.
const (
	EvtNewMessage          = "new_message"
	EvtMessageNotification = "message_notification"
	EvtUserTyping          = "user_typing"
	EvtIncomingCall        = "incoming_call"
	EvtCallAnswered        = "call_answered"
	EvtCallEnded           = "call_ended"
	EvtNotification        = "notification"
	EvtAck                 = "ack"
	EvtError               = "error"
)

// InboundEvent is the tagged envelope every client frame must carry. The
// payload schema is fixed per event name and validated before dispatch.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutgoingEvent is the envelope for server-to-client frames.
type OutgoingEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// RoomPayload names a room to join or leave.
type RoomPayload struct {
	Room string `json:"room"`
}

// SendMessagePayload carries a message send over the socket.
type SendMessagePayload struct {
	ReceiverID     int     `json:"receiver_id"`
	Content        *string `json:"content,omitempty"`
	Type           string  `json:"type,omitempty"`
	AttachmentURL  *string `json:"attachment_url,omitempty"`
	AttachmentName *string `json:"attachment_name,omitempty"`
	MimeType       string  `json:"mime_type,omitempty"`
	ReplyToID      *int    `json:"reply_to_id,omitempty"`
}

// TypingPayload toggles the typing indicator in a conversation.
type TypingPayload struct {
	ReceiverID int  `json:"receiver_id"`
	Typing     bool `json:"typing"`
}

// CallSignalPayload opens a call: the initial WebRTC offer plus the call kind.
// The signal body is relayed opaquely.
type CallSignalPayload struct {
	TargetID int             `json:"target_id"`
	Kind     string          `json:"kind"`
	Signal   json.RawMessage `json:"signal"`
}

// CallAnswerPayload relays the answer leg of the handshake.
type CallAnswerPayload struct {
	TargetID  int             `json:"target_id"`
	SessionID int             `json:"session_id,omitempty"`
	Signal    json.RawMessage `json:"signal"`
}

// CallEndPayload tears down the signaling leg.
type CallEndPayload struct {
	TargetID  int `json:"target_id"`
	SessionID int `json:"session_id,omitempty"`
}

// IceCandidatePayload relays one ICE candidate.
type IceCandidatePayload struct {
	TargetID  int             `json:"target_id"`
	Candidate json.RawMessage `json:"candidate"`
}

// GroupCallInvitePayload fans an invitation out to a participant list.
type GroupCallInvitePayload struct {
	ParticipantIDs []int           `json:"participant_ids"`
	Kind           string          `json:"kind"`
	Signal         json.RawMessage `json:"signal,omitempty"`
}

// CallRelay is the server-tagged shape pushed to signaling targets. SenderID
// is always the authenticated sender, never a client-supplied value.
type CallRelay struct {
	SenderID  int             `json:"sender_id"`
	SessionID int             `json:"session_id,omitempty"`
	Kind      string          `json:"kind,omitempty"`
	Signal    json.RawMessage `json:"signal,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// TypingRelay is pushed to conversation peers while a user types.
type TypingRelay struct {
	SenderID int  `json:"sender_id"`
	Typing   bool `json:"typing"`
}

// ErrorPayload is sent to the originating connection when one operation
// fails. The connection itself stays up.
type ErrorPayload struct {
	Event  string `json:"event"`
	Reason string `json:"reason"`
}

// AckPayload acknowledges a successful operation to its sender.
type AckPayload struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}
