package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"realtime-service/internal/services"
)

const eventTimeout = 10 * time.Second

// dispatch validates the envelope and routes one inbound frame. A bad payload
// fails only that operation; the connection stays up and other members are
// unaffected.
func (h *RelayHandler) dispatch(c *Client, raw []byte) {
	var evt InboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil || evt.Event == "" {
		h.sendError(c, "", "malformed event envelope")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()

	switch evt.Event {
	case EvtJoinConversation:
		var p RoomPayload
		if !h.decode(c, evt, &p) || p.Room == "" {
			return
		}
		h.hub.Join(c, p.Room)

	case EvtLeaveConversation:
		var p RoomPayload
		if !h.decode(c, evt, &p) || p.Room == "" {
			return
		}
		h.hub.Leave(c, p.Room)

	case EvtSendMessage:
		h.handleSendMessage(ctx, c, evt)

	case EvtTyping:
		var p TypingPayload
		if !h.decode(c, evt, &p) {
			return
		}
		room := ConversationRoom(c.UserID, p.ReceiverID)
		h.hub.BroadcastRoomExcept(room, EvtUserTyping, TypingRelay{SenderID: c.UserID, Typing: p.Typing}, c)

	case EvtCallSignal:
		h.handleCallSignal(ctx, c, evt)

	case EvtCallAnswer:
		var p CallAnswerPayload
		if !h.decode(c, evt, &p) {
			return
		}
		h.relay(p.TargetID, EvtCallAnswered, CallRelay{SenderID: c.UserID, SessionID: p.SessionID, Signal: p.Signal})

	case EvtCallEnd:
		var p CallEndPayload
		if !h.decode(c, evt, &p) {
			return
		}
		h.relay(p.TargetID, EvtCallEnded, CallRelay{SenderID: c.UserID, SessionID: p.SessionID})

	case EvtIceCandidate:
		var p IceCandidatePayload
		if !h.decode(c, evt, &p) {
			return
		}
		h.relay(p.TargetID, EvtIceCandidate, CallRelay{SenderID: c.UserID, Candidate: p.Candidate})

	case EvtGroupCallInvite:
		h.handleGroupCallInvite(ctx, c, evt)

	case EvtNewPost, EvtPostLiked, EvtNewComment:
		// Feed-wide events are relayed globally, not room-scoped.
		h.hub.BroadcastAll(evt.Event, evt.Data)

	default:
		h.sendError(c, evt.Event, "unknown event")
	}
}

func (h *RelayHandler) handleSendMessage(ctx context.Context, c *Client, evt InboundEvent) {
	var p SendMessagePayload
	if !h.decode(c, evt, &p) {
		return
	}

	msg, err := h.messages.Send(ctx, c.UserID, services.SendMessageInput{
		ReceiverID:     p.ReceiverID,
		Content:        p.Content,
		Type:           p.Type,
		AttachmentURL:  p.AttachmentURL,
		AttachmentName: p.AttachmentName,
		MimeType:       p.MimeType,
		ReplyToID:      p.ReplyToID,
	})
	if err != nil {
		// The sender always hears back: a validation reason, or a store
		// failure it can retry. Peers only ever see persisted state.
		h.sendError(c, evt.Event, reasonFor(err))
		return
	}

	h.hub.send(c, EvtAck, AckPayload{Event: evt.Event, Data: msg})
}

func (h *RelayHandler) handleCallSignal(ctx context.Context, c *Client, evt InboundEvent) {
	var p CallSignalPayload
	if !h.decode(c, evt, &p) {
		return
	}

	session, err := h.calls.Start(ctx, c.UserID, p.TargetID, p.Kind)
	if err != nil {
		h.sendError(c, evt.Event, reasonFor(err))
		return
	}

	h.relay(p.TargetID, EvtIncomingCall, CallRelay{
		SenderID:  c.UserID,
		SessionID: session.ID,
		Kind:      session.Kind,
		Signal:    p.Signal,
	})
	h.hub.send(c, EvtAck, AckPayload{Event: evt.Event, Data: session})

	if h.notifications != nil {
		if _, err := h.notifications.Notify(ctx, p.TargetID, "call", h.callTitle(ctx, c.UserID, "Incoming call"), session.Kind, &session.ID); err != nil {
			log.Warn().Err(err).Int("session_id", session.ID).Msg("call notification failed")
		}
	}
}

// callTitle names the caller when the directory can resolve them.
func (h *RelayHandler) callTitle(ctx context.Context, callerID int, base string) string {
	if h.users == nil {
		return base
	}
	user, err := h.users.GetUser(ctx, callerID)
	if err != nil || user.Username == "" {
		return base
	}
	return base + " from " + user.Username
}

func (h *RelayHandler) handleGroupCallInvite(ctx context.Context, c *Client, evt InboundEvent) {
	var p GroupCallInvitePayload
	if !h.decode(c, evt, &p) {
		return
	}
	if len(p.ParticipantIDs) == 0 {
		h.sendError(c, evt.Event, "empty participant list")
		return
	}

	relayed := CallRelay{SenderID: c.UserID, Kind: p.Kind, Signal: p.Signal}
	for _, id := range p.ParticipantIDs {
		if id == c.UserID {
			continue
		}
		h.hub.EmitUser(id, EvtGroupCallInvite, relayed)
		if h.notifications != nil {
			if _, err := h.notifications.Notify(ctx, id, "call", h.callTitle(ctx, c.UserID, "Group call invitation"), p.Kind, nil); err != nil {
				log.Warn().Err(err).Int("participant_id", id).Msg("group invite notification failed")
			}
		}
	}
}

// relay forwards an opaque signaling payload to every connection of the
// target user, tagged with the authenticated sender id. Fire and forget: an
// offline target simply misses the event.
func (h *RelayHandler) relay(targetID int, event string, data CallRelay) int {
	delivered := h.hub.EmitUser(targetID, event, data)
	if delivered == 0 {
		log.Debug().Int("target_id", targetID).Str("event", event).Msg("signal target offline")
	}
	return delivered
}

func (h *RelayHandler) decode(c *Client, evt InboundEvent, into any) bool {
	if err := json.Unmarshal(evt.Data, into); err != nil {
		h.sendError(c, evt.Event, "malformed payload")
		return false
	}
	return true
}

func (h *RelayHandler) sendError(c *Client, event, reason string) {
	h.hub.send(c, EvtError, ErrorPayload{Event: event, Reason: reason})
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidReceiver),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrBadAttachment),
		errors.Is(err, services.ErrInvalidType),
		errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidReaction):
		return err.Error()
	default:
		return "operation failed"
	}
}
