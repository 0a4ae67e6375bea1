package ws

import "realtime-service/internal/models"

// Semantic fanout surface consumed by the message pipeline and notification
// fanout. Each method owns its event name so producers never spell wire
// vocabulary themselves.

// BroadcastNewMessage delivers a persisted message to every device that
// joined the conversation room.
func (h *Hub) BroadcastNewMessage(msg models.Message) int {
	return h.BroadcastRoom(ConversationRoom(msg.SenderID, msg.ReceiverID), EvtNewMessage, msg)
}

// EmitMessageNotification pings the receiver's personal room, covering the
// case where the receiver has not joined the conversation room yet.
func (h *Hub) EmitMessageNotification(msg models.Message) int {
	return h.EmitUser(msg.ReceiverID, EvtMessageNotification, msg)
}

// PushNotification delivers a stored notification to the recipient's live
// connections.
func (h *Hub) PushNotification(n models.Notification) int {
	return h.EmitUser(n.RecipientID, EvtNotification, n)
}
