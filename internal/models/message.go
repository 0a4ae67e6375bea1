package models

import "time"

// Message types. Inferred from the attachment MIME family when the client
// does not supply one.
const (
	MessageTypeText      = "text"
	MessageTypeImage     = "image"
	MessageTypeDocument  = "document"
	MessageTypeVoice     = "voice"
	MessageTypeCallStart = "call_start"
	MessageTypeCallEnd   = "call_end"
)

// ValidMessageType reports whether t is one of the closed message type set.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeDocument, MessageTypeVoice, MessageTypeCallStart, MessageTypeCallEnd:
		return true
	}
	return false
}

// Message represents a direct message between two users. Messages are
// immutable once stored except for the read flag and attached reactions.
type Message struct {
	ID             int        `db:"id" json:"id"`
	SenderID       int        `db:"sender_id" json:"sender_id"`
	ReceiverID     int        `db:"receiver_id" json:"receiver_id"`
	Content        *string    `db:"content" json:"content"`
	Type           string     `db:"type" json:"type"`
	AttachmentURL  *string    `db:"attachment_url" json:"attachment_url,omitempty"`
	AttachmentName *string    `db:"attachment_name" json:"attachment_name,omitempty"`
	ReplyToID      *int       `db:"reply_to_id" json:"reply_to_id,omitempty"`
	IsRead         bool       `db:"is_read" json:"is_read"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	SenderName     string     `db:"sender_name" json:"sender_name,omitempty"`
	ReplyTo        *ReplyRef  `json:"reply_to,omitempty"`
	Reactions      []Reaction `json:"reactions,omitempty"`
}

// ReplyRef is the resolved context of a replied-to message. A dangling
// reply_to_id resolves to a nil ReplyRef rather than an error.
type ReplyRef struct {
	ID         int     `db:"id" json:"id"`
	SenderID   int     `db:"sender_id" json:"sender_id"`
	Content    *string `db:"content" json:"content"`
	Type       string  `db:"type" json:"type"`
	SenderName string  `db:"sender_name" json:"sender_name,omitempty"`
}

// ConversationPreview is the latest message of a conversation, used for the
// conversation list.
type ConversationPreview struct {
	CounterpartID   int       `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name,omitempty"`
	LastMessage     *Message  `json:"last_message,omitempty"`
	UnreadCount     int       `json:"unread_count"`
	UpdatedAt       time.Time `json:"updated_at"`
}
