package services

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
)

// Fanout is the live-delivery surface the pipeline pushes through. Return
// values report how many connections received the event; zero means the
// target is offline, which is acceptable for live-only delivery.
type Fanout interface {
	BroadcastNewMessage(msg models.Message) int
	EmitMessageNotification(msg models.Message) int
}

// Notifier persists a notification row and best-effort pushes it live.
type Notifier interface {
	Notify(ctx context.Context, recipientID int, ntype, title, message string, relatedID *int) (models.Notification, error)
}

// PreviewCache invalidates conversation-list caches touched by a send.
type PreviewCache interface {
	Invalidate(ctx context.Context, userIDs ...int) error
}

// SendMessageInput is the validated-on-entry shape of a send, from either the
// websocket event or the HTTP endpoint.
type SendMessageInput struct {
	ReceiverID     int
	Content        *string
	Type           string
	AttachmentURL  *string
	AttachmentName *string
	MimeType       string
	ReplyToID      *int
}

// MessageService validates, persists and fans out direct messages.
type MessageService struct {
	messages  repositories.MessageRepository
	reactions repositories.ReactionRepository
	fanout    Fanout
	notifier  Notifier
	previews  PreviewCache
}

// NewMessageService builds the pipeline.
func NewMessageService(messages repositories.MessageRepository, reactions repositories.ReactionRepository, fanout Fanout, notifier Notifier, previews PreviewCache) *MessageService {
	return &MessageService{
		messages:  messages,
		reactions: reactions,
		fanout:    fanout,
		notifier:  notifier,
		previews:  previews,
	}
}

// Send validates and persists a message, then fans it out: new_message to the
// conversation room and message_notification to the receiver's personal room.
// Persist always happens before any broadcast; a store failure reaches the
// sender and nobody else.
func (s *MessageService) Send(ctx context.Context, senderID int, in SendMessageInput) (models.Message, error) {
	if in.ReceiverID <= 0 {
		return models.Message{}, ErrInvalidReceiver
	}

	hasContent := in.Content != nil && strings.TrimSpace(*in.Content) != ""
	hasAttachment := in.AttachmentURL != nil || in.AttachmentName != nil
	if !hasContent && !hasAttachment {
		return models.Message{}, ErrEmptyMessage
	}
	if hasAttachment && (in.AttachmentURL == nil || in.AttachmentName == nil) {
		return models.Message{}, ErrBadAttachment
	}

	msgType := in.Type
	if msgType == "" {
		msgType = inferMessageType(in)
	} else if !models.ValidMessageType(msgType) {
		return models.Message{}, ErrInvalidType
	}

	content := in.Content
	if content != nil && strings.TrimSpace(*content) == "" {
		content = nil
	}

	// A reply_to_id is deliberately not checked against existence: a dangling
	// reference is tolerated and resolves to null context on read.
	msg, err := s.messages.CreateMessage(ctx, models.Message{
		SenderID:       senderID,
		ReceiverID:     in.ReceiverID,
		Content:        content,
		Type:           msgType,
		AttachmentURL:  in.AttachmentURL,
		AttachmentName: in.AttachmentName,
		ReplyToID:      in.ReplyToID,
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("persist message: %w", err)
	}

	if s.previews != nil {
		if err := s.previews.Invalidate(ctx, msg.SenderID, msg.ReceiverID); err != nil {
			log.Warn().Err(err).Msg("preview cache invalidation failed")
		}
	}

	s.fanout.BroadcastNewMessage(msg)
	s.fanout.EmitMessageNotification(msg)

	if s.notifier != nil {
		title := fmt.Sprintf("New message from %s", msg.SenderName)
		body := notificationPreview(msg)
		if _, err := s.notifier.Notify(ctx, msg.ReceiverID, "message", title, body, &msg.ID); err != nil {
			log.Warn().Err(err).Int("message_id", msg.ID).Msg("message notification failed")
		}
	}

	return msg, nil
}

// History returns the full conversation between the reader and a counterpart
// and, as an isolated secondary effect, marks messages addressed to the
// reader as read. The second return value is how many rows were newly marked.
func (s *MessageService) History(ctx context.Context, readerID int, counterpartID int) ([]models.Message, int, error) {
	if counterpartID <= 0 {
		return nil, 0, ErrInvalidReceiver
	}

	msgs, err := s.messages.GetConversation(ctx, readerID, counterpartID)
	if err != nil {
		return nil, 0, err
	}

	marked, err := s.MarkRead(ctx, readerID, counterpartID)
	if err != nil {
		return nil, 0, err
	}
	return msgs, marked, nil
}

// MarkRead is the write-on-read effect, exposed separately so it can be
// asserted independently of fetch logic.
func (s *MessageService) MarkRead(ctx context.Context, readerID int, counterpartID int) (int, error) {
	return s.messages.MarkConversationRead(ctx, readerID, counterpartID)
}

// Previews returns the conversation-list view for a user.
func (s *MessageService) Previews(ctx context.Context, userID int) ([]models.ConversationPreview, error) {
	return s.messages.ListPreviews(ctx, userID)
}

// React adds or replaces the user's reaction on a message. The upsert keeps
// at most one reaction per (message, user).
func (s *MessageService) React(ctx context.Context, messageID int, userID int, kind string) (models.Reaction, error) {
	if !models.ValidReactionKind(kind) {
		return models.Reaction{}, ErrInvalidReaction
	}

	msg, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		return models.Reaction{}, err
	}

	reaction, err := s.reactions.Upsert(ctx, messageID, userID, kind)
	if err != nil {
		return models.Reaction{}, err
	}

	if s.notifier != nil && msg.SenderID != userID {
		if _, err := s.notifier.Notify(ctx, msg.SenderID, "like", "New reaction", kind, &messageID); err != nil {
			log.Warn().Err(err).Int("message_id", messageID).Msg("reaction notification failed")
		}
	}
	return reaction, nil
}

// Unreact removes the user's reaction. Removing an absent reaction is a no-op.
func (s *MessageService) Unreact(ctx context.Context, messageID int, userID int) error {
	return s.reactions.Delete(ctx, messageID, userID)
}

// inferMessageType maps an attachment to image/voice by MIME family, any
// other attachment to document, and no attachment to text.
func inferMessageType(in SendMessageInput) string {
	if in.AttachmentURL == nil {
		return models.MessageTypeText
	}

	mimeType := in.MimeType
	if mimeType == "" && in.AttachmentName != nil {
		mimeType = mime.TypeByExtension(filepath.Ext(*in.AttachmentName))
	}

	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.MessageTypeImage
	case strings.HasPrefix(mimeType, "audio/"):
		return models.MessageTypeVoice
	default:
		return models.MessageTypeDocument
	}
}

const previewLimit = 120

func notificationPreview(msg models.Message) string {
	if msg.Content == nil {
		return msg.Type
	}
	preview := *msg.Content
	if len(preview) <= previewLimit {
		return preview
	}
	// Cut on a rune boundary so the preview stays valid UTF-8.
	cut := previewLimit
	for cut > 0 && !utf8.RuneStart(preview[cut]) {
		cut--
	}
	return preview[:cut]
}
