package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"realtime-service/internal/models"
	"realtime-service/internal/repositories"
	"realtime-service/internal/services"
)

// PreviewCache is the conversation-list cache the handler reads through.
type PreviewCache interface {
	Get(ctx context.Context, userID int) ([]models.ConversationPreview, error)
	Set(ctx context.Context, userID int, previews []models.ConversationPreview) error
}

// MessageHandler exposes the message pipeline over HTTP.
type MessageHandler struct {
	messages *services.MessageService
	users    repositories.UserDirectory
	cache    PreviewCache
}

// NewMessageHandler builds a MessageHandler. The cache may be nil, in which
// case every read hits the database.
func NewMessageHandler(messages *services.MessageService, users repositories.UserDirectory, cache PreviewCache) *MessageHandler {
	return &MessageHandler{messages: messages, users: users, cache: cache}
}

// ListConversations returns the conversation previews for the caller,
// cache-aside with the database as fallback.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID := c.GetInt("userID")

	if h.cache != nil {
		if previews, err := h.cache.Get(c.Request.Context(), userID); err == nil {
			c.JSON(http.StatusOK, gin.H{"conversations": previews})
			return
		}
	}

	previews, err := h.messages.Previews(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load conversations"})
		return
	}

	counterpartIDs := make([]int, 0, len(previews))
	for _, p := range previews {
		counterpartIDs = append(counterpartIDs, p.CounterpartID)
	}

	users, err := h.users.BulkUsers(c.Request.Context(), counterpartIDs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user info"})
		return
	}
	usernameByID := map[int]string{}
	for _, u := range users {
		usernameByID[u.ID] = u.Username
	}
	for i := range previews {
		previews[i].CounterpartName = usernameByID[previews[i].CounterpartID]
	}

	if h.cache != nil {
		if err := h.cache.Set(c.Request.Context(), userID, previews); err != nil {
			log.Warn().Err(err).Int("user_id", userID).Msg("preview cache store failed")
		}
	}

	c.JSON(http.StatusOK, gin.H{"conversations": previews})
}

// GetHistory returns the conversation with a counterpart. Reading the history
// marks messages addressed to the caller as read; the response reports how
// many were newly marked.
func (h *MessageHandler) GetHistory(c *gin.Context) {
	counterpartID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	userID := c.GetInt("userID")
	msgs, marked, err := h.messages.History(c.Request.Context(), userID, counterpartID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidReceiver) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "newly_read": marked})
}

// PostMessage is the HTTP variant of the send pipeline; the websocket
// send_message event goes through the same service.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	var req struct {
		ReceiverID     int     `json:"receiver_id" binding:"required"`
		Content        *string `json:"content"`
		Type           string  `json:"type"`
		AttachmentURL  *string `json:"attachment_url"`
		AttachmentName *string `json:"attachment_name"`
		MimeType       string  `json:"mime_type"`
		ReplyToID      *int    `json:"reply_to_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messages.Send(c.Request.Context(), userID, services.SendMessageInput{
		ReceiverID:     req.ReceiverID,
		Content:        req.Content,
		Type:           req.Type,
		AttachmentURL:  req.AttachmentURL,
		AttachmentName: req.AttachmentName,
		MimeType:       req.MimeType,
		ReplyToID:      req.ReplyToID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidReceiver),
			errors.Is(err, services.ErrEmptyMessage),
			errors.Is(err, services.ErrBadAttachment),
			errors.Is(err, services.ErrInvalidType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		}
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// React adds or replaces the caller's reaction on a message.
func (h *MessageHandler) React(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	var req struct {
		Kind string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	reaction, err := h.messages.React(c.Request.Context(), messageID, userID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidReaction):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repositories.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store reaction"})
		}
		return
	}

	c.JSON(http.StatusOK, reaction)
}

// Unreact removes the caller's reaction from a message.
func (h *MessageHandler) Unreact(c *gin.Context) {
	messageID, err := strconv.Atoi(c.Param("message_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.messages.Unreact(c.Request.Context(), messageID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove reaction"})
		return
	}

	c.Status(http.StatusNoContent)
}
