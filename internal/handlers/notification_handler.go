package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/services"
)

// NotificationHandler exposes the notification read models plus the producer
// primitive used by the platform's other backend components.
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")

	list, err := h.notifications.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": list})
}

// MarkRead flags one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.Atoi(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.notifications.MarkRead(c.Request.Context(), notificationID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification"})
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead flags everything unread for the caller.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetInt("userID")

	count, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// Produce lets other platform components (reports, grading, scheduling) push
// a notification through the same fanout primitive the relay uses.
func (h *NotificationHandler) Produce(c *gin.Context) {
	var req struct {
		RecipientID int    `json:"recipient_id" binding:"required"`
		Type        string `json:"type" binding:"required"`
		Title       string `json:"title" binding:"required"`
		Message     string `json:"message" binding:"required"`
		RelatedID   *int   `json:"related_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := h.notifications.Notify(c.Request.Context(), req.RecipientID, req.Type, req.Title, req.Message, req.RelatedID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create notification"})
		return
	}

	c.JSON(http.StatusCreated, stored)
}
