package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"realtime-service/internal/services"
)

// CallHandler exposes the call history tracker over HTTP.
type CallHandler struct {
	calls *services.CallService
}

// NewCallHandler constructs a CallHandler.
func NewCallHandler(calls *services.CallService) *CallHandler {
	return &CallHandler{calls: calls}
}

// StartCall opens an ongoing session. The websocket call_signal event opens
// one the same way; this endpoint exists for clients that track history
// outside the socket.
func (h *CallHandler) StartCall(c *gin.Context) {
	var req struct {
		ReceiverID int    `json:"receiver_id" binding:"required"`
		Kind       string `json:"kind" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	session, err := h.calls.Start(c.Request.Context(), userID, req.ReceiverID, req.Kind)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidReceiver), errors.Is(err, services.ErrInvalidKind):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start call"})
		}
		return
	}

	c.JSON(http.StatusCreated, session)
}

// FinalizeCall writes the terminal state of a session. An explicit session_id
// addresses a specific call; without one the caller's latest ongoing session
// is used. A session that cannot be found yields 200 with finalized=false;
// end signals race with reconnects, so that is a benign outcome.
func (h *CallHandler) FinalizeCall(c *gin.Context) {
	var req struct {
		SessionID int    `json:"session_id"`
		Status    string `json:"status" binding:"required"`
		Duration  int    `json:"duration"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	session, finalized, err := h.calls.Finalize(c.Request.Context(), userID, req.SessionID, req.Status, req.Duration)
	if err != nil {
		if errors.Is(err, services.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to finalize call"})
		return
	}

	if !finalized {
		c.JSON(http.StatusOK, gin.H{"finalized": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"finalized": true, "session": session})
}

// ListCalls returns the caller's call history.
func (h *CallHandler) ListCalls(c *gin.Context) {
	userID := c.GetInt("userID")

	sessions, err := h.calls.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load call history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": sessions})
}
