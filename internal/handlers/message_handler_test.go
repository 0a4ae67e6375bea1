package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"realtime-service/internal/handlers"
	"realtime-service/internal/mocks"
	"realtime-service/internal/models"
	"realtime-service/internal/services"
)

func strptr(s string) *string { return &s }

// asUser injects the identity the auth middleware would set.
func asUser(userID int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("role", "user")
		c.Next()
	}
}

func messageRouter(msgRepo *mocks.MessageRepositoryMock, reactionRepo *mocks.ReactionRepositoryMock, users *mocks.UserDirectoryMock, cache handlers.PreviewCache) *gin.Engine {
	gin.SetMode(gin.TestMode)

	fanout := new(mocks.FanoutMock)
	fanout.On("BroadcastNewMessage", mock.Anything).Return(0).Maybe()
	fanout.On("EmitMessageNotification", mock.Anything).Return(0).Maybe()

	svc := services.NewMessageService(msgRepo, reactionRepo, fanout, nil, nil)
	h := handlers.NewMessageHandler(svc, users, cache)

	r := gin.New()
	r.Use(asUser(1))
	r.GET("/conversations", h.ListConversations)
	r.GET("/conversations/:user_id/messages", h.GetHistory)
	r.POST("/messages", h.PostMessage)
	r.POST("/messages/:message_id/reactions", h.React)
	r.DELETE("/messages/:message_id/reactions", h.Unreact)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestListConversationsHydratesNames(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	msgRepo.On("ListPreviews", mock.Anything, 1).Return([]models.ConversationPreview{
		{CounterpartID: 2, LastMessage: &models.Message{ID: 8, Content: strptr("see you at 5")}, UnreadCount: 1},
		{CounterpartID: 3, LastMessage: &models.Message{ID: 9, Content: strptr("ok")}},
	}, nil)

	users := new(mocks.UserDirectoryMock)
	users.On("BulkUsers", mock.Anything, []int{2, 3}).Return([]models.User{
		{ID: 2, Username: "bob"},
		{ID: 3, Username: "carol"},
	}, nil)

	r := messageRouter(msgRepo, new(mocks.ReactionRepositoryMock), users, nil)
	w := doJSON(t, r, http.MethodGet, "/conversations", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Conversations []models.ConversationPreview `json:"conversations"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Conversations, 2)
	assert.Equal(t, "bob", resp.Conversations[0].CounterpartName)
	assert.Equal(t, "carol", resp.Conversations[1].CounterpartName)
	msgRepo.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestGetHistoryReportsNewlyRead(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	msgRepo.On("GetConversation", mock.Anything, 1, 2).Return([]models.Message{{ID: 1}, {ID: 2}}, nil)
	msgRepo.On("MarkConversationRead", mock.Anything, 1, 2).Return(2, nil)

	r := messageRouter(msgRepo, new(mocks.ReactionRepositoryMock), new(mocks.UserDirectoryMock), nil)
	w := doJSON(t, r, http.MethodGet, "/conversations/2/messages", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Messages  []models.Message `json:"messages"`
		NewlyRead int              `json:"newly_read"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)
	assert.Equal(t, 2, resp.NewlyRead)
}

func TestGetHistoryBadUserID(t *testing.T) {
	r := messageRouter(new(mocks.MessageRepositoryMock), new(mocks.ReactionRepositoryMock), new(mocks.UserDirectoryMock), nil)
	w := doJSON(t, r, http.MethodGet, "/conversations/nope/messages", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostMessageCreated(t *testing.T) {
	stored := models.Message{ID: 10, SenderID: 1, ReceiverID: 2, Content: strptr("hello"), Type: models.MessageTypeText}

	msgRepo := new(mocks.MessageRepositoryMock)
	msgRepo.On("CreateMessage", mock.Anything, mock.Anything).Return(stored, nil)

	r := messageRouter(msgRepo, new(mocks.ReactionRepositoryMock), new(mocks.UserDirectoryMock), nil)
	w := doJSON(t, r, http.MethodPost, "/messages", gin.H{"receiver_id": 2, "content": "hello"})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.ID)
}

func TestPostMessageEmptyRejected(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	r := messageRouter(msgRepo, new(mocks.ReactionRepositoryMock), new(mocks.UserDirectoryMock), nil)

	w := doJSON(t, r, http.MethodPost, "/messages", gin.H{"receiver_id": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msgRepo.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

func TestReactReturnsReaction(t *testing.T) {
	msgRepo := new(mocks.MessageRepositoryMock)
	msgRepo.On("GetMessage", mock.Anything, 5).Return(models.Message{ID: 5, SenderID: 1}, nil)

	reactionRepo := new(mocks.ReactionRepositoryMock)
	reactionRepo.On("Upsert", mock.Anything, 5, 1, models.ReactionLove).
		Return(models.Reaction{MessageID: 5, UserID: 1, Kind: models.ReactionLove}, nil)

	r := messageRouter(msgRepo, reactionRepo, new(mocks.UserDirectoryMock), nil)
	w := doJSON(t, r, http.MethodPost, "/messages/5/reactions", gin.H{"kind": "love"})

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.Reaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ReactionLove, resp.Kind)
}

func TestReactUnknownKindRejected(t *testing.T) {
	r := messageRouter(new(mocks.MessageRepositoryMock), new(mocks.ReactionRepositoryMock), new(mocks.UserDirectoryMock), nil)
	w := doJSON(t, r, http.MethodPost, "/messages/5/reactions", gin.H{"kind": "yikes"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnreactNoContent(t *testing.T) {
	reactionRepo := new(mocks.ReactionRepositoryMock)
	reactionRepo.On("Delete", mock.Anything, 5, 1).Return(nil)

	r := messageRouter(new(mocks.MessageRepositoryMock), reactionRepo, new(mocks.UserDirectoryMock), nil)
	w := doJSON(t, r, http.MethodDelete, "/messages/5/reactions", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	reactionRepo.AssertExpectations(t)
}
