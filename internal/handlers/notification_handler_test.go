package handlers_test

import (
	"encoding/json"
	"net/http"
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

func notificationRouter(repo *mocks.NotificationRepositoryMock, push *mocks.NotificationPushMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := handlers.NewNotificationHandler(services.NewNotificationService(repo, push, nil))

	r := gin.New()
	r.Use(asUser(1))
	r.GET("/notifications", h.List)
	r.POST("/notifications/:notification_id/read", h.MarkRead)
	r.POST("/notifications/read-all", h.MarkAllRead)
	r.POST("/internal/notifications", h.Produce)
	return r
}

func TestListNotifications(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	repo.On("ListForUser", mock.Anything, 1).Return([]models.Notification{{ID: 2}, {ID: 1}}, nil)

	r := notificationRouter(repo, new(mocks.NotificationPushMock))
	w := doJSON(t, r, http.MethodGet, "/notifications", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Notifications, 2)
}

func TestMarkNotificationRead(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	repo.On("MarkRead", mock.Anything, 7, 1).Return(nil)

	r := notificationRouter(repo, new(mocks.NotificationPushMock))
	w := doJSON(t, r, http.MethodPost, "/notifications/7/read", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	repo.On("MarkAllRead", mock.Anything, 1).Return(3, nil)

	r := notificationRouter(repo, new(mocks.NotificationPushMock))
	w := doJSON(t, r, http.MethodPost, "/notifications/read-all", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Marked int `json:"marked"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Marked)
}

func TestProduceNotificationPushesLive(t *testing.T) {
	stored := models.Notification{ID: 9, RecipientID: 5, Type: "report", Title: "Weekly report ready"}

	repo := new(mocks.NotificationRepositoryMock)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.RecipientID == 5 && n.Type == "report"
	})).Return(stored, nil)

	push := new(mocks.NotificationPushMock)
	push.On("PushNotification", stored).Return(1)

	r := notificationRouter(repo, push)
	w := doJSON(t, r, http.MethodPost, "/internal/notifications", gin.H{
		"recipient_id": 5,
		"type":         "report",
		"title":        "Weekly report ready",
		"message":      "Your weekly report is available",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 9, resp.ID)
	push.AssertExpectations(t)
}

func TestProduceNotificationMissingFields(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	r := notificationRouter(repo, new(mocks.NotificationPushMock))

	w := doJSON(t, r, http.MethodPost, "/internal/notifications", gin.H{"recipient_id": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
