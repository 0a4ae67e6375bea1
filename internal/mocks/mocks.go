package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"realtime-service/internal/models"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/repositories"
	"realtime-service/internal/services"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var stored models.Message
	if val := args.Get(0); val != nil {
		stored = val.(models.Message)
	}
	return stored, args.Error(1)
}

func (m *MessageRepositoryMock) GetConversation(ctx context.Context, userID int, counterpartID int) ([]models.Message, error) {
	args := m.Called(ctx, userID, counterpartID)
	var msgs []models.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]models.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) MarkConversationRead(ctx context.Context, readerID int, counterpartID int) (int, error) {
	args := m.Called(ctx, readerID, counterpartID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) ListPreviews(ctx context.Context, userID int) ([]models.ConversationPreview, error) {
	args := m.Called(ctx, userID)
	var previews []models.ConversationPreview
	if val := args.Get(0); val != nil {
		previews = val.([]models.ConversationPreview)
	}
	return previews, args.Error(1)
}

type ReactionRepositoryMock struct {
	mock.Mock
}

func (m *ReactionRepositoryMock) Upsert(ctx context.Context, messageID int, userID int, kind string) (models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, kind)
	var reaction models.Reaction
	if val := args.Get(0); val != nil {
		reaction = val.(models.Reaction)
	}
	return reaction, args.Error(1)
}

func (m *ReactionRepositoryMock) Delete(ctx context.Context, messageID int, userID int) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *ReactionRepositoryMock) ListForMessage(ctx context.Context, messageID int) ([]models.Reaction, error) {
	args := m.Called(ctx, messageID)
	var reactions []models.Reaction
	if val := args.Get(0); val != nil {
		reactions = val.([]models.Reaction)
	}
	return reactions, args.Error(1)
}

type CallRepositoryMock struct {
	mock.Mock
}

func (m *CallRepositoryMock) Create(ctx context.Context, callerID int, receiverID int, kind string) (models.CallSession, error) {
	args := m.Called(ctx, callerID, receiverID, kind)
	var session models.CallSession
	if val := args.Get(0); val != nil {
		session = val.(models.CallSession)
	}
	return session, args.Error(1)
}

func (m *CallRepositoryMock) FinalizeByID(ctx context.Context, sessionID int, status string, duration int, endedAt time.Time) (models.CallSession, error) {
	args := m.Called(ctx, sessionID, status, duration, endedAt)
	var session models.CallSession
	if val := args.Get(0); val != nil {
		session = val.(models.CallSession)
	}
	return session, args.Error(1)
}

func (m *CallRepositoryMock) FinalizeLatest(ctx context.Context, userID int, status string, duration int, endedAt time.Time) (models.CallSession, error) {
	args := m.Called(ctx, userID, status, duration, endedAt)
	var session models.CallSession
	if val := args.Get(0); val != nil {
		session = val.(models.CallSession)
	}
	return session, args.Error(1)
}

func (m *CallRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.CallSession, error) {
	args := m.Called(ctx, userID)
	var sessions []models.CallSession
	if val := args.Get(0); val != nil {
		sessions = val.([]models.CallSession)
	}
	return sessions, args.Error(1)
}

func (m *CallRepositoryMock) ReapStale(ctx context.Context, olderThan time.Time) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var stored models.Notification
	if val := args.Get(0); val != nil {
		stored = val.(models.Notification)
	}
	return stored, args.Error(1)
}

func (m *NotificationRepositoryMock) ListForUser(ctx context.Context, recipientID int) ([]models.Notification, error) {
	args := m.Called(ctx, recipientID)
	var list []models.Notification
	if val := args.Get(0); val != nil {
		list = val.([]models.Notification)
	}
	return list, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, notificationID int, recipientID int) error {
	args := m.Called(ctx, notificationID, recipientID)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, recipientID int) (int, error) {
	args := m.Called(ctx, recipientID)
	return args.Int(0), args.Error(1)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) GetUser(ctx context.Context, userID int) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserDirectoryMock) BulkUsers(ctx context.Context, ids []int) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type FanoutMock struct {
	mock.Mock
}

func (m *FanoutMock) BroadcastNewMessage(msg models.Message) int {
	args := m.Called(msg)
	return args.Int(0)
}

func (m *FanoutMock) EmitMessageNotification(msg models.Message) int {
	args := m.Called(msg)
	return args.Int(0)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) Notify(ctx context.Context, recipientID int, ntype, title, message string, relatedID *int) (models.Notification, error) {
	args := m.Called(ctx, recipientID, ntype, title, message, relatedID)
	var stored models.Notification
	if val := args.Get(0); val != nil {
		stored = val.(models.Notification)
	}
	return stored, args.Error(1)
}

type NotificationPushMock struct {
	mock.Mock
}

func (m *NotificationPushMock) PushNotification(n models.Notification) int {
	args := m.Called(n)
	return args.Int(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.ReactionRepository = (*ReactionRepositoryMock)(nil)
var _ repositories.CallRepository = (*CallRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ repositories.UserDirectory = (*UserDirectoryMock)(nil)
var _ services.Fanout = (*FanoutMock)(nil)
var _ services.Notifier = (*NotifierMock)(nil)
var _ services.NotificationPush = (*NotificationPushMock)(nil)
var _ rabbitmq.Publisher = (*PublisherMock)(nil)
