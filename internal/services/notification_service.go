package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"realtime-service/internal/models"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/repositories"
)

// NotificationPush delivers a stored notification to the recipient's live
// connections.
type NotificationPush interface {
	PushNotification(n models.Notification) int
}

// NotificationService is the single notify primitive every producer calls:
// message pipeline, reaction store, call invites, and the out-of-scope CRUD
// collaborators through the internal endpoint.
type NotificationService struct {
	repo      repositories.NotificationRepository
	push      NotificationPush
	publisher rabbitmq.Publisher
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo repositories.NotificationRepository, push NotificationPush, publisher rabbitmq.Publisher) *NotificationService {
	return &NotificationService{repo: repo, push: push, publisher: publisher}
}

// Notify synchronously persists the notification row, then best-effort pushes
// it to the recipient's personal room. The push outcome never fails the call.
func (s *NotificationService) Notify(ctx context.Context, recipientID int, ntype, title, message string, relatedID *int) (models.Notification, error) {
	stored, err := s.repo.Create(ctx, models.Notification{
		RecipientID: recipientID,
		Type:        ntype,
		Title:       title,
		Message:     message,
		RelatedID:   relatedID,
	})
	if err != nil {
		return models.Notification{}, fmt.Errorf("persist notification: %w", err)
	}

	if s.push != nil {
		delivered := s.push.PushNotification(stored)
		log.Debug().Int("notification_id", stored.ID).Int("delivered", delivered).Msg("notification pushed")
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, "notifications."+ntype, stored); err != nil {
			log.Warn().Err(err).Msg("notification publish failed")
		}
	}
	return stored, nil
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientID int) ([]models.Notification, error) {
	return s.repo.ListForUser(ctx, recipientID)
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID int, recipientID int) error {
	return s.repo.MarkRead(ctx, notificationID, recipientID)
}

// MarkAllRead flags everything unread for the recipient.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int) (int, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}
