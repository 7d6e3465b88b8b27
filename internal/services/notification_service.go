package services

import (
	"context"
	"errors"

	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/internal/repository"
	"github.com/foodbridge/foodbridge/pkg/httpapi"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService struct {
	repo NotificationStore
}

func NewNotificationService(repo NotificationStore) *NotificationService {
	return &NotificationService{repo: repo}
}

// GetUserNotifications returns all notifications for a user.
func (s *NotificationService) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	notifications, err := s.repo.GetUserNotifications(ctx, userID)
	if err != nil {
		return nil, httpapi.Internal("Failed to get notifications")
	}
	return notifications, nil
}

// MarkNotificationAsRead sets the read flag; only the owner can do it.
func (s *NotificationService) MarkNotificationAsRead(ctx context.Context, notifID, userID primitive.ObjectID) error {
	if err := s.repo.MarkAsRead(ctx, notifID, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return httpapi.NotFound("Notification not found")
		}
		return httpapi.Internal("Failed to mark notification as read")
	}
	return nil
}
