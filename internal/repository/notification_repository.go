package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository struct {
	collection *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// CreateNotification inserts a new notification.
func (r *NotificationRepository) CreateNotification(ctx context.Context, notif *models.Notification) error {
	notif.CreatedAt = time.Now()
	notif.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		notif.ID = insertedID
	}
	return nil
}

// GetUserNotifications returns all notifications for a user, newest first.
func (r *NotificationRepository) GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	for cursor.Next(ctx) {
		var notif models.Notification
		if err := cursor.Decode(&notif); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		notifications = append(notifications, notif)
	}

	return notifications, nil
}

// MarkAsRead sets the read flag on a notification owned by userID.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, notifID, userID primitive.ObjectID) error {
	filter := bson.M{"_id": notifID, "user_id": userID}
	update := bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteForUser removes all notifications belonging to a user.
func (r *NotificationRepository) DeleteForUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}
