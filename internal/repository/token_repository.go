package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TokenRepository stores the single active refresh token per user. The
// record is keyed by user id, so issuing a new token implicitly
// invalidates the previous one.
type TokenRepository struct {
	collection *mongo.Collection
}

// NewTokenRepository creates a new instance of TokenRepository.
func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{
		collection: db.Collection("refresh_tokens"),
	}
}

// Save upserts the user's refresh token record and bumps the rotation
// counter.
func (r *TokenRepository) Save(ctx context.Context, userID primitive.ObjectID, token string, expiresAt time.Time) error {
	update := bson.M{
		"$set": bson.M{
			"token":      token,
			"expires_at": expiresAt,
			"updated_at": time.Now(),
		},
		"$inc": bson.M{"rotations": 1},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": userID.Hex(),
			"error":  err,
		}).Error("Failed to save refresh token")
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

// Rotate swaps oldToken for newToken in one conditional write. The update
// only matches while the stored token equals oldToken and is unexpired,
// so a reused or stale token loses the race and gets ErrTokenMismatch.
func (r *TokenRepository) Rotate(ctx context.Context, userID primitive.ObjectID, oldToken, newToken string, expiresAt time.Time) error {
	filter := bson.M{
		"_id":        userID,
		"token":      oldToken,
		"expires_at": bson.M{"$gt": time.Now()},
	}
	update := bson.M{
		"$set": bson.M{
			"token":      newToken,
			"expires_at": expiresAt,
			"updated_at": time.Now(),
		},
		"$inc": bson.M{"rotations": 1},
	}

	err := r.collection.FindOneAndUpdate(ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrTokenMismatch
		}
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	logrus.WithField("userID", userID.Hex()).Info("Refresh token rotated")
	return nil
}

// Delete removes the user's refresh token record.
func (r *TokenRepository) Delete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}
