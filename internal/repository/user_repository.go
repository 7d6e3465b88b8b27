package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository handles database operations related to users.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection("users"),
	}
}

// EnsureIndexes creates the unique indexes on username, email and phone.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "phone", Value: 1}}, Options: unique},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

// CreateUser inserts a new user into the database.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			logrus.WithField("email", user.Email).Warn("Duplicate user insert rejected")
			return nil, ErrDuplicate
		}
		logrus.WithError(err).Error("Failed to insert user into database")
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logrus.Error("Failed to cast inserted ID to ObjectID")
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	user.ID = insertedID

	logrus.WithField("userID", user.ID.Hex()).Info("User inserted successfully")
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by id: %w", err)
	}
	return &user, nil
}

// GetUserByIdentifier retrieves a user whose email or username equals the
// given identifier.
func (r *UserRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	filter := bson.M{"$or": []bson.M{
		{"email": identifier},
		{"username": identifier},
	}}

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by identifier: %w", err)
	}
	return &user, nil
}

// FindByEmailOrUsername returns an existing user holding either value.
// Used by registration to detect conflicts before any write.
func (r *UserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	filter := bson.M{"$or": []bson.M{
		{"email": email},
		{"username": username},
	}}

	var user models.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &user, nil
}

// UpdateUserFields applies a partial update and returns the new document.
func (r *UserRepository) UpdateUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.User, error) {
	fields["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Error("Failed to update user")
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	logrus.WithField("userID", id.Hex()).Info("User updated successfully")
	return &user, nil
}

// SwapImageURL commits an image swap only while the stored URL still
// equals oldURL. When a concurrent swap got there first the filter
// misses and the caller must reclaim its staged object.
func (r *UserRepository) SwapImageURL(ctx context.Context, id primitive.ObjectID, field, oldURL, newURL string) (*models.User, error) {
	filter := bson.M{"_id": id}
	if oldURL == "" {
		// An unset image is stored as missing or empty.
		filter[field] = bson.M{"$in": bson.A{"", nil}}
	} else {
		filter[field] = oldURL
	}
	update := bson.M{"$set": bson.M{
		field:        newURL,
		"updated_at": time.Now(),
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"field":  field,
			"error":  err,
		}).Error("Failed to swap image url")
		return nil, fmt.Errorf("failed to swap image url: %w", err)
	}
	return &user, nil
}

// AppendListing adds a listing back-reference to the donor's document.
func (r *UserRepository) AppendListing(ctx context.Context, userID, listingID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": userID},
		bson.M{"$addToSet": bson.M{"listings": listingID}},
	)
	if err != nil {
		return fmt.Errorf("failed to append listing to user: %w", err)
	}
	return nil
}

// DeleteUser deletes a user from the database.
func (r *UserRepository) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"userID": id.Hex(),
			"error":  err,
		}).Error("Failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	logrus.WithField("userID", id.Hex()).Info("User deleted successfully")
	return nil
}
