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

// ListingRepository handles database operations related to listings.
type ListingRepository struct {
	collection *mongo.Collection
}

// NewListingRepository creates a new instance of ListingRepository.
func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{
		collection: db.Collection("listings"),
	}
}

// CreateListing inserts a new listing.
func (r *ListingRepository) CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error) {
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, listing)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert listing")
		return nil, fmt.Errorf("failed to insert listing: %w", err)
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		logrus.Error("Failed to cast inserted ID to ObjectID")
		return nil, fmt.Errorf("failed to cast inserted ID")
	}
	listing.ID = insertedID

	logrus.WithField("listingID", listing.ID.Hex()).Info("Listing created successfully")
	return listing, nil
}

// GetListingByID fetches a listing by its ID.
func (r *ListingRepository) GetListingByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error) {
	var listing models.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find listing by id: %w", err)
	}
	return &listing, nil
}

// GetAvailableListings returns unexpired available listings, newest first.
func (r *ListingRepository) GetAvailableListings(ctx context.Context) ([]models.Listing, error) {
	filter := bson.M{
		"status":      models.ListingStatusAvailable,
		"expiry_date": bson.M{"$gt": time.Now()},
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	defer cursor.Close(ctx)

	var listings []models.Listing
	for cursor.Next(ctx) {
		var listing models.Listing
		if err := cursor.Decode(&listing); err != nil {
			return nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		listings = append(listings, listing)
	}

	return listings, nil
}

// ClaimListing transitions an available listing to claimed in a single
// conditional update. Two concurrent claimants can never both match the
// status filter, so exactly one write wins. The expiry check covers
// listings past their date that the sweep has not flipped yet.
func (r *ListingRepository) ClaimListing(ctx context.Context, id, claimantID primitive.ObjectID) (*models.Listing, error) {
	now := time.Now()
	filter := bson.M{
		"_id":         id,
		"status":      models.ListingStatusAvailable,
		"expiry_date": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.ListingStatusClaimed,
		"claimed_by": claimantID,
		"claimed_at": now,
		"updated_at": now,
	}}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var listing models.Listing
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotAvailable
		}
		logrus.WithFields(logrus.Fields{
			"listingID": id.Hex(),
			"error":     err,
		}).Error("Failed to claim listing")
		return nil, fmt.Errorf("failed to claim listing: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"listingID": id.Hex(),
		"claimedBy": claimantID.Hex(),
	}).Info("Listing claimed")
	return &listing, nil
}

// ExpireListings flips every non-expired listing past its expiry date to
// expired and returns how many were updated.
func (r *ListingRepository) ExpireListings(ctx context.Context, now time.Time) (int64, error) {
	filter := bson.M{
		"status":      bson.M{"$ne": models.ListingStatusExpired},
		"expiry_date": bson.M{"$lte": now},
	}
	update := bson.M{"$set": bson.M{
		"status":     models.ListingStatusExpired,
		"updated_at": now,
	}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("failed to expire listings: %w", err)
	}
	return result.ModifiedCount, nil
}
