package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foodbridge/foodbridge/internal/models"
	"github.com/foodbridge/foodbridge/internal/repository"
	"github.com/foodbridge/foodbridge/internal/storage"
	"github.com/foodbridge/foodbridge/pkg/httpapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxListingPhotos = 5

// ListingService encapsulates the listing lifecycle: create, claim,
// expire.
type ListingService struct {
	listings      ListingStore
	users         UserStore
	notifications NotificationStore
	store         storage.Storage
}

// NewListingService creates a new instance of ListingService.
func NewListingService(listings ListingStore, users UserStore, notifications NotificationStore, store storage.Storage) *ListingService {
	return &ListingService{
		listings:      listings,
		users:         users,
		notifications: notifications,
		store:         store,
	}
}

// CreateListingInput carries the multipart create-listing payload.
type CreateListingInput struct {
	Title         string
	Description   string
	Quantity      int
	PickupAddress string
	ExpiryDate    time.Time
	Photos        []*FileUpload
}

// CreateListing validates the payload, uploads the food photos under a
// per-donor namespace and persists the listing. The donor's listing
// back-reference is appended best-effort; DonorID on the listing is the
// authoritative owner pointer.
func (s *ListingService) CreateListing(ctx context.Context, donorID primitive.ObjectID, input *CreateListingInput) (*models.Listing, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	pickupAddress := strings.TrimSpace(input.PickupAddress)

	if title == "" || description == "" || pickupAddress == "" {
		return nil, httpapi.BadRequest("All fields are required")
	}
	if input.Quantity < 1 {
		return nil, httpapi.BadRequest("Quantity must be at least 1")
	}
	if input.ExpiryDate.IsZero() || !input.ExpiryDate.After(time.Now()) {
		return nil, httpapi.BadRequest("Expiry date must be in the future")
	}
	if len(input.Photos) == 0 {
		return nil, httpapi.BadRequest("At least one food photo is required")
	}
	if len(input.Photos) > maxListingPhotos {
		return nil, httpapi.BadRequest(fmt.Sprintf("At most %d food photos are allowed", maxListingPhotos))
	}

	prefix := "listings/" + donorID.Hex()
	var photoURLs []string
	for _, photo := range input.Photos {
		url, err := s.store.Save(ctx, prefix+"/"+uuid.NewString(), photo.Content, photo.ContentType)
		if err != nil {
			logrus.WithError(err).Error("Failed to upload food photo")
			s.reclaim(ctx, photoURLs)
			return nil, httpapi.Internal("Something went wrong while uploading food photos")
		}
		photoURLs = append(photoURLs, url)
	}

	listing := &models.Listing{
		Title:         title,
		Description:   description,
		Quantity:      input.Quantity,
		FoodPhotos:    photoURLs,
		DonorID:       donorID,
		PickupAddress: pickupAddress,
		ExpiryDate:    input.ExpiryDate,
		Status:        models.ListingStatusAvailable,
	}

	created, err := s.listings.CreateListing(ctx, listing)
	if err != nil {
		s.reclaim(ctx, photoURLs)
		logrus.WithError(err).Error("Failed to create listing")
		return nil, httpapi.Internal("Something went wrong while creating listing")
	}

	if err := s.users.AppendListing(ctx, donorID, created.ID); err != nil {
		logrus.WithError(err).WithField("listingID", created.ID.Hex()).Warn("Failed to append listing back-reference")
	}

	logrus.WithFields(logrus.Fields{
		"listingID": created.ID.Hex(),
		"donorID":   donorID.Hex(),
	}).Info("Listing created")
	return created, nil
}

// ClaimListing reserves an available listing for the claimant. The state
// transition is a single conditional update, so under concurrent claims
// exactly one caller wins; the others get a conflict.
func (s *ListingService) ClaimListing(ctx context.Context, listingID, claimantID primitive.ObjectID) (*models.Listing, error) {
	listing, err := s.listings.GetListingByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, httpapi.NotFound("Listing not found")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}

	if listing.DonorID == claimantID {
		return nil, httpapi.Forbidden("You cannot claim your own listing")
	}

	claimed, err := s.listings.ClaimListing(ctx, listingID, claimantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotAvailable) {
			return nil, httpapi.Conflict("Listing is no longer available")
		}
		return nil, httpapi.Internal("Something went wrong while claiming listing")
	}

	// Tell the donor; a notification failure never undoes the claim.
	notif := &models.Notification{
		UserID:           claimed.DonorID,
		Message:          fmt.Sprintf("Your listing %q has been claimed.", claimed.Title),
		RelatedListingID: &claimed.ID,
		Type:             models.NotificationTypeInfo,
	}
	if err := s.notifications.CreateNotification(ctx, notif); err != nil {
		logrus.WithError(err).WithField("listingID", claimed.ID.Hex()).Warn("Failed to create claim notification")
	}

	return claimed, nil
}

// GetListing retrieves a listing by its hex ID.
func (s *ListingService) GetListing(ctx context.Context, id string) (*models.Listing, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, httpapi.BadRequest("Invalid listing ID")
	}

	listing, err := s.listings.GetListingByID(ctx, objID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, httpapi.NotFound("Listing not found")
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// GetAvailableListings returns unexpired available listings.
func (s *ListingService) GetAvailableListings(ctx context.Context) ([]models.Listing, error) {
	listings, err := s.listings.GetAvailableListings(ctx)
	if err != nil {
		return nil, httpapi.Internal("Something went wrong while fetching listings")
	}
	return listings, nil
}

// ExpireListings marks every listing past its expiry date as expired.
// Called by the cron sweep; the update is idempotent.
func (s *ListingService) ExpireListings(ctx context.Context) (int64, error) {
	count, err := s.listings.ExpireListings(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to expire listings: %w", err)
	}
	if count > 0 {
		logrus.WithField("count", count).Info("Expired listings")
	}
	return count, nil
}

func (s *ListingService) reclaim(ctx context.Context, urls []string) {
	for _, url := range urls {
		if err := s.store.Delete(ctx, url); err != nil {
			logrus.WithError(err).WithField("url", url).Warn("Failed to delete uploaded photo")
		}
	}
}
