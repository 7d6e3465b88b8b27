package services

import (
	"context"
	"io"
	"time"

	"github.com/foodbridge/foodbridge/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store interfaces cover exactly what the services consume; the concrete
// mongo repositories satisfy them, and tests swap in fakes.

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*models.User, error)
	FindByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	UpdateUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]interface{}) (*models.User, error)
	SwapImageURL(ctx context.Context, id primitive.ObjectID, field, oldURL, newURL string) (*models.User, error)
	AppendListing(ctx context.Context, userID, listingID primitive.ObjectID) error
	DeleteUser(ctx context.Context, id primitive.ObjectID) error
}

type TokenStore interface {
	Save(ctx context.Context, userID primitive.ObjectID, token string, expiresAt time.Time) error
	Rotate(ctx context.Context, userID primitive.ObjectID, oldToken, newToken string, expiresAt time.Time) error
	Delete(ctx context.Context, userID primitive.ObjectID) error
}

type ListingStore interface {
	CreateListing(ctx context.Context, listing *models.Listing) (*models.Listing, error)
	GetListingByID(ctx context.Context, id primitive.ObjectID) (*models.Listing, error)
	GetAvailableListings(ctx context.Context) ([]models.Listing, error)
	ClaimListing(ctx context.Context, id, claimantID primitive.ObjectID) (*models.Listing, error)
	ExpireListings(ctx context.Context, now time.Time) (int64, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, notif *models.Notification) error
	GetUserNotifications(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, notifID, userID primitive.ObjectID) error
	DeleteForUser(ctx context.Context, userID primitive.ObjectID) error
}

// FileUpload is an in-flight multipart file handed from a handler to a
// service for staging on the image host.
type FileUpload struct {
	Name        string
	ContentType string
	Content     io.Reader
}
