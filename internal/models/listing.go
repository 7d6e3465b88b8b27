package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ListingStatusAvailable = "available"
	ListingStatusClaimed   = "claimed"
	ListingStatusExpired   = "expired"
)

// Listing is a donor-posted offer of food, open for claiming until it is
// either claimed or its expiry date passes. DonorID is the authoritative
// owner pointer; the donor's Listings slice is a back-reference only.
type Listing struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title         string              `bson:"title" json:"title"`
	Description   string              `bson:"description" json:"description"`
	Quantity      int                 `bson:"quantity" json:"quantity"`
	FoodPhotos    []string            `bson:"food_photos" json:"foodPhotos"`
	DonorID       primitive.ObjectID  `bson:"donor_id" json:"donorId"`
	ClaimedBy     *primitive.ObjectID `bson:"claimed_by,omitempty" json:"claimedBy,omitempty"`
	PickupAddress string              `bson:"pickup_address" json:"pickupAddress"`
	ExpiryDate    time.Time           `bson:"expiry_date" json:"expiryDate"`
	Status        string              `bson:"status" json:"status"`
	ClaimedAt     *time.Time          `bson:"claimed_at,omitempty" json:"claimedAt,omitempty"`
	CreatedAt     time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updated_at" json:"updatedAt"`
}
