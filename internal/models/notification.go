package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	NotificationTypeInfo    = "info"
	NotificationTypeWarning = "warning"
	NotificationTypeAlert   = "alert"
)

type Notification struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID           primitive.ObjectID  `bson:"user_id" json:"userId"`
	Message          string              `bson:"message" json:"message"`
	RelatedListingID *primitive.ObjectID `bson:"related_listing_id,omitempty" json:"relatedListingId,omitempty"`
	Type             string              `bson:"type" json:"type"`
	Read             bool                `bson:"read" json:"read"`
	CreatedAt        time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updated_at" json:"updatedAt"`
}
