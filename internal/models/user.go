package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	RoleDonor     = "donor"
	RoleRecipient = "recipient"
)

// User represents a registered account in the FoodBridge marketplace.
// The password hash is never serialized; refresh tokens live in their
// own collection (see RefreshToken).
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username       string               `bson:"username" json:"username"`
	Email          string               `bson:"email" json:"email"`
	HashedPassword string               `bson:"hashed_password" json:"-"`
	Role           string               `bson:"role" json:"role"`
	Phone          string               `bson:"phone" json:"phone"`
	Avatar         string               `bson:"avatar" json:"avatar"`
	CoverImage     string               `bson:"cover_image,omitempty" json:"coverImage,omitempty"`
	Listings       []primitive.ObjectID `bson:"listings,omitempty" json:"listings,omitempty"`
	CreatedAt      time.Time            `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updatedAt"`
}

// ValidRole reports whether role is one of the supported account roles.
func ValidRole(role string) bool {
	return role == RoleDonor || role == RoleRecipient
}
