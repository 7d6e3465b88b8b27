package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RefreshToken is the single active refresh token record for a user,
// keyed by the user's id. Every issue/rotate is an atomic conditional
// write on this document, so a stale or reused token can never win a
// rotation race.
type RefreshToken struct {
	UserID    primitive.ObjectID `bson:"_id" json:"-"`
	Token     string             `bson:"token" json:"-"`
	ExpiresAt time.Time          `bson:"expires_at" json:"-"`
	Rotations int64              `bson:"rotations" json:"-"`
	UpdatedAt time.Time          `bson:"updated_at" json:"-"`
}
