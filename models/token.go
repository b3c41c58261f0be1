package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetToken is a single-use password reset token
type ResetToken struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Token       string             `json:"token" bson:"token"`
	RequesterID primitive.ObjectID `json:"requesterId" bson:"requesterId"`
	Role        Role               `json:"role" bson:"role"`
	ExpiresAt   time.Time          `json:"expiresAt" bson:"expiresAt"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// Expired reports whether the token can no longer be used at now
func (t *ResetToken) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
