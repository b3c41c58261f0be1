// models/auth.go

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account holds the fields shared by users and admins
type Account struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

type SignupRequest struct {
	Name            string `form:"name" validate:"required,min=3,max=50"`
	Email           string `form:"email" validate:"required,email,max=100"`
	Password        string `form:"password" validate:"required,min=8,max=64"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type ResetRequest struct {
	Email string `form:"email" validate:"required,email"`
}

type NewPasswordRequest struct {
	Token           string `form:"token" validate:"required,len=64,hexadecimal"`
	Password        string `form:"password" validate:"required,min=8,max=64"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}
