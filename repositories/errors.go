package repositories

import "errors"

var (
	ErrInvalidID           = errors.New("invalid id")
	ErrInsufficientStock   = errors.New("not enough products in stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidInterval     = errors.New("interval start is after its end")
	ErrEmailTaken          = errors.New("email already exists")
	ErrInvalidProduct      = errors.New("invalid product")
)
