package utils

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// MaxResetAttempts is how many reset emails one address may request per window
const MaxResetAttempts = 5

var ErrTooManyResetAttempts = errors.New("Too many reset requests. Please try again later")

// ValidateResetAttempts counts a reset request for email and fails once the
// limit for the current hour is exceeded. A nil client disables the check.
func ValidateResetAttempts(ctx context.Context, rdb *redis.Client, email string) error {
	if rdb == nil {
		return nil
	}

	key := "reset_attempts:" + strings.ToLower(strings.TrimSpace(email))
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		rdb.Expire(ctx, key, time.Hour)
	}

	if attempts > MaxResetAttempts {
		return ErrTooManyResetAttempts
	}
	return nil
}
