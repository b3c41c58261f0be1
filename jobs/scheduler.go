// Package jobs runs the shop's periodic maintenance.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// TokenPurger removes reset tokens that can no longer be redeemed
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// NewScheduler returns a scheduler that purges expired reset tokens every hour.
// The caller starts it with StartAsync and stops it on shutdown.
func NewScheduler(loc *time.Location, tokens TokenPurger) (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(loc)
	if _, err := s.Every(1).Hour().Do(PurgeExpiredTokens, tokens); err != nil {
		return nil, err
	}
	return s, nil
}

// PurgeExpiredTokens deletes every expired reset token once
func PurgeExpiredTokens(tokens TokenPurger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := tokens.PurgeExpired(ctx)
	if err != nil {
		log.Printf("Failed to purge expired reset tokens: %v", err)
		return
	}
	if n > 0 {
		log.Printf("Purged %d expired reset tokens", n)
	}
}
