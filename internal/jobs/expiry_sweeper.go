package jobs

import (
	"context"

	"github.com/foodbridge/foodbridge/internal/services"
	"github.com/sirupsen/logrus"
)

// ExpirySweeper drives the time-based available/claimed -> expired
// transition for listings past their expiry date.
type ExpirySweeper struct {
	ListingService *services.ListingService
}

// NewExpirySweeper creates a new instance of ExpirySweeper.
func NewExpirySweeper(listingService *services.ListingService) *ExpirySweeper {
	return &ExpirySweeper{ListingService: listingService}
}

// Run performs one sweep. Safe to call repeatedly; the underlying update
// is idempotent.
func (s *ExpirySweeper) Run(ctx context.Context) error {
	count, err := s.ListingService.ExpireListings(ctx)
	if err != nil {
		return err
	}

	logrus.WithField("expired", count).Debug("Listing expiry sweep completed")
	return nil
}
