package marketplace

import (
	"context"
	"fmt"
	"time"

	"github.com/garnizeh/marketplace/pkg/models"
	"github.com/garnizeh/marketplace/pkg/timeago"
)

// Activity kinds surfaced in the provider dashboard feed.
const (
	ActivityBidSubmitted = "bid_submitted"
	ActivityBidAccepted  = "bid_accepted"
)

// recentActivityLimit is how many of the newest bids feed the dashboard.
const recentActivityLimit = 3

// ProviderStats derives the dashboard numbers from the bid store: pending
// bid count, earnings over accepted bids, and the three most recent bids
// with relative-time labels. Recomputed from current state on every call;
// nothing is cached or persisted.
func (s *Service) ProviderStats(ctx context.Context, providerID string) (*models.ProviderStats, error) {
	active, err := s.bids.CountBidsByProviderAndStatus(ctx, providerID, models.BidStatusPending)
	if err != nil {
		return nil, fmt.Errorf("count active bids: %w", err)
	}

	earnings, err := s.bids.SumBidAmountByProviderAndStatus(ctx, providerID, models.BidStatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("sum earnings: %w", err)
	}

	recent, err := s.bids.ListBidsForProvider(ctx, providerID, recentActivityLimit)
	if err != nil {
		return nil, fmt.Errorf("list recent bids: %w", err)
	}

	now := time.Now().UTC()
	activity := make([]models.BidActivity, 0, len(recent))
	for _, b := range recent {
		kind := ActivityBidSubmitted
		if b.Status == models.BidStatusAccepted {
			kind = ActivityBidAccepted
		}

		title := ""
		if b.Job != nil {
			title = b.Job.Title
		}

		activity = append(activity, models.BidActivity{
			BidID:    b.ID,
			Kind:     kind,
			JobTitle: title,
			Amount:   b.Amount,
			Time:     timeago.LabelMillis(b.Created, now),
		})
	}

	return &models.ProviderStats{
		ActiveBids:     active,
		TotalEarnings:  earnings,
		RecentActivity: activity,
	}, nil
}
