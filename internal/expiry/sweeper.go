package expiry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jayshxd/Open-Feast/internal/foodspot"
)

// Window is how long a listing may stay ACTIVE before the sweep expires it.
const Window = 3 * time.Hour

type Sweeper struct {
	store     foodspot.Store
	publisher foodspot.Publisher
	log       *slog.Logger
}

func NewSweeper(store foodspot.Store, publisher foodspot.Publisher, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:     store,
		publisher: publisher,
		log:       log.With("component", "expiry"),
	}
}

// Sweep marks every ACTIVE listing created before now-Window as EXPIRED and
// returns how many were transitioned. Only the status column is written.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-Window)

	stale, err := s.store.FindByStatusCreatedBefore(ctx, foodspot.StatusActive, cutoff)
	if err != nil {
		s.log.Error("expiry query failed", "error", err, "cutoff", cutoff)
		return 0, fmt.Errorf("find stale listings: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	for i := range stale {
		stale[i].Status = foodspot.StatusExpired
	}
	if err := s.store.BatchUpdate(ctx, stale); err != nil {
		s.log.Error("expiry update failed", "error", err, "count", len(stale))
		return 0, fmt.Errorf("expire listings: %w", err)
	}

	if s.publisher != nil {
		for _, l := range stale {
			s.publisher.Publish(foodspot.Event{Type: foodspot.EventExpired, Listing: l})
		}
	}
	s.log.Info("expired stale listings", "count", len(stale))
	return len(stale), nil
}
