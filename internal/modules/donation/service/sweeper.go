package service

import (
	"context"
	"log"
	"time"

	"github.com/sharebite/sharebite/internal/modules/donation/repository"
	feed "github.com/sharebite/sharebite/internal/modules/feed/service"
)

// Sweeper is the server-side expiry pass. Running it in the store rather than
// trusting dashboards to write "expired" keeps the transition atomic and
// removes the client-clock trust problem.
//
// Each pass, in one conditional bulk update per rule:
//   - edible posted rows past expiry are diverted to the non-edible queue
//     (or expired outright when diversion is disabled),
//   - non-edible posted rows never match; their expiry is a far-future
//     sentinel,
//   - diverted rows unclaimed past expiry plus the grace window expire.
type Sweeper struct {
	repo          repository.DonationRepository
	publisher     feed.Publisher
	divertEdible  bool
	divertGrace   time.Duration
	sweepInterval time.Duration
	now           func() time.Time
}

func NewSweeper(repo repository.DonationRepository, publisher feed.Publisher, interval time.Duration, divertEdible bool, divertGrace time.Duration) *Sweeper {
	return &Sweeper{
		repo:          repo,
		publisher:     publisher,
		divertEdible:  divertEdible,
		divertGrace:   divertGrace,
		sweepInterval: interval,
		now:           time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				log.Printf("donation sweep failed: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one expiry/divert pass and publishes every affected row.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()

	if s.divertEdible {
		diverted, err := s.repo.DivertExpiredEdible(ctx, now)
		if err != nil {
			return err
		}
		for i := range diverted {
			s.publisher.PublishUpdate(ctx, &diverted[i])
		}
	} else {
		expired, err := s.repo.ExpirePosted(ctx, now)
		if err != nil {
			return err
		}
		for i := range expired {
			s.publisher.PublishUpdate(ctx, &expired[i])
		}
	}

	// Diverted rows stay claimable for the grace window past their original
	// expiry, then expire for good.
	expired, err := s.repo.ExpireDiverted(ctx, now.Add(-s.divertGrace))
	if err != nil {
		return err
	}
	for i := range expired {
		s.publisher.PublishUpdate(ctx, &expired[i])
	}

	return nil
}
