package expiry

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

const (
	// Schedule fires on the hour and half hour. The first field is seconds.
	Schedule = "0 */30 * * * *"

	lockKey    = "food-spots:expiry-lock"
	lockTTL    = 5 * time.Minute
	runTimeout = 2 * time.Minute
)

// Scheduler runs the sweep on a cron schedule. When Redis is configured a
// short-lived lock keeps replicas from sweeping the same tick twice.
type Scheduler struct {
	sweeper *Sweeper
	redis   *redis.Client
	log     *slog.Logger
	cron    *cron.Cron
	now     func() time.Time
}

func NewScheduler(sweeper *Sweeper, redisClient *redis.Client, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		sweeper: sweeper,
		redis:   redisClient,
		log:     log.With("component", "expiry"),
		cron:    cron.New(cron.WithSeconds()),
		now:     time.Now,
	}
}

func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(Schedule, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("expiry scheduler started", "schedule", Schedule)
	return nil
}

// Stop halts the schedule and returns a context done once a running sweep finishes.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, _ = s.RunOnce(ctx)
}

// RunOnce performs a single sweep. It reports ran=false when another replica
// holds the lock for this tick.
func (s *Scheduler) RunOnce(ctx context.Context) (bool, error) {
	acquired, err := s.acquire(ctx)
	if err != nil {
		s.log.Warn("expiry lock unavailable, sweeping anyway", "error", err)
		acquired = true
	}
	if !acquired {
		s.log.Debug("expiry sweep skipped, lock held elsewhere")
		return false, nil
	}

	count, err := s.sweeper.Sweep(ctx, s.now())
	if err != nil {
		s.log.Error("expiry sweep failed", "error", err)
		return true, err
	}
	s.log.Info("expiry sweep finished", "expired", count)
	return true, nil
}

func (s *Scheduler) acquire(ctx context.Context) (bool, error) {
	if s.redis == nil {
		return true, nil
	}
	return s.redis.SetNX(ctx, lockKey, s.now().UTC().Format(time.RFC3339), lockTTL).Result()
}
