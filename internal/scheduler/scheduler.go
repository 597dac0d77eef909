// Package scheduler runs lotteries for free items whose deadline has passed.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	applog "github.com/freebies-japan/api/internal/platform/logging"
	"github.com/freebies-japan/api/internal/service/actor"
	"github.com/freebies-japan/api/internal/service/draw"
	"github.com/freebies-japan/api/internal/service/item"
)

// BatchSize caps how many due items one run draws.
const BatchSize = 50

// DueLister finds items whose lottery deadline has passed and lapses the
// ones nobody requested.
type DueLister interface {
	ListDueLotteries(ctx context.Context, now time.Time, limit int) ([]item.Item, error)
	LapseLottery(ctx context.Context, itemID string, now time.Time) error
}

// Summary counts the outcome of one run. Skipped items had no participants;
// their deadline is cleared so they leave the due set.
type Summary struct {
	Drawn   int
	Skipped int
	Failed  int
}

// Scheduler triggers draws on a cron schedule.
type Scheduler struct {
	items  DueLister
	draws  draw.Service
	cron   *cron.Cron
	logger *zap.Logger
	now    func() time.Time
}

// New creates a scheduler for spec in the named timezone. It does not start
// until Start is called.
func New(items DueLister, draws draw.Service, spec, timezone string, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		items:  items,
		draws:  draws,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule draws: %w", err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running job. It returns ctx.Err()
// when ctx ends first.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn("scheduled draw still running at shutdown")
		return ctx.Err()
	}
}

// RunOnce draws every due item once. Items without requests have their
// lottery lapsed: they stay listed without a deadline.
func (s *Scheduler) RunOnce(ctx context.Context) Summary {
	ctx = applog.WithLogger(ctx, s.logger)
	var sum Summary

	due, err := s.items.ListDueLotteries(ctx, s.now(), BatchSize)
	if err != nil {
		applog.LogError(ctx, "list due lotteries", err)
		return sum
	}

	for _, it := range due {
		if ctx.Err() != nil {
			break
		}
		res, err := s.draws.Draw(ctx, actor.System(), it.ID, draw.Params{})
		switch {
		case err == nil:
			sum.Drawn++
			applog.LogInfo(ctx, "scheduled draw",
				zap.String("item_id", it.ID),
				zap.Int("winners", len(res.Winners)),
				zap.Int("participants", res.ParticipantCount),
				zap.Bool("replayed", res.Replayed))
		case errors.Is(err, draw.ErrNoParticipants):
			sum.Skipped++
			if err := s.items.LapseLottery(ctx, it.ID, s.now()); err != nil {
				applog.LogError(ctx, "lapse lottery", err, zap.String("item_id", it.ID))
			}
		default:
			sum.Failed++
			applog.LogError(ctx, "scheduled draw failed", err, zap.String("item_id", it.ID))
		}
	}

	if len(due) > 0 {
		applog.LogInfo(ctx, "scheduled draw run",
			zap.Int("due", len(due)),
			zap.Int("drawn", sum.Drawn),
			zap.Int("skipped", sum.Skipped),
			zap.Int("failed", sum.Failed))
	}
	return sum
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
