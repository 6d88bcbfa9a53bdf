// Package scheduler drives the periodic pairing passes, one cron entry per
// category.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"duo-trivia-service/internal/domain"
)

// PairingRunner is the scheduler-facing slice of the pairing engine.
type PairingRunner interface {
	RunPairingPass(ctx context.Context, category string) error
}

type Scheduler struct {
	cron   *cron.Cron
	runner PairingRunner
	log    *zap.Logger
}

func New(runner PairingRunner, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		log:    log,
	}
}

// Register adds a fixed-interval pairing job for each category.
func (s *Scheduler) Register(categories []string, interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	for _, category := range categories {
		category := category
		if _, err := s.cron.AddJob(spec, s.buildJob(category)); err != nil {
			return fmt.Errorf("schedule category %s: %w", category, err)
		}
	}
	return nil
}

// buildJob wraps a category pass with timing and failure logs. An overlap
// with a still-running pass is expected and logged at debug only.
func (s *Scheduler) buildJob(category string) cron.Job {
	return jobFunc(func() {
		start := time.Now()
		err := s.runner.RunPairingPass(context.Background(), category)
		switch {
		case errors.Is(err, domain.ErrRunInProgress):
			s.log.Debug("pairing tick skipped, run in progress",
				zap.String("category", category))
		case err != nil:
			s.log.Error("pairing tick failed",
				zap.String("category", category),
				zap.Error(err))
		default:
			s.log.Debug("pairing tick finished",
				zap.String("category", category),
				zap.Duration("took", time.Since(start)))
		}
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for in-flight jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

type jobFunc func()

func (f jobFunc) Run() {
	f()
}
