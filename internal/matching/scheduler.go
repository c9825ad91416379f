package matching

import (
	"context"
	"sync"
	"time"

	"github.com/imadgeboyega/sparkvibe-backend/internal/common/logger"
)

type Scheduler struct {
	service  Service
	interval time.Duration
	log      *logger.Logger

	wg sync.WaitGroup
}

func NewScheduler(service Service, interval time.Duration, log *logger.Logger) *Scheduler {
	return &Scheduler{service: service, interval: interval, log: log}
}

// Start launches the periodic auto-match batch. A zero interval disables it.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.log.Info("auto-match scheduler disabled")
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runEvery(ctx, s.interval, s.runBatch)
	}()
}

// Wait blocks until the loop started by Start has exited, including any
// batch that was running when ctx was cancelled.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runBatch(ctx context.Context) error {
	_, err := s.service.RunAutoMatchBatch(ctx)
	return err
}

func (s *Scheduler) runEvery(ctx context.Context, interval time.Duration, task func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := task(ctx); err != nil {
				s.log.Error("scheduled task failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
