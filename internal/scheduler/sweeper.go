package scheduler

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/ErDashrath/PragatiPath-sub000/internal/adaptive"
)

// Sweeper periodically force-completes sessions whose time limit has
// passed, so abandoned sessions still get their final mastery persisted.
type Sweeper struct {
	scheduler *gocron.Scheduler
	orch      *adaptive.Orchestrator
	interval  time.Duration
}

func NewSweeper(orch *adaptive.Orchestrator) *Sweeper {
	interval := time.Minute
	if v := os.Getenv("SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			interval = time.Duration(n) * time.Second
		}
	}

	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		orch:      orch,
		interval:  interval,
	}
}

// Start runs the sweep loop in the background until Stop is called.
func (s *Sweeper) Start() error {
	_, err := s.scheduler.Every(s.interval).Do(s.sweep)
	if err != nil {
		return err
	}
	s.scheduler.StartAsync()
	log.Printf("[sweeper] started, interval=%s", s.interval)
	return nil
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if n := s.orch.ExpireStale(ctx, time.Now()); n > 0 {
		log.Printf("[sweeper] expired %d stale sessions", n)
	}
}
