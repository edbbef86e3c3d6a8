package service

import (
	"context"
	"log"
	"sync"
	"time"

	"huanghe-analytics-api/internal/repository"
)

// RetentionConfig holds configuration for the snapshot retention sweeper.
type RetentionConfig struct {
	// MaxAge is the duration after which stored captures are deleted.
	// Default: 14 days
	MaxAge time.Duration

	// SweepInterval is how often the sweep runs.
	// Default: 6 hours
	SweepInterval time.Duration
}

// DefaultRetentionConfig returns default retention configuration.
// The analysis window tops out at 7 days, so two weeks of captures is enough.
func DefaultRetentionConfig() RetentionConfig {
	return RetentionConfig{
		MaxAge:        14 * 24 * time.Hour,
		SweepInterval: 6 * time.Hour,
	}
}

// RetentionSweeper periodically deletes snapshot captures past their
// retention window.
type RetentionSweeper struct {
	repo      repository.SnapshotRepository
	config    RetentionConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewRetentionSweeper creates a new retention sweeper.
func NewRetentionSweeper(repo repository.SnapshotRepository, config RetentionConfig) *RetentionSweeper {
	if config.MaxAge == 0 {
		config.MaxAge = 14 * 24 * time.Hour
	}
	if config.SweepInterval == 0 {
		config.SweepInterval = 6 * time.Hour
	}

	return &RetentionSweeper{
		repo:   repo,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the retention sweeper.
func (s *RetentionSweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.SweepInterval)
	s.mu.Unlock()

	log.Printf("[RetentionSweeper] Started - Interval: %v, MaxAge: %v",
		s.config.SweepInterval, s.config.MaxAge)

	// Run initial sweep after a short delay
	go func() {
		time.Sleep(1 * time.Minute)
		s.runSweep()
	}()

	go s.run()
}

// run is the main sweep loop.
func (s *RetentionSweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSweep()
		case <-s.stopCh:
			log.Printf("[RetentionSweeper] Stopped")
			return
		}
	}
}

// runSweep performs the actual deletion.
func (s *RetentionSweeper) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := s.repo.DeleteOldSnapshots(ctx, s.config.MaxAge)
	if err != nil {
		log.Printf("[RetentionSweeper] Error during sweep: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("[RetentionSweeper] Deleted %d expired captures", deleted)
	}
}

// Stop stops the retention sweeper.
func (s *RetentionSweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate sweep.
func (s *RetentionSweeper) RunNow() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return s.repo.DeleteOldSnapshots(ctx, s.config.MaxAge)
}
