package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/keystone/internal/auth/store"
)

// HousekeepingService periodically flips API keys whose validity window
// has closed to inactive, so listings match what authentication enforces.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}

	return &HousekeepingService{
		Store:    st,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop blocks until the worker has finished any in-progress sweep.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deactivates lapsed API keys once and returns how many changed.
func (s *HousekeepingService) Sweep(ctx context.Context) int64 {
	n, err := s.Store.APIKeys().DeactivateLapsedAPIKeys(ctx, s.Now().UTC())
	if err != nil {
		s.Logger.Error("failed to deactivate lapsed api keys", slog.Any("error", err))
		return 0
	}
	if n > 0 {
		s.Logger.Info("deactivated lapsed api keys", slog.Int64("count", n))
	}
	return n
}
