package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/abodyssee/crm/internal/crm/store"
)

// cleanupTimeout bounds a single purge so a stuck database cannot pin the
// worker past shutdown.
const cleanupTimeout = 30 * time.Second

// HousekeepingService purges expired sessions on a fixed interval. Stores
// that expire entries themselves (redis) simply report nothing to delete.
type HousekeepingService struct {
	Sessions store.Sessions
	Logger   *slog.Logger
	Interval time.Duration
	Now      func() time.Time

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// NewHousekeepingService returns a stopped service. A non-positive interval
// means hourly.
func NewHousekeepingService(sessions store.Sessions, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Sessions: sessions,
		Logger:   logger,
		Interval: interval,
		Now:      time.Now,
	}
}

// Start purges once right away, then on every tick until Stop.
func (s *HousekeepingService) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)

		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			s.Cleanup(ctx)
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	s.Logger.Info("housekeeping started", "interval", s.Interval)
}

// Stop cancels an in-flight purge and waits for the worker to exit. It is
// safe to call more than once, or without Start.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		if s.cancel == nil {
			return
		}
		s.cancel()
		<-s.done
		s.Logger.Info("housekeeping stopped")
	})
}

// Cleanup deletes expired sessions once and returns how many went.
func (s *HousekeepingService) Cleanup(parent context.Context) int64 {
	ctx, cancel := context.WithTimeout(parent, cleanupTimeout)
	defer cancel()

	n, err := s.Sessions.DeleteExpiredSessions(ctx, s.Now().UTC())
	if err != nil {
		// Cancelled by Stop: not worth an error line.
		if parent.Err() == nil {
			s.Logger.Error("expired session purge failed", "error", err)
		}
		return 0
	}
	if n > 0 {
		s.Logger.Info("expired sessions purged", "count", n)
	} else {
		s.Logger.Debug("no expired sessions")
	}
	return n
}
