package cleanup

import (
	"context"
	"time"

	"github.com/apex/log"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/api"
	"github.com/veedubyou/instant-karaoke-be/src/shared/session/registry"
)

// SessionDeleter tears down one session and all of its files.
type SessionDeleter interface {
	Delete(ctx context.Context, sessionID string) *api.Error
}

func NewScheduler(registry *registry.Registry, deleter SessionDeleter, sessionTTL time.Duration, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		registry:      registry,
		deleter:       deleter,
		sessionTTL:    sessionTTL,
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}
}

// Scheduler periodically removes sessions older than their TTL so that
// abandoned sessions don't accumulate artifacts forever. Expiry is based on
// creation time, not last access.
type Scheduler struct {
	registry      *registry.Registry
	deleter       SessionDeleter
	sessionTTL    time.Duration
	sweepInterval time.Duration
	stop          chan struct{}
}

// Start launches the sweep loop on its own goroutine. Call Stop to end it.
func (s *Scheduler) Start() {
	go s.run()
}

func (s *Scheduler) Stop() {
	close(s.stop)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(time.Now())

		case <-s.stop:
			return
		}
	}
}

// Sweep deletes every session created strictly before now minus the TTL.
// Failures are logged and skipped so one bad session can't wedge the sweep.
func (s *Scheduler) Sweep(now time.Time) {
	cutoff := now.Add(-s.sessionTTL)

	expired := s.registry.ExpiredBefore(cutoff)
	if len(expired) == 0 {
		return
	}

	log.WithField("count", len(expired)).Info("Sweeping expired sessions")

	for _, session := range expired {
		if apiErr := s.deleter.Delete(context.Background(), session.ID); apiErr != nil {
			log.WithField("session_id", session.ID).
				WithError(apiErr).
				Warn("Failed to clean up expired session")
		}
	}
}
