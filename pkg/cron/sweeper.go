// Package cron runs scheduled session-store maintenance. The only job today
// is the sweeper, which purges sessions idle longer than the configured TTL
// on a cron schedule.
package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/sipeed/mpbot/pkg/logger"
	"github.com/sipeed/mpbot/pkg/session"
)

// Sweeper periodically removes stale sessions from a store.
type Sweeper struct {
	store    session.Store
	schedule string
	ttl      time.Duration
	gron     *gronx.Gronx
	log      *logger.Logger
}

// NewSweeper validates the cron expression and builds a Sweeper. A zero ttl
// is rejected; disable sweeping by not running a Sweeper at all.
func NewSweeper(store session.Store, schedule string, ttl time.Duration, log *logger.Logger) (*Sweeper, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cron: ttl must be positive, got %s", ttl)
	}
	g := gronx.New()
	if !g.IsValid(schedule) {
		return nil, fmt.Errorf("cron: invalid sweep schedule %q", schedule)
	}
	if log == nil {
		log = logger.Default()
	}
	return &Sweeper{store: store, schedule: schedule, ttl: ttl, gron: g, log: log}, nil
}

// Run blocks until ctx is cancelled, checking the schedule once a minute
// and sweeping when it is due.
func (s *Sweeper) Run(ctx context.Context) {
	s.log.InfoCF("cron", "Session sweeper started", map[string]interface{}{
		"schedule": s.schedule,
		"ttl":      s.ttl.String(),
	})

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.InfoC("cron", "Session sweeper stopped")
			return
		case now := <-ticker.C:
			due, err := s.gron.IsDue(s.schedule, now)
			if err != nil || !due {
				continue
			}
			s.sweep(ctx, now)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time) {
	removed, err := s.store.Sweep(ctx, now.Add(-s.ttl))
	if err != nil {
		s.log.ErrorCF("cron", "Session sweep failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if removed > 0 {
		s.log.InfoCF("cron", "Swept stale sessions", map[string]interface{}{
			"removed": removed,
		})
	}
}
