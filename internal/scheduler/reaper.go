// Package scheduler runs the periodic maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/openshelf/bibliotheca/internal/reader"
)

// SessionReaper periodically closes reading sessions that have seen no
// activity, issuing their final position writes and releasing document
// handles.
type SessionReaper struct {
	registry *reader.Registry
	schedule string
	maxIdle  time.Duration

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewSessionReaper creates a reaper that closes sessions idle for longer
// than maxIdle, on the given cron schedule.
func NewSessionReaper(registry *reader.Registry, schedule string, maxIdle time.Duration) *SessionReaper {
	return &SessionReaper{
		registry: registry,
		schedule: schedule,
		maxIdle:  maxIdle,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the reaper schedule.
func (s *SessionReaper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	entryID, err := s.cron.AddFunc(s.schedule, func() {
		s.runReap()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session reaper: %w", err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Session reaper: started with schedule '%s', max idle %s", s.schedule, s.maxIdle)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the reaper, waiting for a running sweep to finish.
func (s *SessionReaper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Session reaper: stopped")
}

// RunNow triggers an immediate sweep.
func (s *SessionReaper) RunNow() {
	go s.runReap()
}

// IsRunning returns whether the reaper is active.
func (s *SessionReaper) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRunTime returns when the next sweep will occur.
func (s *SessionReaper) NextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

func (s *SessionReaper) runReap() {
	s.registry.ReapIdle(s.maxIdle)
}
