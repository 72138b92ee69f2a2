package scheduler

import (
	"context"
	"sort"
	"time"

	"github.com/aprscheduler/apr-scheduler/internal/model"
	"github.com/aprscheduler/apr-scheduler/internal/selector"
)

// dispatchLoop runs at a fixed cadence, scanning queued jobs in priority
// order and handing each a host if one fits.
func (s *Service) dispatchLoop(ctx context.Context) {
	defer s.loopWG.Done()
	interval := time.Duration(s.cfg.ScheduleIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchOnce(ctx)
		}
	}
}

// dispatchOnce performs a single dispatch pass:
//  1. liveness sweep
//  2. collect QUEUED jobs
//  3. sort by (priority desc, created_at asc)
//  4. for each, ask the selector for a fitting host
//  5. if found: dispatch + allocate + spawn supervisor; else leave queued
func (s *Service) dispatchOnce(ctx context.Context) {
	s.mu.Lock()
	timeout := time.Duration(s.cfg.HeartbeatTimeoutSec) * time.Second
	s.hosts.SweepStale(timeout)

	queued := s.jobs.Queued()
	sort.Slice(queued, func(i, k int) bool {
		a, b := queued[i], queued[k]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})

	toSupervise := make([]string, 0, len(queued))
	for _, job := range queued {
		host := selector.PickHost(s.hosts.List(), job.Resource)
		if host == nil {
			continue
		}
		// Re-fetch the live host (List returns clones) to mutate usage.
		liveHost, err := s.hosts.Get(host.ID)
		if err != nil {
			continue
		}

		now := s.now()
		job.Status = model.StatusDispatched
		job.AssignedHostID = liveHost.ID
		job.Stage = "dispatched"
		job.UpdatedAt = now
		liveHost.Allocate(job.ID, job.Resource)
		s.jobs.AppendEvent(job, model.EventDispatched, "dispatched to host "+liveHost.ID, model.DefaultOperator)

		toSupervise = append(toSupervise, job.ID)
	}
	s.mu.Unlock()

	for _, jobID := range toSupervise {
		s.superWG.Add(1)
		go s.runSupervisor(ctx, jobID)
	}
}
