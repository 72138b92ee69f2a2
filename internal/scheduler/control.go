package scheduler

import (
	"context"
	"math"

	"github.com/aprscheduler/apr-scheduler/internal/hostprobe"
	"github.com/aprscheduler/apr-scheduler/internal/jobstore"
	"github.com/aprscheduler/apr-scheduler/internal/model"
	"github.com/aprscheduler/apr-scheduler/internal/procgroup"
	"github.com/aprscheduler/apr-scheduler/internal/schederr"
)

// StopJob cancels a job, whether it is still queued or already running.
// A queued job is terminalized immediately; a running job's process group
// is sent SIGTERM and the supervisor's post-exit section records the
// CANCELLED status once it actually exits.
func (s *Service) StopJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.jobs.GetLive(jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return schederr.Validation("job %q is already in a terminal state %s", jobID, job.Status)
	}

	now := s.now()
	if handle, ok := s.handles[jobID]; ok {
		handle.stopRequested = true
		if handle.cmd.Process != nil {
			_ = procgroup.Terminate(handle.cmd.Process.Pid)
		}
		s.jobs.AppendEvent(job, model.EventStop, "stop requested", model.DefaultOperator)
		return nil
	}

	// No live process: job is QUEUED or DISPATCHED-but-not-yet-spawned.
	if job.AssignedHostID != "" {
		if host, herr := s.hosts.Get(job.AssignedHostID); herr == nil {
			host.Release(job.ID, job.Resource)
		}
	}
	job.Status = model.StatusCancelled
	job.Message = "cancelled before starting"
	job.FinishedAt = now
	job.UpdatedAt = now
	job.Stage = "finished"
	s.jobs.AppendEvent(job, model.EventCancelled, "cancelled before starting", model.DefaultOperator)
	return nil
}

// PauseJob suspends a running job's process group with SIGSTOP (spec
// §4.F). Queued jobs cannot be paused; there is nothing running to stop.
func (s *Service) PauseJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.jobs.GetLive(jobID)
	if err != nil {
		return err
	}
	if job.Status == model.StatusPaused {
		return nil
	}
	if job.Status != model.StatusRunning {
		return schederr.Validation("job %q is not RUNNING (status=%s)", jobID, job.Status)
	}
	if host, herr := s.hosts.Get(job.AssignedHostID); herr == nil && host.IsRemote() {
		return schederr.Validation("pause is not supported for remote executor host %q", host.ID)
	}
	handle, ok := s.handles[jobID]
	if !ok || handle.cmd.Process == nil {
		return schederr.Internal(nil, "job %q has no live process handle", jobID)
	}
	if err := procgroup.Stop(handle.cmd.Process.Pid); err != nil {
		return err
	}

	now := s.now()
	job.Status = model.StatusPaused
	job.Stage = "paused"
	job.UpdatedAt = now
	s.jobs.AppendEvent(job, model.EventPause, "paused by operator", model.DefaultOperator)
	return nil
}

// ResumeJob resumes a paused job's process group with SIGCONT.
func (s *Service) ResumeJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.jobs.GetLive(jobID)
	if err != nil {
		return err
	}
	if job.Status != model.StatusPaused {
		return schederr.Validation("job %q is not PAUSED (status=%s)", jobID, job.Status)
	}
	if host, herr := s.hosts.Get(job.AssignedHostID); herr == nil && host.IsRemote() {
		return schederr.Validation("resume is not supported for remote executor host %q", host.ID)
	}
	handle, ok := s.handles[jobID]
	if !ok || handle.cmd.Process == nil {
		return schederr.Internal(nil, "job %q has no live process handle", jobID)
	}
	if err := procgroup.Continue(handle.cmd.Process.Pid); err != nil {
		return err
	}

	now := s.now()
	job.Status = model.StatusRunning
	job.Stage = "running"
	job.UpdatedAt = now
	s.jobs.AppendEvent(job, model.EventResume, "resumed by operator", model.DefaultOperator)
	return nil
}

// RerunJob submits a fresh job cloned from a terminal job's definition,
// linking it back via ParentJobID. The original job is left
// untouched.
func (s *Service) RerunJob(jobID string) (*model.Job, error) {
	s.mu.Lock()
	orig, err := s.jobs.GetLive(jobID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !orig.Status.IsTerminal() {
		s.mu.Unlock()
		return nil, schederr.Validation("job %q is not in a terminal state (status=%s)", jobID, orig.Status)
	}
	parent := orig.ID
	in := SubmitJobInput{
		Command:    orig.Command,
		Project:    orig.Project,
		Design:     orig.Design,
		Owner:      orig.Owner,
		Priority:   orig.Priority,
		TimeoutSec: orig.TimeoutSec,
		RetryLimit: orig.RetryLimit,
		Workdir:    orig.Workdir,
		Env:        orig.Env,
		Resource:   orig.Resource,
	}
	storeIn := in.toStoreInput()
	storeIn.ParentJobID = &parent
	job, err := s.jobs.Submit(storeIn)
	if err == nil {
		// Submit returns a clone; the event must go on the live entry.
		live, _ := s.jobs.GetLive(job.ID)
		s.jobs.AppendEvent(live, model.EventRerun, "rerun of "+parent, model.DefaultOperator)
		job = live.Clone()
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return job, nil
}

// HostMetrics summarizes one host's current load for MetricsSummary.
type HostMetrics struct {
	HostID       string `json:"host_id"`
	Status       string `json:"status"`
	UsedSlots    int    `json:"used_slots"`
	TotalSlots   int    `json:"total_slots"`
	RunningCount int    `json:"running_count"`
}

// MetricsSummary aggregates scheduler-wide counters: per-status
// job totals, a rounded success rate over every terminal job, and per-host
// load. LocalLoad is the live CPU/RAM utilization of the machine the
// scheduler process itself runs on (SPEC_FULL.md SUPPLEMENTED FEATURES), distinct
// from the slot/cpu/memory accounting tracked per registered host.
type MetricsSummary struct {
	TotalJobs    int            `json:"total_jobs"`
	FinishedJobs int            `json:"finished_jobs"`
	StatusCounts map[string]int `json:"status_counts"`
	SuccessRate  float64        `json:"success_rate"`
	TotalHosts   int            `json:"total_hosts"`
	TotalSlots   int            `json:"total_slots"`
	UsedSlots    int            `json:"used_slots"`
	Hosts        []HostMetrics  `json:"hosts"`
	LocalLoad    hostprobe.Load `json:"local_load"`
}

// MetricsSummary computes the current MetricsSummary snapshot.
func (s *Service) MetricsSummary(ctx context.Context) MetricsSummary {
	load := hostprobe.SampleLoad(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := s.jobs.List(jobstore.ListFilter{})
	counts := make(map[string]int)
	var terminal, succeeded int
	for _, j := range jobs {
		counts[string(j.Status)]++
		if j.Status.IsTerminal() {
			terminal++
			if j.Status == model.StatusSuccess {
				succeeded++
			}
		}
	}

	rate := 0.0
	if terminal > 0 {
		rate = math.Round(float64(succeeded)/float64(terminal)*10000) / 10000
	}

	hosts := s.hosts.List()
	hostMetrics := make([]HostMetrics, 0, len(hosts))
	var totalSlots, usedSlots int
	for _, h := range hosts {
		hostMetrics = append(hostMetrics, HostMetrics{
			HostID:       h.ID,
			Status:       string(h.Status),
			UsedSlots:    h.UsedSlots,
			TotalSlots:   h.TotalSlots,
			RunningCount: len(h.RunningJobIDs),
		})
		totalSlots += h.TotalSlots
		usedSlots += h.UsedSlots
	}

	return MetricsSummary{
		TotalJobs:    len(jobs),
		FinishedJobs: terminal,
		StatusCounts: counts,
		SuccessRate:  rate,
		TotalHosts:   len(hosts),
		TotalSlots:   totalSlots,
		UsedSlots:    usedSlots,
		Hosts:        hostMetrics,
		LocalLoad:    load,
	}
}
