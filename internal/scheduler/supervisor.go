package scheduler

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/aprscheduler/apr-scheduler/internal/model"
	"github.com/aprscheduler/apr-scheduler/internal/procgroup"
)

// runSupervisor is the per-job background task. It is spawned
// once by the dispatch loop for each job it hands a host, and owns that
// job's subprocess from spawn through terminal state (and possible
// re-queue on retry).
func (s *Service) runSupervisor(ctx context.Context, jobID string) {
	defer s.superWG.Done()

	cmd, ok := s.startSupervisedProcess(jobID)
	if !ok {
		return
	}

	exitErr := s.waitForExit(ctx, jobID, cmd)
	s.finishSupervisedProcess(jobID, exitErr)
}

// startSupervisedProcess resolves the assigned host, composes the command,
// opens the log file, spawns the subprocess in its own process group, and
// records RUNNING state. Returns ok=false if the job was terminalized
// inline (e.g. host not found) and there is nothing to wait on.
func (s *Service) startSupervisedProcess(jobID string) (cmd *exec.Cmd, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.jobs.GetLive(jobID)
	if err != nil {
		s.logger.Error("supervisor: job vanished", "job_id", jobID, "error", err)
		return nil, false
	}
	if job.Status != model.StatusDispatched {
		// Stopped between dispatch and spawn; StopJob already finalized it.
		return nil, false
	}

	if err := os.MkdirAll(job.Workdir, 0o755); err != nil {
		s.logger.Warn("supervisor: failed to create workdir", "job_id", jobID, "workdir", job.Workdir, "error", err)
	}
	logPath := filepath.Join(s.cfg.LogDir(), job.ID+".log")
	job.LogPath = logPath

	host, err := s.hosts.Get(job.AssignedHostID)
	if err != nil {
		s.failJobLocked(job, "host not found")
		return nil, false
	}

	composed := composeCommand(job, host, s.env)

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		s.failJobLocked(job, fmt.Sprintf("failed to open log file: %v", err))
		return nil, false
	}

	cmd = exec.Command("sh", "-c", composed.ShellLine)
	cmd.Dir = composed.Dir
	cmd.Env = composed.Env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = procgroup.SysProcAttr()

	if err := cmd.Start(); err != nil {
		logFile.Close()
		s.failJobLocked(job, fmt.Sprintf("failed to start subprocess: %v", err))
		return nil, false
	}
	// The log file descriptor is now owned by the child; closing our copy
	// doesn't affect its writes.
	logFile.Close()

	now := s.now()
	s.handles[job.ID] = &processHandle{cmd: cmd, hostID: host.ID, startedAt: now}
	job.Status = model.StatusRunning
	job.StartedAt = now
	job.UpdatedAt = now
	job.Stage = "running"
	s.jobs.AppendEvent(job, model.EventRunning,
		fmt.Sprintf("started pid=%d on host=%s", cmd.Process.Pid, host.ID), model.DefaultOperator)

	return cmd, true
}

// failJobLocked marks a job FAILED without ever having spawned a process.
// Caller must hold s.mu.
func (s *Service) failJobLocked(job *model.Job, message string) {
	now := s.now()
	job.Status = model.StatusFailed
	job.Message = message
	job.FinishedAt = now
	job.UpdatedAt = now
	job.Stage = "finished"
	s.jobs.AppendEvent(job, model.EventFailed, message, model.DefaultOperator)
}

// exitOutcome captures how a supervised process ended.
type exitOutcome struct {
	timedOut bool
	exitCode int
	waitErr  error
}

// waitForExit polls for the subprocess's completion at the configured
// cadence, enforcing the job's timeout if one is set.
func (s *Service) waitForExit(ctx context.Context, jobID string, cmd *exec.Cmd) exitOutcome {
	poll := time.Duration(s.cfg.SupervisorPollMillis) * time.Millisecond
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	start := time.Now()
	timeout := s.jobTimeout(jobID)
	timedOut := false
	terminateSent := false

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			return exitOutcome{timedOut: timedOut, exitCode: exitCodeOf(err), waitErr: err}
		case <-ticker.C:
			if !terminateSent && timeout > 0 && time.Since(start) > timeout {
				timedOut = true
				terminateSent = true
				if cmd.Process != nil {
					_ = procgroup.Terminate(cmd.Process.Pid)
				}
			}
		case <-ctx.Done():
			// Shutting down; keep waiting on the subprocess without
			// killing it rather than dropping in-flight work.
		}
	}
}

func (s *Service) jobTimeout(jobID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, err := s.jobs.GetLive(jobID)
	if err != nil || job.TimeoutSec <= 0 {
		return 0
	}
	return time.Duration(job.TimeoutSec) * time.Second
}

func exitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}

// finishSupervisedProcess runs the post-exit critical section: release the
// host's reserved capacity, decide the terminal status in priority order,
// and apply the retry policy.
//
// Priority order for the terminal status, highest first:
//  1. TIMEOUT        — the poll loop killed the process group for running
//     past timeout_sec.
//  2. FAILED (defensive) — the job was PAUSED when the process exited; a
//     paused job's process is never supposed to be running, so this is
//     treated as a scheduler-side inconsistency rather than a success.
//  3. SUCCESS        — exit code 0.
//  4. CANCELLED       — an operator called stop_job (stopRequested flag).
//  5. FAILED          — any other non-zero exit.
func (s *Service) finishSupervisedProcess(jobID string, outcome exitOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.jobs.GetLive(jobID)
	if err != nil {
		s.logger.Error("supervisor: job vanished at exit", "job_id", jobID, "error", err)
		return
	}

	handle := s.handles[jobID]
	delete(s.handles, jobID)

	if host, herr := s.hosts.Get(job.AssignedHostID); herr == nil {
		host.Release(job.ID, job.Resource)
	}

	now := s.now()
	exitCode := outcome.exitCode
	job.ExitCode = &exitCode
	job.FinishedAt = now
	job.UpdatedAt = now
	job.Stage = "finished"

	var status model.JobStatus
	var evType model.EventType
	var message string

	switch {
	case outcome.timedOut:
		status, evType = model.StatusTimeout, model.EventTimeout
		message = fmt.Sprintf("killed after exceeding timeout_sec=%d", job.TimeoutSec)
	case job.Status == model.StatusPaused:
		status, evType = model.StatusFailed, model.EventFailed
		message = "process exited while job was PAUSED"
	case exitCode == 0:
		status, evType = model.StatusSuccess, model.EventSuccess
		message = "completed successfully"
	case handle != nil && handle.stopRequested:
		status, evType = model.StatusCancelled, model.EventCancelled
		message = "stopped by operator"
	default:
		status, evType = model.StatusFailed, model.EventFailed
		message = fmt.Sprintf("exited with code %d", exitCode)
	}

	job.Status = status
	job.Message = message
	s.jobs.AppendEvent(job, evType, message, model.DefaultOperator)

	if status == model.StatusFailed && job.RetryCount < job.RetryLimit {
		job.RetryCount++
		job.Status = model.StatusQueued
		job.Stage = "queued"
		job.AssignedHostID = ""
		job.StartedAt = time.Time{}
		job.FinishedAt = time.Time{}
		job.ExitCode = nil
		job.UpdatedAt = s.now()
		s.jobs.AppendEvent(job, model.EventRetrying,
			fmt.Sprintf("retry %d/%d after failure: %s", job.RetryCount, job.RetryLimit, message),
			model.DefaultOperator)
	}
}
