package scheduler

import (
	"github.com/aprscheduler/apr-scheduler/internal/jobstore"
	"github.com/aprscheduler/apr-scheduler/internal/model"
)

// SubmitJobInput is the external job-submission payload.
type SubmitJobInput struct {
	Command    string
	Project    string
	Design     string
	Owner      string
	Priority   int
	TimeoutSec int
	RetryLimit int
	Workdir    string
	Env        map[string]string
	Resource   model.ResourceRequest
}

func (in SubmitJobInput) toStoreInput() jobstore.SubmitInput {
	return jobstore.SubmitInput{
		Command:    in.Command,
		Project:    in.Project,
		Design:     in.Design,
		Owner:      in.Owner,
		Priority:   in.Priority,
		TimeoutSec: in.TimeoutSec,
		RetryLimit: in.RetryLimit,
		Workdir:    in.Workdir,
		Env:        in.Env,
		Resource:   in.Resource,
	}
}

// SubmitJob validates and enqueues a new job.
func (s *Service) SubmitJob(in SubmitJobInput) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs.Submit(in.toStoreInput())
}

// SubmitJobs sequentially submits a batch; a validation failure aborts
// further submission, with jobs already submitted remaining in the store.
func (s *Service) SubmitJobs(ins []SubmitJobInput) ([]*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	storeIns := make([]jobstore.SubmitInput, len(ins))
	for i, in := range ins {
		storeIns[i] = in.toStoreInput()
	}
	return s.jobs.SubmitBatch(storeIns)
}

// GetJob returns a job snapshot including its event list.
func (s *Service) GetJob(id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs.Get(id)
}

// JobFilter narrows ListJobs by optional equality.
type JobFilter struct {
	Status  string
	Owner   string
	Project string
}

// ListJobs returns job snapshots matching filter, newest first.
func (s *Service) ListJobs(f JobFilter) []*model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs.List(jobstore.ListFilter(f))
}

// GetJobEvents returns a job's ordered event log.
func (s *Service) GetJobEvents(id string) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs.Events(id)
}

// GetJobLogs returns the last tail lines of a job's log file, defaulting
// tail to 200 when <1 is supplied.
func (s *Service) GetJobLogs(id string, tail int) ([]string, error) {
	if tail < 1 {
		tail = 200
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs.Logs(id, tail)
}

// WatchJobs returns a live channel of every event appended from this point
// forward (SPEC_FULL.md supplemented feature, grounded on
// jontk-slurm-client/pkg/watch). Callers must invoke the returned cancel
// function when done.
func (s *Service) WatchJobs() (<-chan model.Event, func()) {
	return s.jobs.Watch()
}
