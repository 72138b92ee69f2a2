// Package jobstore holds the in-memory job table and per-job event log.
// Like hostregistry.Registry, Store is a plain data container: every
// method that mutates job state assumes the caller holds the
// scheduler's shared lock. Watch and its cancel function are the
// exception — they guard
// only the small subscriber list, which is independent of job state and
// safe to touch from any goroutine at any time.
package jobstore

import (
	"sort"
	"sync"
	"time"

	"github.com/aprscheduler/apr-scheduler/internal/model"
	"github.com/aprscheduler/apr-scheduler/internal/schederr"
)

// SubmitInput is the validated payload for submitting a new job.
type SubmitInput struct {
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

	// ParentJobID is set by rerun_job to link a rerun to its origin.
	ParentJobID *string
}

// ListFilter narrows List's results by optional equality.
type ListFilter struct {
	Status  string
	Owner   string
	Project string
}

// Store is the in-memory job table.
type Store struct {
	jobs map[string]*model.Job
	now  func() time.Time

	subMu sync.Mutex
	subs  map[int]chan model.Event
	subID int
}

// New creates an empty job store.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		jobs: make(map[string]*model.Job),
		now:  now,
		subs: make(map[int]chan model.Event),
	}
}

func applyDefaults(in *SubmitInput) {
	if in.Project == "" {
		in.Project = "default"
	}
	if in.Owner == "" {
		in.Owner = "unknown"
	}
	if in.Priority == 0 {
		in.Priority = 1
	}
	if in.Workdir == "" {
		in.Workdir = "."
	}
}

// Submit validates input and creates a new QUEUED job.
func (s *Store) Submit(in SubmitInput) (*model.Job, error) {
	if in.Command == "" {
		return nil, schederr.Validation("command is required")
	}
	if in.Resource.CPU <= 0 {
		return nil, schederr.Validation("resource_request.cpu must be > 0")
	}
	if in.Resource.MemoryGB <= 0 {
		return nil, schederr.Validation("resource_request.memory_gb must be > 0")
	}
	if in.Resource.Slots <= 0 {
		return nil, schederr.Validation("resource_request.slots must be > 0")
	}

	applyDefaults(&in)
	now := s.now()

	env := make(map[string]string, len(in.Env))
	for k, v := range in.Env {
		env[k] = v
	}

	job := &model.Job{
		ID:          model.NewJobID(),
		Command:     in.Command,
		Project:     in.Project,
		Design:      in.Design,
		Owner:       in.Owner,
		Priority:    in.Priority,
		TimeoutSec:  in.TimeoutSec,
		RetryLimit:  in.RetryLimit,
		Resource:    in.Resource.Clone(),
		Workdir:     in.Workdir,
		Env:         env,
		Status:      model.StatusQueued,
		CreatedAt:   now,
		QueuedAt:    now,
		UpdatedAt:   now,
		Stage:       "queued",
		ParentJobID: in.ParentJobID,
	}
	s.jobs[job.ID] = job
	s.appendEventLocked(job, model.EventSubmitted, "job submitted", job.Owner)

	return job.Clone(), nil
}

// SubmitBatch sequentially submits every job in the list. Atomicity across
// the batch is not required: on the first validation failure, submission
// stops and the error is returned; jobs submitted before the failure remain
// in the store.
func (s *Store) SubmitBatch(ins []SubmitInput) ([]*model.Job, error) {
	jobs := make([]*model.Job, 0, len(ins))
	for _, in := range ins {
		j, err := s.Submit(in)
		if err != nil {
			return jobs, err
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// Get returns a snapshot of a job including its event list, or a not-found
// error.
func (s *Store) Get(id string) (*model.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, schederr.NotFound("job %q not found", id)
	}
	return j.Clone(), nil
}

// GetLive returns the live (non-cloned) job entry for internal mutation by
// the scheduler, or a not-found error.
func (s *Store) GetLive(id string) (*model.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, schederr.NotFound("job %q not found", id)
	}
	return j, nil
}

// List returns snapshots of jobs matching filter, ordered by created_at
// descending.
func (s *Store) List(f ListFilter) []*model.Job {
	out := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if f.Status != "" && string(j.Status) != f.Status {
			continue
		}
		if f.Owner != "" && j.Owner != f.Owner {
			continue
		}
		if f.Project != "" && j.Project != f.Project {
			continue
		}
		out = append(out, j.Clone())
	}
	sort.Slice(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt) })
	return out
}

// Queued returns live (non-cloned) jobs with status QUEUED, for the
// dispatcher to consider. The dispatcher is the sole internal caller and
// already holds the scheduler lock.
func (s *Store) Queued() []*model.Job {
	out := make([]*model.Job, 0)
	for _, j := range s.jobs {
		if j.Status == model.StatusQueued {
			out = append(out, j)
		}
	}
	return out
}

// Events returns the ordered event log for a job.
func (s *Store) Events(id string) ([]model.Event, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, schederr.NotFound("job %q not found", id)
	}
	return append([]model.Event(nil), j.Events...), nil
}

// AppendEvent appends an event to a job's log and broadcasts it to any
// active watchers. The caller must hold the scheduler lock and pass the
// live (non-cloned) job.
func (s *Store) AppendEvent(job *model.Job, typ model.EventType, message, operator string) model.Event {
	return s.appendEventLocked(job, typ, message, operator)
}

func (s *Store) appendEventLocked(job *model.Job, typ model.EventType, message, operator string) model.Event {
	if operator == "" {
		operator = model.DefaultOperator
	}
	ev := model.Event{
		ID:        model.NewEventID(),
		JobID:     job.ID,
		Type:      typ,
		Message:   message,
		Operator:  operator,
		CreatedAt: s.now(),
	}
	job.Events = append(job.Events, ev)
	s.broadcast(ev)
	return ev
}
