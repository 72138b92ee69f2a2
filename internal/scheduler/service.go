// Package scheduler composes the host registry, job store, fit/selector,
// dispatch loop, per-job supervisor and control operations into one
// service object.
//
// The service holds all authoritative in-memory state behind a single
// mutex rather than a process-wide singleton; hostregistry.Registry and
// jobstore.Store are plain containers mutated only while Service holds
// that lock.
package scheduler

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/aprscheduler/apr-scheduler/internal/config"
	"github.com/aprscheduler/apr-scheduler/internal/hostregistry"
	"github.com/aprscheduler/apr-scheduler/internal/jobstore"
)

// processHandle tracks the live subprocess backing a dispatched job.
type processHandle struct {
	cmd           *exec.Cmd
	hostID        string
	startedAt     time.Time
	stopRequested bool // explicit flag preferred over message-sentinel detection
}

// Service is the scheduler core. Construct with New, then Start to launch
// the background dispatch loop.
type Service struct {
	cfg    *config.Config
	logger *slog.Logger

	mu      sync.Mutex
	hosts   *hostregistry.Registry
	jobs    *jobstore.Store
	handles map[string]*processHandle

	env  []string
	now  func() time.Time

	cancel  context.CancelFunc
	loopWG  sync.WaitGroup // the dispatch loop goroutine only
	superWG sync.WaitGroup // per-job supervisor goroutines, not waited on by Close
}

// New constructs a Service. The scheduler is not running until Start is
// called.
func New(cfg *config.Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	nowFn := func() time.Time { return time.Now().UTC() }
	s := &Service{
		cfg:     cfg,
		logger:  logger,
		hosts:   hostregistry.New(nowFn),
		jobs:    jobstore.New(nowFn),
		handles: make(map[string]*processHandle),
		env:     os.Environ(),
		now:     nowFn,
	}
	return s
}

// Start launches the background dispatch loop. Stop it by
// cancelling ctx or calling Close.
func (s *Service) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loopWG.Add(1)
	go s.dispatchLoop(ctx)
}

// Close stops the dispatch loop and returns once it has exited. It does
// NOT wait for in-flight per-job supervisors: per spec §9, teardown may
// leave running subprocesses behind, and a supervisor for a long-running
// or paused job can outlive the scheduler by design, so Close must not
// block on it.
func (s *Service) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	s.loopWG.Wait()
}
