package scheduler

import (
	"context"

	"github.com/aprscheduler/apr-scheduler/internal/hostprobe"
	"github.com/aprscheduler/apr-scheduler/internal/hostregistry"
	"github.com/aprscheduler/apr-scheduler/internal/model"
	"github.com/aprscheduler/apr-scheduler/internal/schederr"
)

// RegisterHostInput is the external payload for registering a host.
type RegisterHostInput struct {
	HostID         string
	TotalSlots     int
	TotalCPU       int
	TotalMemoryGB  int
	Labels         map[string]string
	ExecutorPrefix string
}

// RegisterHost validates and stores (or re-registers) a host.
func (s *Service) RegisterHost(in RegisterHostInput) (*model.Host, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hosts.Register(hostregistry.RegisterInput{
		HostID:         in.HostID,
		TotalSlots:     in.TotalSlots,
		TotalCPU:       in.TotalCPU,
		TotalMemoryGB:  in.TotalMemoryGB,
		Labels:         in.Labels,
		ExecutorPrefix: in.ExecutorPrefix,
	})
}

// RegisterLocalHost registers a host whose total_cpu/total_memory_gb are
// auto-detected from the local machine via hostprobe when the caller
// leaves them unset, instead of requiring hardcoded topology
// (SPEC_FULL.md DOMAIN STACK).
func (s *Service) RegisterLocalHost(ctx context.Context, in RegisterHostInput) (*model.Host, error) {
	if in.TotalSlots <= 0 {
		return nil, schederr.Validation("total_slots must be > 0")
	}
	if in.TotalCPU <= 0 || in.TotalMemoryGB <= 0 {
		detected := hostprobe.Detect(ctx)
		if in.TotalCPU <= 0 {
			in.TotalCPU = detected.CPU
		}
		if in.TotalMemoryGB <= 0 {
			in.TotalMemoryGB = detected.MemoryGB
		}
	}
	return s.RegisterHost(in)
}

// Heartbeat marks a host ONLINE and refreshes its liveness timestamp.
func (s *Service) Heartbeat(hostID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hosts.Heartbeat(hostID)
}

// ListHosts returns snapshots of every registered host.
func (s *Service) ListHosts() []*model.Host {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hosts.List()
}
