// Package hostregistry holds the in-memory table of execution hosts.
// Registry is a plain data container: every method assumes the caller
// already holds whatever lock protects the scheduler's shared state (see
// internal/scheduler.Service, which is the single lock owner). Registry
// itself is not safe for unsynchronized concurrent use.
package hostregistry

import (
	"time"

	"github.com/aprscheduler/apr-scheduler/internal/model"
	"github.com/aprscheduler/apr-scheduler/internal/schederr"
)

// RegisterInput is the validated payload for registering or re-registering
// a host.
type RegisterInput struct {
	HostID         string
	TotalSlots     int
	TotalCPU       int
	TotalMemoryGB  int
	Labels         map[string]string
	ExecutorPrefix string
}

// Registry is the in-memory host table.
type Registry struct {
	hosts map[string]*model.Host
	now   func() time.Time
}

// New creates an empty host registry.
func New(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{hosts: make(map[string]*model.Host), now: now}
}

// Register validates and stores a host. Re-registering an existing host_id
// overwrites {totals, labels, executor_prefix} and forces status=ONLINE,
// but preserves used_* counters and the running-jobs list: the source this
// behavior is modeled on treats re-registration as "the same fleet member
// came back", not a fresh machine. See DESIGN.md for the tradeoff this
// implies if host_ids are reused after a crash.
func (r *Registry) Register(in RegisterInput) (*model.Host, error) {
	if in.HostID == "" {
		return nil, schederr.Validation("host_id is required")
	}
	if in.TotalSlots <= 0 {
		return nil, schederr.Validation("total_slots must be > 0")
	}
	totalCPU := in.TotalCPU
	if totalCPU <= 0 {
		totalCPU = in.TotalSlots
	}
	totalMem := in.TotalMemoryGB
	if totalMem <= 0 {
		totalMem = maxInt(2, 2*in.TotalSlots)
	}

	labels := make(map[string]string, len(in.Labels))
	for k, v := range in.Labels {
		labels[k] = v
	}

	existing, ok := r.hosts[in.HostID]
	if !ok {
		existing = &model.Host{ID: in.HostID}
		r.hosts[in.HostID] = existing
	}
	existing.TotalSlots = in.TotalSlots
	existing.TotalCPU = totalCPU
	existing.TotalMemoryGB = totalMem
	existing.Labels = labels
	existing.ExecutorPrefix = in.ExecutorPrefix
	existing.Status = model.HostOnline
	existing.LastHeartbeat = r.now()

	return existing.Clone(), nil
}

// Heartbeat marks a host ONLINE and refreshes its last-heartbeat timestamp.
func (r *Registry) Heartbeat(hostID string) error {
	h, ok := r.hosts[hostID]
	if !ok {
		return schederr.NotFound("host %q not found", hostID)
	}
	h.Status = model.HostOnline
	h.LastHeartbeat = r.now()
	return nil
}

// List returns snapshots of every registered host.
func (r *Registry) List() []*model.Host {
	out := make([]*model.Host, 0, len(r.hosts))
	for _, h := range r.hosts {
		out = append(out, h.Clone())
	}
	return out
}

// Get returns the live (non-cloned) host entry for internal mutation by the
// scheduler, or a not-found error.
func (r *Registry) Get(hostID string) (*model.Host, error) {
	h, ok := r.hosts[hostID]
	if !ok {
		return nil, schederr.NotFound("host %q not found", hostID)
	}
	return h, nil
}

// SweepStale ages any host whose heartbeat is older than timeout to
// OFFLINE. Offline hosts stop passing Fit but their running jobs are left
// alone — the core makes no failover guarantee.
func (r *Registry) SweepStale(timeout time.Duration) {
	now := r.now()
	for _, h := range r.hosts {
		if h.Status == model.HostOnline && now.Sub(h.LastHeartbeat) > timeout {
			h.Status = model.HostOffline
		}
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
