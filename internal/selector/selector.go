// Package selector implements the scheduler's host-fit and host-pick
// logic. It is pure decision logic over snapshots the caller already
// holds under its own lock; it has no state and no concurrency concerns
// of its own.
package selector

import (
	"sort"

	"github.com/aprscheduler/apr-scheduler/internal/model"
)

// PickHost filters hosts by fit against req and returns the least-loaded
// candidate: hosts are ordered by (used_slots asc, used_cpu asc, host_id
// asc) and the first is chosen, giving deterministic, repeatable
// scheduling decisions. Returns nil if no host fits.
func PickHost(hosts []*model.Host, req model.ResourceRequest) *model.Host {
	candidates := make([]*model.Host, 0, len(hosts))
	for _, h := range hosts {
		if req.Fit(h) {
			candidates = append(candidates, h)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.Slice(candidates, func(i, k int) bool {
		a, b := candidates[i], candidates[k]
		if a.UsedSlots != b.UsedSlots {
			return a.UsedSlots < b.UsedSlots
		}
		if a.UsedCPU != b.UsedCPU {
			return a.UsedCPU < b.UsedCPU
		}
		return a.ID < b.ID
	})
	return candidates[0]
}
