package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   JobStatus
		terminal bool
	}{
		{StatusCreated, false},
		{StatusQueued, false},
		{StatusDispatched, false},
		{StatusRunning, false},
		{StatusPaused, false},
		{StatusRetrying, false},
		{StatusSuccess, true},
		{StatusFailed, true},
		{StatusCancelled, true},
		{StatusTimeout, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestResourceRequest_Fit(t *testing.T) {
	host := &Host{
		ID:            "h1",
		TotalSlots:    4,
		TotalCPU:      8,
		TotalMemoryGB: 16,
		Labels:        map[string]string{"tool": "innovus", "site": "us-east"},
		Status:        HostOnline,
	}

	tests := []struct {
		name string
		req  ResourceRequest
		fit  bool
	}{
		{"fits comfortably", ResourceRequest{CPU: 2, MemoryGB: 4, Slots: 1}, true},
		{"exact capacity", ResourceRequest{CPU: 8, MemoryGB: 16, Slots: 4}, true},
		{"too many slots", ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 5}, false},
		{"too much cpu", ResourceRequest{CPU: 9, MemoryGB: 1, Slots: 1}, false},
		{"too much memory", ResourceRequest{CPU: 1, MemoryGB: 17, Slots: 1}, false},
		{"label match", ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 1, HostLabels: map[string]string{"tool": "innovus"}}, true},
		{"label mismatch", ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 1, HostLabels: map[string]string{"tool": "icc2"}}, false},
		{"label missing on host", ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 1, HostLabels: map[string]string{"gpu": "true"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fit, tt.req.Fit(host))
		})
	}

	t.Run("offline host never fits", func(t *testing.T) {
		offline := host.Clone()
		offline.Status = HostOffline
		assert.False(t, ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 1}.Fit(offline))
	})
}

func TestHost_AllocateRelease(t *testing.T) {
	h := &Host{ID: "h1", TotalSlots: 4, TotalCPU: 8, TotalMemoryGB: 16, Status: HostOnline}
	req := ResourceRequest{CPU: 2, MemoryGB: 4, Slots: 1}

	h.Allocate("job_a", req)
	require.Equal(t, 1, h.UsedSlots)
	require.Equal(t, 2, h.UsedCPU)
	require.Equal(t, 4, h.UsedMemoryGB)
	require.Equal(t, []string{"job_a"}, h.RunningJobIDs)

	h.Release("job_a", req)
	assert.Zero(t, h.UsedSlots)
	assert.Zero(t, h.UsedCPU)
	assert.Zero(t, h.UsedMemoryGB)
	assert.Empty(t, h.RunningJobIDs)

	t.Run("duplicate release is a no-op, not negative", func(t *testing.T) {
		h.Release("job_a", req)
		assert.Zero(t, h.UsedSlots)
		assert.Zero(t, h.UsedCPU)
		assert.Zero(t, h.UsedMemoryGB)
	})
}

func TestHost_Clone_IsIndependent(t *testing.T) {
	h := &Host{ID: "h1", Labels: map[string]string{"a": "b"}, RunningJobIDs: []string{"job_a"}}
	c := h.Clone()
	c.Labels["a"] = "mutated"
	c.RunningJobIDs[0] = "mutated"

	assert.Equal(t, "b", h.Labels["a"])
	assert.Equal(t, "job_a", h.RunningJobIDs[0])
}

func TestJob_Clone_IsIndependent(t *testing.T) {
	code := 0
	parent := "job_parent"
	j := &Job{
		ID:          "job_a",
		Env:         map[string]string{"K": "V"},
		ExitCode:    &code,
		ParentJobID: &parent,
		Events:      []Event{{ID: "evt_a"}},
	}
	c := j.Clone()
	c.Env["K"] = "mutated"
	*c.ExitCode = 99
	*c.ParentJobID = "mutated"
	c.Events[0].ID = "mutated"

	assert.Equal(t, "V", j.Env["K"])
	assert.Equal(t, 0, *j.ExitCode)
	assert.Equal(t, "job_parent", *j.ParentJobID)
	assert.Equal(t, "evt_a", j.Events[0].ID)
}

func TestNewID_Format(t *testing.T) {
	jobID := NewJobID()
	assert.Regexp(t, `^job_[0-9a-f]{10}$`, jobID)

	evtID := NewEventID()
	assert.Regexp(t, `^evt_[0-9a-f]{10}$`, evtID)

	assert.NotEqual(t, NewJobID(), NewJobID(), "ids should not collide across calls")
}
