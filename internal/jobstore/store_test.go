package jobstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aprscheduler/apr-scheduler/internal/model"
	"github.com/aprscheduler/apr-scheduler/internal/schederr"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func validInput() SubmitInput {
	return SubmitInput{
		Command:  "place_and_route --design top",
		Resource: model.ResourceRequest{CPU: 2, MemoryGB: 4, Slots: 1},
	}
}

func TestSubmit_Validation(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))

	cases := []SubmitInput{
		{Command: "", Resource: model.ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 1}},
		{Command: "x", Resource: model.ResourceRequest{CPU: 0, MemoryGB: 1, Slots: 1}},
		{Command: "x", Resource: model.ResourceRequest{CPU: 1, MemoryGB: 0, Slots: 1}},
		{Command: "x", Resource: model.ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 0}},
	}
	for _, in := range cases {
		_, err := s.Submit(in)
		require.True(t, schederr.IsKind(err, schederr.KindValidation))
	}
}

func TestSubmit_Defaults(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	job, err := s.Submit(validInput())
	require.NoError(t, err)

	assert.Equal(t, "default", job.Project)
	assert.Equal(t, "unknown", job.Owner)
	assert.Equal(t, 1, job.Priority)
	assert.Equal(t, ".", job.Workdir)
	assert.Equal(t, model.StatusQueued, job.Status)
	assert.Len(t, job.Events, 1)
	assert.Equal(t, model.EventSubmitted, job.Events[0].Type)
}

func TestSubmitBatch_StopsOnFirstFailure(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	ok := validInput()
	bad := SubmitInput{Command: ""}

	jobs, err := s.SubmitBatch([]SubmitInput{ok, bad, ok})
	require.Error(t, err)
	assert.Len(t, jobs, 1, "only the job submitted before the failure is returned")
}

func TestList_Filters(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	_, err := s.Submit(SubmitInput{Command: "a", Owner: "alice", Project: "p1", Resource: model.ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 1}})
	require.NoError(t, err)
	_, err = s.Submit(SubmitInput{Command: "b", Owner: "bob", Project: "p2", Resource: model.ResourceRequest{CPU: 1, MemoryGB: 1, Slots: 1}})
	require.NoError(t, err)

	all := s.List(ListFilter{})
	assert.Len(t, all, 2)

	byOwner := s.List(ListFilter{Owner: "alice"})
	require.Len(t, byOwner, 1)
	assert.Equal(t, "alice", byOwner[0].Owner)

	byProject := s.List(ListFilter{Project: "p2"})
	require.Len(t, byProject, 1)
	assert.Equal(t, "bob", byProject[0].Owner)
}

func TestList_NewestFirst(t *testing.T) {
	current := time.Unix(0, 0)
	clock := func() time.Time { return current }
	s := New(clock)

	first, err := s.Submit(validInput())
	require.NoError(t, err)
	current = current.Add(time.Second)
	second, err := s.Submit(validInput())
	require.NoError(t, err)

	jobs := s.List(ListFilter{})
	require.Len(t, jobs, 2)
	assert.Equal(t, second.ID, jobs[0].ID)
	assert.Equal(t, first.ID, jobs[1].ID)
}

func TestGet_NotFound(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	_, err := s.Get("job_ghost")
	assert.True(t, schederr.IsKind(err, schederr.KindNotFound))
}

func TestAppendEvent_BroadcastsToWatchers(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	job, err := s.Submit(validInput())
	require.NoError(t, err)

	ch, cancel := s.Watch()
	defer cancel()

	live, err := s.GetLive(job.ID)
	require.NoError(t, err)
	s.AppendEvent(live, model.EventRunning, "started", model.DefaultOperator)

	select {
	case ev := <-ch:
		assert.Equal(t, model.EventRunning, ev.Type)
		assert.Equal(t, job.ID, ev.JobID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast event")
	}
}

func TestWatch_CancelStopsDelivery(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	job, err := s.Submit(validInput())
	require.NoError(t, err)

	ch, cancel := s.Watch()
	cancel()

	live, err := s.GetLive(job.ID)
	require.NoError(t, err)
	s.AppendEvent(live, model.EventRunning, "started", model.DefaultOperator)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after cancel")
}

func TestLogs_UnknownJob(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	_, err := s.Logs("job_ghost", 10)
	assert.True(t, schederr.IsKind(err, schederr.KindNotFound))
}

func TestLogs_MissingFileReturnsEmpty(t *testing.T) {
	s := New(fixedClock(time.Unix(0, 0)))
	job, err := s.Submit(validInput())
	require.NoError(t, err)

	lines, err := s.Logs(job.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLogs_TailsLastNLines(t *testing.T) {
	dir := t.TempDir()
	s := New(fixedClock(time.Unix(0, 0)))
	job, err := s.Submit(validInput())
	require.NoError(t, err)

	live, err := s.GetLive(job.ID)
	require.NoError(t, err)
	logPath := filepath.Join(dir, job.ID+".log")
	live.LogPath = logPath

	content := "line1\nline2\nline3\nline4\nline5\n"
	require.NoError(t, os.WriteFile(logPath, []byte(content), 0o644))

	lines, err := s.Logs(job.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"line4", "line5"}, lines)
}
