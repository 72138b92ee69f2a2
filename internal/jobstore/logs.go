package jobstore

import (
	"bufio"
	"os"

	"github.com/aprscheduler/apr-scheduler/internal/schederr"
)

// Logs returns the last max(tail, 1) lines of a job's log file. A missing
// log path or missing file yields an empty slice, never an error — only an
// unknown job id is an error.
func (s *Store) Logs(id string, tail int) ([]string, error) {
	j, ok := s.jobs[id]
	if !ok {
		return nil, schederr.NotFound("job %q not found", id)
	}
	if tail < 1 {
		tail = 1
	}
	if j.LogPath == "" {
		return nil, nil
	}

	f, err := os.Open(j.LogPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, schederr.Internal(err, "open log file for job %q", id)
	}
	defer f.Close()

	ring := make([]string, tail)
	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[n%tail] = scanner.Text()
		n++
	}
	if scanErr := scanner.Err(); scanErr != nil {
		return nil, schederr.Internal(scanErr, "scan log file for job %q", id)
	}

	if n == 0 {
		return []string{}, nil
	}
	count := n
	if count > tail {
		count = tail
	}
	out := make([]string, count)
	start := n - count
	for i := 0; i < count; i++ {
		out[i] = ring[(start+i)%tail]
	}
	return out, nil
}
