package jobstore

import "github.com/aprscheduler/apr-scheduler/internal/model"

// eventBuffer is the per-subscriber channel depth. A slow watcher drops
// events once its buffer fills rather than blocking job processing.
const eventBuffer = 64

// Watch returns a channel that receives every event appended to any job
// from this point on. This is pure in-process fan-out, driven directly by
// Store's own AppendEvent rather than re-polling, since the store already
// holds the authoritative log. It gives an eventual HTTP/streaming
// transport layer (out of scope for this core) a ready-made hook without
// the core needing to know anything about HTTP or websockets.
//
// The returned channel is closed by the returned cancel function; callers
// MUST call it when done watching to avoid leaking the subscription.
func (s *Store) Watch() (<-chan model.Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.subID
	s.subID++
	ch := make(chan model.Event, eventBuffer)
	s.subs[id] = ch

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (s *Store) broadcast(ev model.Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber too slow; drop rather than block the scheduler.
		}
	}
}
