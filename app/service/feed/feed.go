package feed

import (
	"log/slog"
	"sync"

	"chatloop/app/service/session"
)

const bufferSize = 64

// Feed buffers session snapshots for a single slow consumer. Snapshots
// arrive in version order; when the buffer is full the oldest one is
// dropped so the consumer always ends up with the latest state.
type Feed struct {
	mu          sync.Mutex
	queue       chan session.Snapshot
	closed      bool
	primed      bool
	lastVersion uint64
	unsubscribe func()
}

// New subscribes to sessionSvc and primes the feed with the current snapshot.
func New(sessionSvc *session.Service) *Feed {
	f := &Feed{
		queue: make(chan session.Snapshot, bufferSize),
	}

	f.unsubscribe = sessionSvc.Subscribe(f.add)
	f.add(sessionSvc.Snapshot())

	return f
}

func (f *Feed) add(snapshot session.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	if f.primed && snapshot.Version <= f.lastVersion {
		return
	}
	f.primed = true
	f.lastVersion = snapshot.Version

	for {
		select {
		case f.queue <- snapshot:
			return
		default:
		}

		select {
		case dropped := <-f.queue:
			slog.Warn("Snapshot feed is full, dropping oldest", "version", dropped.Version)
		default:
		}
	}
}

func (f *Feed) Channel() <-chan session.Snapshot {
	return f.queue
}

// Close detaches the feed from the session and closes the channel.
// Safe to call more than once.
func (f *Feed) Close() {
	f.unsubscribe()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}
	f.closed = true
	close(f.queue)
}
