package delay

import (
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"chatloop/app/util/clock"

	"github.com/samber/do"
)

const (
	baseDelay    = 500 * time.Millisecond
	perCharDelay = 4 * time.Millisecond
	maxDelay     = 1400 * time.Millisecond
)

type State int

const (
	StateIdle State = iota
	StatePending
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	default:
		return "idle"
	}
}

// Duration is the simulated latency for a prompt: 500ms plus 4ms per character,
// capped at 1400ms.
func Duration(prompt string) time.Duration {
	return min(maxDelay, baseDelay+perCharDelay*time.Duration(utf8.RuneCountInString(prompt)))
}

// Scheduler holds at most one pending one-shot callback.
type Scheduler struct {
	clock clock.Clock

	mu    sync.Mutex
	timer clock.Timer
	// bumped on every schedule and cancel; a timer only runs its callback
	// if the generation it was armed with is still current
	generation uint64
}

func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{clock: clk}
}

func New(di *do.Injector) (*Scheduler, error) {
	return NewScheduler(do.MustInvoke[clock.Clock](di)), nil
}

// Schedule arms fn to run after d, cancelling any callback still pending.
func (s *Scheduler) Schedule(d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.stopLocked()
		slog.Debug("Replaced pending callback")
	}

	s.generation++
	armed := s.generation

	s.timer = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.generation != armed {
			s.mu.Unlock()
			return
		}
		s.timer = nil
		s.mu.Unlock()

		fn()
	})
}

// Cancel reports whether a pending callback was cancelled.
func (s *Scheduler) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return false
	}

	s.stopLocked()

	return true
}

// RunImmediately runs fn synchronously without touching the pending slot.
func (s *Scheduler) RunImmediately(fn func()) {
	fn()
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		return StatePending
	}

	return StateIdle
}

func (s *Scheduler) stopLocked() {
	s.timer.Stop()
	s.timer = nil
	s.generation++
}
