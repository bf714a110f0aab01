package delay

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"chatloop/app/util/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   time.Duration
	}{
		{"empty", "", 500 * time.Millisecond},
		{"hundred chars", strings.Repeat("a", 100), 900 * time.Millisecond},
		{"capped", strings.Repeat("a", 300), 1400 * time.Millisecond},
		{"exactly at cap", strings.Repeat("a", 225), 1400 * time.Millisecond},
		{"counts runes not bytes", strings.Repeat("é", 10), 540 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Duration(tt.prompt))
		})
	}
}

func TestScheduleFiresOnce(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewScheduler(clk)

	var calls atomic.Int32
	s.Schedule(900*time.Millisecond, func() { calls.Add(1) })
	assert.Equal(t, StatePending, s.State())

	clk.Advance(899 * time.Millisecond)
	assert.Zero(t, calls.Load())

	clk.Advance(time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateIdle, s.State())

	clk.Advance(time.Hour)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancel(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewScheduler(clk)

	assert.False(t, s.Cancel(), "cancel while idle is a no-op")

	called := false
	s.Schedule(time.Second, func() { called = true })

	require.True(t, s.Cancel())
	assert.Equal(t, StateIdle, s.State())
	assert.False(t, s.Cancel())

	clk.Advance(2 * time.Second)
	assert.False(t, called)
}

func TestScheduleReplacesPending(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewScheduler(clk)

	var fired []string
	s.Schedule(time.Second, func() { fired = append(fired, "first") })
	s.Schedule(2*time.Second, func() { fired = append(fired, "second") })

	clk.Advance(3 * time.Second)

	assert.Equal(t, []string{"second"}, fired)
	assert.Zero(t, clk.Pending())
}

// A timer whose Stop loses the race still must not run a cancelled callback.
type leakyClock struct {
	fire func()
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func (c *leakyClock) Now() time.Time { return time.Unix(0, 0) }

func (c *leakyClock) AfterFunc(_ time.Duration, fn func()) clock.Timer {
	c.fire = fn
	return noopTimer{}
}

func TestCancelWinsOverAlreadyFiredTimer(t *testing.T) {
	clk := &leakyClock{}
	s := NewScheduler(clk)

	called := false
	s.Schedule(time.Second, func() { called = true })
	s.Cancel()

	clk.fire()

	assert.False(t, called)
	assert.Equal(t, StateIdle, s.State())
}

func TestSlotIsReusable(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	s := NewScheduler(clk)

	var calls int
	s.Schedule(time.Second, func() { calls++ })
	s.Cancel()
	s.Schedule(time.Second, func() { calls++ })
	clk.Advance(time.Second)
	s.Schedule(time.Second, func() { calls++ })
	clk.Advance(time.Second)

	assert.Equal(t, 2, calls)
}

func TestRunImmediately(t *testing.T) {
	s := NewScheduler(clock.NewManual(time.Unix(0, 0)))

	called := false
	s.RunImmediately(func() { called = true })

	assert.True(t, called)
	assert.Equal(t, StateIdle, s.State())
}

func TestScheduleWithRealClock(t *testing.T) {
	s := NewScheduler(clock.Real{})

	done := make(chan struct{})
	s.Schedule(5*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("callback did not fire")
	}

	assert.Eventually(t, func() bool {
		return s.State() == StateIdle
	}, time.Second, time.Millisecond)
}
