package feed

import (
	"testing"
	"time"

	"chatloop/app/service/composer"
	"chatloop/app/service/delay"
	"chatloop/app/service/history"
	"chatloop/app/service/session"
	"chatloop/app/service/settings"
	"chatloop/app/util/clock"
	"chatloop/app/util/ident"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T) (*session.Service, *clock.Manual) {
	t.Helper()

	settingsSvc, err := settings.NewService(settings.DefaultCatalog)
	require.NoError(t, err)

	clk := clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	return session.NewService(
		settingsSvc,
		history.NewStore(ident.NewSequence("msg"), clk),
		delay.NewScheduler(clk),
		composer.Compose,
	), clk
}

func drain(f *Feed) []session.Snapshot {
	var out []session.Snapshot
	for {
		select {
		case s, ok := <-f.Channel():
			if !ok {
				return out
			}
			out = append(out, s)
		default:
			return out
		}
	}
}

func TestFeedPrimedWithCurrentState(t *testing.T) {
	svc, _ := newSession(t)

	f := New(svc)
	defer f.Close()

	got := drain(f)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(0), got[0].Version)
	assert.Equal(t, "Ready", got[0].Status.Text)
}

func TestFeedFollowsSession(t *testing.T) {
	svc, clk := newSession(t)

	f := New(svc)
	defer f.Close()
	drain(f)

	require.True(t, svc.Submit("Hello"))
	clk.Advance(time.Second)

	got := drain(f)
	require.Len(t, got, 2)
	assert.True(t, got[0].Status.Sending)
	assert.Len(t, got[1].Messages, 2)
	assert.Less(t, got[0].Version, got[1].Version)
}

func TestFeedDropsOldestWhenFull(t *testing.T) {
	svc, _ := newSession(t)

	f := New(svc)
	defer f.Close()

	for i := 0; i < bufferSize+10; i++ {
		svc.SetShowTimestamps(i%2 == 0)
	}

	got := drain(f)
	require.Len(t, got, bufferSize)
	assert.Equal(t, svc.Snapshot().Version, got[len(got)-1].Version)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Version, got[i].Version)
	}
}

func TestFeedClose(t *testing.T) {
	svc, _ := newSession(t)

	f := New(svc)
	f.Close()
	f.Close()

	svc.Clear()

	got := drain(f)
	require.Len(t, got, 1)

	_, ok := <-f.Channel()
	assert.False(t, ok)
}
