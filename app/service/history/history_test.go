package history

import (
	"testing"
	"time"

	"chatloop/app/util/clock"
	"chatloop/app/util/ident"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestStore() (*Store, *clock.Manual) {
	clk := clock.NewManual(epoch)
	return NewStore(ident.NewSequence("msg"), clk), clk
}

func TestAppend(t *testing.T) {
	store, clk := newTestStore()

	first := store.Append(RoleUser, "hi")
	clk.Advance(time.Second)
	second := store.Append(RoleAssistant, "hello")

	assert.Equal(t, Message{ID: "msg-1", Role: RoleUser, Text: "hi", CreatedAt: epoch}, first)
	assert.Equal(t, "msg-2", second.ID)
	assert.Equal(t, epoch.Add(time.Second), second.CreatedAt)
	assert.Equal(t, []Message{first, second}, store.Snapshot())
	assert.Equal(t, 2, store.Len())
}

func TestAppendAcceptsEmptyText(t *testing.T) {
	store, _ := newTestStore()

	msg := store.Append(RoleUser, "")
	assert.Empty(t, msg.Text)
	assert.Equal(t, 1, store.Len())
}

func TestSnapshotIsReadOnlyView(t *testing.T) {
	store, _ := newTestStore()
	store.Append(RoleUser, "first")

	snapshot := store.Snapshot()
	snapshot[0].Text = "tampered"

	require.Equal(t, 1, store.Len())
	assert.Equal(t, "first", store.Snapshot()[0].Text)
}

func TestClear(t *testing.T) {
	store, _ := newTestStore()

	store.Clear()
	assert.Zero(t, store.Len())

	store.Append(RoleUser, "a")
	store.Append(RoleAssistant, "b")
	store.Clear()

	assert.Zero(t, store.Len())
	assert.Empty(t, store.Snapshot())

	next := store.Append(RoleUser, "c")
	assert.Equal(t, "msg-3", next.ID, "ids are never reused after clear")
}

func TestFormat(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Text: "ping", CreatedAt: epoch},
		{Role: RoleAssistant, Text: "pong", CreatedAt: epoch.Add(time.Minute)},
	}

	assert.Equal(t, "09:30:00 - user: ping\n09:31:00 - assistant: pong\n", Format(messages, true))
	assert.Equal(t, "user: ping\nassistant: pong\n", Format(messages, false))
	assert.Equal(t, "No messages yet", Format(nil, true))
}
