package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(messagesAppended.WithLabelValues("user"))
	MessageAppended("user")
	assert.Equal(t, before+1, testutil.ToFloat64(messagesAppended.WithLabelValues("user")))

	before = testutil.ToFloat64(repliesCancelled)
	ReplyCancelled()
	assert.Equal(t, before+1, testutil.ToFloat64(repliesCancelled))

	before = testutil.ToFloat64(settingChanges.WithLabelValues("tone", "false"))
	SettingChanged("tone", false)
	assert.Equal(t, before+1, testutil.ToFloat64(settingChanges.WithLabelValues("tone", "false")))

	before = testutil.ToFloat64(submissions.WithLabelValues("busy"))
	Submission("busy")
	assert.Equal(t, before+1, testutil.ToFloat64(submissions.WithLabelValues("busy")))

	ReplyScheduled(900*time.Millisecond, true)
}

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "chat_replies_cancelled_total")
}
