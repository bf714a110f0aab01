package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		messagesAppended,
		submissions,
		repliesCancelled,
		replyDelayMs,
		settingChanges,
	)
}

var (
	messagesAppended = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_appended_total",
			Help: "Messages appended to the conversation log per role.",
		},
		[]string{"role"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_submissions_total",
			Help: "Submit intents by outcome (accepted, empty, busy).",
		},
		[]string{"outcome"},
	)

	repliesCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_replies_cancelled_total",
			Help: "Pending replies dropped by a clear.",
		},
	)

	replyDelayMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_reply_delay_ms",
			Help:    "Simulated reply delay in milliseconds.",
			Buckets: []float64{0, 500, 700, 900, 1100, 1300, 1400},
		},
		[]string{"simulated"},
	)

	settingChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_setting_changes_total",
			Help: "Setting change intents by kind and success.",
		},
		[]string{"kind", "success"},
	)
)

func MessageAppended(role string) {
	messagesAppended.WithLabelValues(role).Inc()
}

func Submission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

func ReplyCancelled() {
	repliesCancelled.Inc()
}

func ReplyScheduled(d time.Duration, simulated bool) {
	replyDelayMs.WithLabelValues(strconv.FormatBool(simulated)).Observe(float64(d.Milliseconds()))
}

func SettingChanged(kind string, success bool) {
	settingChanges.WithLabelValues(kind, strconv.FormatBool(success)).Inc()
}
