package session

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"chatloop/app/service/composer"
	"chatloop/app/service/delay"
	"chatloop/app/service/history"
	"chatloop/app/service/metrics"
	"chatloop/app/service/settings"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var _ do.Shutdownable = (*Service)(nil)

type Service struct {
	settings  *settings.Service
	store     *history.Store
	scheduler *delay.Scheduler
	compose   composer.Func

	mu      sync.Mutex
	status  Status
	version uint64
	// token of the reply currently owed to the user, zero when none
	pending  uint64
	requests uint64

	listenersMu  sync.Mutex
	listeners    []listener
	nextListener uint64
}

type listener struct {
	id uint64
	fn func(Snapshot)
}

func NewService(
	settingsSvc *settings.Service,
	store *history.Store,
	scheduler *delay.Scheduler,
	compose composer.Func,
) *Service {
	return &Service{
		settings:  settingsSvc,
		store:     store,
		scheduler: scheduler,
		compose:   compose,
		status:    readyStatus(),
	}
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*settings.Service](di),
		do.MustInvoke[*history.Store](di),
		do.MustInvoke[*delay.Scheduler](di),
		composer.Compose,
	), nil
}

// Submit appends a user message and arranges the assistant reply.
// Blank input and submissions while a reply is pending are ignored;
// the result reports whether the text was accepted.
func (s *Service) Submit(raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		metrics.Submission("empty")
		return false
	}

	s.mu.Lock()

	if s.status.Sending {
		s.mu.Unlock()
		metrics.Submission("busy")
		slog.Debug("Submission ignored, reply still pending")
		return false
	}

	s.store.Append(history.RoleUser, text)
	metrics.MessageAppended(string(history.RoleUser))
	metrics.Submission("accepted")

	captured := s.settings.Get()

	s.requests++
	token := s.requests
	s.pending = token

	s.status = Status{
		Text:    "Thinking with " + captured.Model.Label,
		Accent:  true,
		Sending: true,
	}
	s.version++

	if captured.SimulateDelay {
		d := delay.Duration(text)
		metrics.ReplyScheduled(d, true)

		s.scheduler.Schedule(d, func() {
			s.mu.Lock()
			delivered := s.deliverLocked(token, text, captured)
			snapshot := s.snapshotLocked()
			s.mu.Unlock()

			if delivered {
				s.notify(snapshot)
			}
		})

		slog.Info("Reply scheduled",
			"model", captured.Model.ID,
			"tone", captured.Tone,
			"delay", d)
	} else {
		metrics.ReplyScheduled(0, false)

		s.scheduler.RunImmediately(func() {
			s.deliverLocked(token, text, captured)
		})
	}

	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)

	return true
}

// Clear drops the conversation and any reply still owed for it.
func (s *Service) Clear() {
	s.mu.Lock()
	snapshot := s.clearLocked()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Service) SetModel(id string) (settings.Model, error) {
	s.mu.Lock()

	model, err := s.settings.SetModel(id)
	metrics.SettingChanged(string(SettingModel), err == nil)
	if err != nil {
		s.mu.Unlock()
		return settings.Model{}, err
	}

	s.status.Text = fmt.Sprintf("Switched to %s: %s", model.Label, model.Description)
	s.status.Accent = true
	s.version++

	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	slog.Info("Model changed", "model", model.ID)
	s.notify(snapshot)

	return model, nil
}

func (s *Service) SetTone(tone settings.Tone) error {
	return s.changeSetting(SettingTone, func() error {
		return s.settings.SetTone(tone)
	})
}

func (s *Service) SetShowTimestamps(show bool) {
	_ = s.changeSetting(SettingShowTimestamps, func() error {
		s.settings.SetShowTimestamps(show)
		return nil
	})
}

func (s *Service) SetSimulateDelay(simulate bool) {
	_ = s.changeSetting(SettingSimulateDelay, func() error {
		s.settings.SetSimulateDelay(simulate)
		return nil
	})
}

// ChangeSetting applies a setting given in its textual form, as received
// from a renderer.
func (s *Service) ChangeSetting(kind SettingKind, value string) error {
	switch kind {
	case SettingModel:
		_, err := s.SetModel(value)
		return err
	case SettingTone:
		return s.SetTone(settings.Tone(value))
	case SettingShowTimestamps, SettingSimulateDelay:
		flag, err := strconv.ParseBool(value)
		if err != nil {
			metrics.SettingChanged(string(kind), false)
			return oops.
				In("session").
				With("kind", kind, "value", value).
				Wrapf(ErrInvalidSettingValue, "%s expects a boolean", kind)
		}

		if kind == SettingShowTimestamps {
			s.SetShowTimestamps(flag)
		} else {
			s.SetSimulateDelay(flag)
		}

		return nil
	default:
		return oops.
			In("session").
			With("kind", kind).
			Wrapf(ErrUnknownSetting, "setting %q", kind)
	}
}

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked()
}

func (s *Service) Catalog() []settings.Model {
	return s.settings.Catalog()
}

// Subscribe registers fn to receive a snapshot after every state change.
// fn runs outside the session lock and may call back into the service.
func (s *Service) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()

	s.nextListener++
	id := s.nextListener
	s.listeners = append(s.listeners, listener{id: id, fn: fn})

	return func() {
		s.listenersMu.Lock()
		defer s.listenersMu.Unlock()

		s.listeners = pie.Filter(s.listeners, func(l listener) bool {
			return l.id != id
		})
	}
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Cancel()
	s.pending = 0

	return nil
}

func (s *Service) changeSetting(kind SettingKind, apply func() error) error {
	s.mu.Lock()

	err := apply()
	metrics.SettingChanged(string(kind), err == nil)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.version++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	slog.Debug("Setting changed", "kind", kind)
	s.notify(snapshot)

	return nil
}

func (s *Service) clearLocked() Snapshot {
	cancelled := s.scheduler.Cancel()
	if s.pending != 0 {
		// the timer may already have fired with its callback waiting on the lock
		cancelled = true
	}
	if cancelled {
		metrics.ReplyCancelled()
		slog.Info("Pending reply cancelled")
	}

	s.pending = 0
	s.store.Clear()
	s.status = readyStatus()
	s.version++

	return s.snapshotLocked()
}

func (s *Service) deliverLocked(token uint64, prompt string, captured settings.Values) bool {
	if s.pending != token {
		slog.Debug("Dropping reply for a cleared request", "token", token)
		return false
	}

	reply := s.compose(prompt, captured)
	s.store.Append(history.RoleAssistant, reply)
	metrics.MessageAppended(string(history.RoleAssistant))

	s.pending = 0
	s.status = readyStatus()
	s.version++

	slog.Debug("Reply delivered", "token", token, "length", len(reply))

	return true
}

func (s *Service) snapshotLocked() Snapshot {
	return Snapshot{
		Version:  s.version,
		Messages: s.store.Snapshot(),
		Settings: s.settings.Get(),
		Status:   s.status,
	}
}

func (s *Service) notify(snapshot Snapshot) {
	s.listenersMu.Lock()
	listeners := pie.Map(s.listeners, func(l listener) func(Snapshot) {
		return l.fn
	})
	s.listenersMu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
