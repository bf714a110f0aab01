package settings

import (
	"log/slog"
	"slices"
	"sync"

	"chatloop/app/config"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// Values is an immutable snapshot of the user-selected behavior switches.
type Values struct {
	Model          Model `json:"model"`
	Tone           Tone  `json:"tone"`
	ShowTimestamps bool  `json:"show_timestamps"`
	SimulateDelay  bool  `json:"simulate_delay"`
}

type Service struct {
	catalog []Model

	mu     sync.RWMutex
	values Values
}

type Option func(*Values)

func WithModel(m Model) Option {
	return func(v *Values) { v.Model = m }
}

func WithTone(t Tone) Option {
	return func(v *Values) { v.Tone = t }
}

func WithShowTimestamps(show bool) Option {
	return func(v *Values) { v.ShowTimestamps = show }
}

func WithSimulateDelay(simulate bool) Option {
	return func(v *Values) { v.SimulateDelay = simulate }
}

// NewService selects the first catalog entry, Balanced tone and both toggles on,
// then applies opts.
func NewService(catalog []Model, opts ...Option) (*Service, error) {
	if len(catalog) == 0 {
		return nil, oops.In("settings").Wrap(ErrEmptyCatalog)
	}

	values := Values{
		Model:          catalog[0],
		Tone:           ToneBalanced,
		ShowTimestamps: true,
		SimulateDelay:  true,
	}
	for _, opt := range opts {
		opt(&values)
	}

	if _, ok := findModel(catalog, values.Model.ID); !ok {
		return nil, invalidModel(values.Model.ID)
	}
	if !values.Tone.Valid() {
		return nil, invalidTone(string(values.Tone))
	}

	return &Service{
		catalog: slices.Clone(catalog),
		values:  values,
	}, nil
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	session := cfg.Session

	catalog := DefaultCatalog
	if len(session.Catalog) > 0 {
		catalog = make([]Model, 0, len(session.Catalog))
		for _, m := range session.Catalog {
			catalog = append(catalog, Model{ID: m.ID, Label: m.Label, Description: m.Description})
		}
	}

	opts := []Option{
		WithTone(Tone(session.Tone)),
		WithShowTimestamps(*session.ShowTimestamps),
		WithSimulateDelay(*session.SimulateDelay),
	}

	if session.Model != "" {
		model, ok := findModel(catalog, session.Model)
		if !ok {
			return nil, invalidModel(session.Model)
		}
		opts = append(opts, WithModel(model))
	}

	svc, err := NewService(catalog, opts...)
	if err != nil {
		return nil, err
	}

	slog.Info("Settings initialized",
		"model", svc.values.Model.ID,
		"tone", svc.values.Tone,
		"catalog_size", len(catalog))

	return svc, nil
}

func (s *Service) Get() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.values
}

func (s *Service) Catalog() []Model {
	return slices.Clone(s.catalog)
}

func (s *Service) Lookup(id string) (Model, bool) {
	return findModel(s.catalog, id)
}

// SetModel selects the catalog entry with the given id and returns it.
func (s *Service) SetModel(id string) (Model, error) {
	model, ok := findModel(s.catalog, id)
	if !ok {
		return Model{}, invalidModel(id)
	}

	s.mu.Lock()
	s.values.Model = model
	s.mu.Unlock()

	return model, nil
}

func (s *Service) SetTone(tone Tone) error {
	if !tone.Valid() {
		return invalidTone(string(tone))
	}

	s.mu.Lock()
	s.values.Tone = tone
	s.mu.Unlock()

	return nil
}

func (s *Service) SetShowTimestamps(show bool) {
	s.mu.Lock()
	s.values.ShowTimestamps = show
	s.mu.Unlock()
}

func (s *Service) SetSimulateDelay(simulate bool) {
	s.mu.Lock()
	s.values.SimulateDelay = simulate
	s.mu.Unlock()
}
