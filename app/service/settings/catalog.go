package settings

import (
	"github.com/elliotchance/pie/v2"
)

type Model struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var DefaultCatalog = []Model{
	{
		ID:          "nova-3",
		Label:       "Nova 3",
		Description: "Fast general-purpose assistant",
	},
	{
		ID:          "aurora-mini",
		Label:       "Aurora Mini",
		Description: "Lightweight model for short answers",
	},
	{
		ID:          "atlas-pro",
		Label:       "Atlas Pro",
		Description: "Thorough model for long-form explanations",
	},
}

type Tone string

const (
	ToneBalanced Tone = "Balanced"
	ToneConcise  Tone = "Concise"
	ToneDetailed Tone = "Detailed"
	TonePlayful  Tone = "Playful"
)

var Tones = []Tone{ToneBalanced, ToneConcise, ToneDetailed, TonePlayful}

func (t Tone) Valid() bool {
	return pie.Contains(Tones, t)
}

func ParseTone(s string) (Tone, error) {
	tone := Tone(s)
	if !tone.Valid() {
		return "", invalidTone(s)
	}

	return tone, nil
}

func findModel(catalog []Model, id string) (Model, bool) {
	index := pie.FindFirstUsing(catalog, func(m Model) bool {
		return m.ID == id
	})
	if index < 0 {
		return Model{}, false
	}

	return catalog[index], true
}
