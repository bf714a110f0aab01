package session

import (
	"errors"

	"chatloop/app/service/history"
	"chatloop/app/service/settings"
)

const readyText = "Ready"

var (
	ErrUnknownSetting      = errors.New("unknown setting")
	ErrInvalidSettingValue = errors.New("invalid setting value")
)

type SettingKind string

const (
	SettingModel          SettingKind = "model"
	SettingTone           SettingKind = "tone"
	SettingShowTimestamps SettingKind = "show_timestamps"
	SettingSimulateDelay  SettingKind = "simulate_delay"
)

type Status struct {
	Text    string `json:"text"`
	Accent  bool   `json:"accent"`
	Sending bool   `json:"sending"`
}

// Snapshot is a read-only copy of everything a renderer needs.
// Version grows with every state change, so stale snapshots can be dropped.
type Snapshot struct {
	Version  uint64            `json:"version"`
	Messages []history.Message `json:"messages"`
	Settings settings.Values   `json:"settings"`
	Status   Status            `json:"status"`
}

func readyStatus() Status {
	return Status{Text: readyText}
}
