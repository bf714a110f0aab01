package settings

import (
	"errors"

	"github.com/samber/oops"
)

var (
	ErrInvalidModelID = errors.New("invalid model id")
	ErrInvalidTone    = errors.New("invalid tone")
	ErrEmptyCatalog   = errors.New("model catalog is empty")
)

func invalidModel(id string) error {
	return oops.
		In("settings").
		Code("invalid_model_id").
		With("model_id", id).
		Wrapf(ErrInvalidModelID, "model %q is not in the catalog", id)
}

func invalidTone(tone string) error {
	return oops.
		In("settings").
		Code("invalid_tone").
		With("tone", tone).
		Wrapf(ErrInvalidTone, "tone %q is not supported", tone)
}
