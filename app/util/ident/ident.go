package ident

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

type Generator interface {
	NewID() string
}

var (
	_ Generator = UUID{}
	_ Generator = (*Sequence)(nil)
)

type UUID struct{}

func (UUID) NewID() string {
	return uuid.NewString()
}

// Sequence hands out "<prefix>-1", "<prefix>-2", ... in call order.
type Sequence struct {
	prefix string
	next   atomic.Uint64
}

func NewSequence(prefix string) *Sequence {
	return &Sequence{prefix: prefix}
}

func (s *Sequence) NewID() string {
	return fmt.Sprintf("%s-%d", s.prefix, s.next.Add(1))
}
