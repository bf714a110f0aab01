package history

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"chatloop/app/util/clock"
	"chatloop/app/util/ident"

	"github.com/samber/do"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is an append-only, in-memory conversation log.
type Store struct {
	ids   ident.Generator
	clock clock.Clock

	mu       sync.RWMutex
	messages []Message
}

func NewStore(ids ident.Generator, clk clock.Clock) *Store {
	return &Store{
		ids:   ids,
		clock: clk,
	}
}

func New(di *do.Injector) (*Store, error) {
	return NewStore(
		do.MustInvoke[ident.Generator](di),
		do.MustInvoke[clock.Clock](di),
	), nil
}

func (s *Store) Append(role Role, text string) Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := Message{
		ID:        s.ids.NewID(),
		Role:      role,
		Text:      text,
		CreatedAt: s.clock.Now(),
	}
	s.messages = append(s.messages, msg)

	return msg
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.messages = nil
}

// Snapshot returns a copy of the log in insertion order.
func (s *Store) Snapshot() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)

	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.messages)
}

// Format renders the log as plain text, one message per line.
func Format(messages []Message, withTimestamps bool) string {
	if len(messages) == 0 {
		return "No messages yet"
	}

	var builder strings.Builder

	for _, msg := range messages {
		if withTimestamps {
			builder.WriteString(fmt.Sprintf("%s - %s: %s\n", msg.CreatedAt.Format("15:04:05"), msg.Role, msg.Text))
		} else {
			builder.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Text))
		}
	}

	return builder.String()
}
