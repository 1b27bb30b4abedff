package agent

import (
	"sync"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/agui/internal/domain"
)

// Session holds the history of one conversation.
type Session struct {
	id string

	mu       sync.Mutex
	messages []domain.Message
}

// NewSession returns an empty session with a fresh id.
func NewSession() *Session {
	return &Session{id: uuid.New().String()}
}

// ID returns the session id, used as the AG-UI thread id.
func (s *Session) ID() string {
	return s.id
}

// Messages returns a copy of the history.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len returns the number of messages in the history.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func (s *Session) append(messages ...domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages...)
}
