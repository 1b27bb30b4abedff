// Package agui implements the text-message subset of the AG-UI protocol over
// HTTP and server-sent events: an echo endpoint that serves an agent, and a
// chat client that talks to such an endpoint.
package agui

import (
	"encoding/json"
	"time"

	"github.com/xiaot623/gogo/agui/internal/domain"
)

// EventType is the type of an AG-UI event.
type EventType string

const (
	EventRunStarted         EventType = "RUN_STARTED"
	EventRunFinished        EventType = "RUN_FINISHED"
	EventRunError           EventType = "RUN_ERROR"
	EventTextMessageStart   EventType = "TEXT_MESSAGE_START"
	EventTextMessageContent EventType = "TEXT_MESSAGE_CONTENT"
	EventTextMessageEnd     EventType = "TEXT_MESSAGE_END"
)

// Event is an AG-UI event. Only the fields of its Type are set.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp,omitempty"`

	// RUN_*
	ThreadID string `json:"threadId,omitempty"`
	RunID    string `json:"runId,omitempty"`

	// TEXT_MESSAGE_*
	MessageID string `json:"messageId,omitempty"`
	Role      string `json:"role,omitempty"`
	Delta     string `json:"delta,omitempty"`

	// RUN_ERROR
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Message is a message of RunAgentInput.
type Message struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RunAgentInput is the request body of an AG-UI run.
type RunAgentInput struct {
	ThreadID       string            `json:"threadId"`
	RunID          string            `json:"runId"`
	Messages       []Message         `json:"messages"`
	State          json.RawMessage   `json:"state,omitempty"`
	Tools          []json.RawMessage `json:"tools,omitempty"`
	Context        []json.RawMessage `json:"context,omitempty"`
	ForwardedProps json.RawMessage   `json:"forwardedProps,omitempty"`
}

// DomainMessages converts the input messages.
func (in *RunAgentInput) DomainMessages() []domain.Message {
	out := make([]domain.Message, 0, len(in.Messages))
	for _, m := range in.Messages {
		out = append(out, domain.Message{ID: m.ID, Role: domain.Role(m.Role), Content: m.Content})
	}
	return out
}

// ErrorResponse is the JSON body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

func now() int64 {
	return time.Now().UnixMilli()
}
