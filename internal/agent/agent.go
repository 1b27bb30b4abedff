// Package agent provides the Agent abstraction: a named set of instructions
// bound to a ChatClient, run against a prompt either in one shot or as a stream
// of text fragments, optionally inside a Session that carries history.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/domain"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

// ChatRequest is one call to a chat backend.
type ChatRequest struct {
	// ThreadID identifies the conversation; backends may ignore it.
	ThreadID string
	// Instructions is the agent system prompt; backends that own the model
	// prepend it as a system message.
	Instructions string
	Messages     []domain.Message
}

// DeltaFunc receives text fragments in arrival order.
type DeltaFunc func(delta string) error

// ChatClient is a chat backend.
type ChatClient interface {
	// Complete returns the whole reply.
	Complete(ctx context.Context, req *ChatRequest) (string, error)
	// Stream calls fn for every text fragment of the reply.
	Stream(ctx context.Context, req *ChatRequest, fn DeltaFunc) error
}

// Update is one streamed fragment of an agent reply.
type Update struct {
	Text string
}

// UpdateFunc receives streamed updates.
type UpdateFunc func(Update) error

// Response is the result of a non-streaming run.
type Response struct {
	Text string
}

func (r *Response) String() string {
	if r == nil {
		return ""
	}
	return r.Text
}

// Agent binds instructions to a ChatClient.
type Agent struct {
	name         string
	instructions string
	client       ChatClient
	logger       *zap.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithName sets the agent name.
func WithName(name string) Option {
	return func(a *Agent) { a.name = name }
}

// WithInstructions sets the agent system prompt.
func WithInstructions(instructions string) Option {
	return func(a *Agent) { a.instructions = instructions }
}

// WithLogger sets the agent logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// New creates an agent backed by client.
func New(client ChatClient, opts ...Option) *Agent {
	a := &Agent{
		name:   "agent",
		client: client,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrNop(a.logger)
	return a
}

// Name returns the agent name.
func (a *Agent) Name() string { return a.name }

// Instructions returns the agent system prompt.
func (a *Agent) Instructions() string { return a.instructions }

// NewSession starts an empty conversation.
func (a *Agent) NewSession() *Session {
	return NewSession()
}

type runOptions struct {
	session *Session
}

// RunOption configures a single run.
type RunOption func(*runOptions)

// WithSession runs inside s: its history is sent with the prompt and the
// exchange is appended to it when the run succeeds.
func WithSession(s *Session) RunOption {
	return func(o *runOptions) { o.session = s }
}

func (a *Agent) request(prompt string, opts []RunOption) (*ChatRequest, *Session) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	req := &ChatRequest{Instructions: a.instructions}
	if ro.session != nil {
		req.ThreadID = ro.session.ID()
		req.Messages = ro.session.Messages()
	}
	req.Messages = append(req.Messages, domain.NewUserMessage(prompt))
	return req, ro.session
}

// Run sends prompt and waits for the whole reply.
func (a *Agent) Run(ctx context.Context, prompt string, opts ...RunOption) (*Response, error) {
	req, session := a.request(prompt, opts)
	start := time.Now()

	text, err := a.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("agent %s: run failed: %w", a.name, err)
	}

	if session != nil {
		session.append(domain.NewUserMessage(prompt), domain.NewAssistantMessage(text))
	}

	a.logger.Debug("agent run completed",
		zap.String("agent", a.name),
		zap.String("thread_id", req.ThreadID),
		zap.Int("response_len", len(text)),
		zap.Duration("duration", time.Since(start)),
	)
	return &Response{Text: text}, nil
}

// RunStream sends prompt and calls fn for every fragment of the reply.
func (a *Agent) RunStream(ctx context.Context, prompt string, fn UpdateFunc, opts ...RunOption) error {
	req, session := a.request(prompt, opts)

	text, err := a.stream(ctx, req, fn)
	if err != nil {
		return err
	}

	if session != nil {
		session.append(domain.NewUserMessage(prompt), domain.NewAssistantMessage(text))
	}
	return nil
}

// StreamMessages runs the agent over a caller-owned history, as the AG-UI
// endpoint does, and returns the full reply.
func (a *Agent) StreamMessages(ctx context.Context, threadID string, messages []domain.Message, fn UpdateFunc) (string, error) {
	req := &ChatRequest{
		ThreadID:     threadID,
		Instructions: a.instructions,
		Messages:     messages,
	}
	return a.stream(ctx, req, fn)
}

func (a *Agent) stream(ctx context.Context, req *ChatRequest, fn UpdateFunc) (string, error) {
	var sb strings.Builder
	start := time.Now()

	err := a.client.Stream(ctx, req, func(delta string) error {
		if delta == "" {
			return nil
		}
		sb.WriteString(delta)
		return fn(Update{Text: delta})
	})
	if err != nil {
		return "", fmt.Errorf("agent %s: stream failed: %w", a.name, err)
	}

	a.logger.Debug("agent stream completed",
		zap.String("agent", a.name),
		zap.String("thread_id", req.ThreadID),
		zap.Int("messages", len(req.Messages)),
		zap.Duration("duration", time.Since(start)),
	)
	return sb.String(), nil
}
