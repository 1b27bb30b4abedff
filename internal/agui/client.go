package agui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

var (
	// ErrRunFailed is returned when the server reports RUN_ERROR.
	ErrRunFailed = errors.New("agent run failed")
	// ErrIncompleteRun is returned when the stream closes before RUN_FINISHED
	// or RUN_ERROR.
	ErrIncompleteRun = errors.New("unexpected end of run stream")
)

// Ensure Client implements agent.ChatClient.
var _ agent.ChatClient = (*Client)(nil)

// EventHandler is called for each AG-UI event from the server.
type EventHandler func(Event) error

// Client is an AG-UI chat client.
type Client struct {
	http     *resty.Client
	endpoint string
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = resty.NewWithClient(hc) }
}

// WithLogger sets the client logger.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a new client for the AG-UI endpoint URL.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		http:     resty.New(),
		endpoint: endpoint,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// Run posts input and calls handler for every event up to RUN_FINISHED or
// RUN_ERROR. A stream that ends before either yields ErrIncompleteRun.
func (c *Client) Run(ctx context.Context, input *RunAgentInput, handler EventHandler) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetBody(input).
		SetDoNotParseResponse(true).
		Post(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to reach agent: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		data, _ := io.ReadAll(body)
		return fmt.Errorf("agent returned status %d: %s", resp.StatusCode(), strings.TrimSpace(string(data)))
	}

	c.logger.Debug("run stream opened", zap.String("thread_id", input.ThreadID), zap.String("run_id", input.RunID))

	dec := NewDecoder(body)
	for {
		evt, err := dec.Decode()
		if err == io.EOF {
			c.logger.Warn("run stream closed early", zap.String("run_id", input.RunID))
			return ErrIncompleteRun
		}
		if err != nil {
			return err
		}
		if err := handler(evt); err != nil {
			return err
		}
		if evt.Type == EventRunFinished || evt.Type == EventRunError {
			return nil
		}
	}
}

// Stream sends the request history and calls fn for every text delta.
func (c *Client) Stream(ctx context.Context, req *agent.ChatRequest, fn agent.DeltaFunc) error {
	input := c.newInput(req)

	return c.Run(ctx, input, func(evt Event) error {
		switch evt.Type {
		case EventTextMessageContent:
			return fn(evt.Delta)
		case EventRunError:
			return fmt.Errorf("%w: %s", ErrRunFailed, evt.Message)
		}
		return nil
	})
}

// Complete sends the request history and returns the whole reply.
func (c *Client) Complete(ctx context.Context, req *agent.ChatRequest) (string, error) {
	var sb strings.Builder
	err := c.Stream(ctx, req, func(delta string) error {
		sb.WriteString(delta)
		return nil
	})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}

// newInput builds the run input. Instructions stay on this side; the server
// agent applies its own.
func (c *Client) newInput(req *agent.ChatRequest) *RunAgentInput {
	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.New().String()
	}

	input := &RunAgentInput{
		ThreadID: threadID,
		RunID:    uuid.New().String(),
		Messages: make([]Message, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		id := m.ID
		if id == "" {
			id = uuid.New().String()
		}
		input.Messages = append(input.Messages, Message{ID: id, Role: string(m.Role), Content: m.Content})
	}
	return input
}
