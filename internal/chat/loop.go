// Package chat implements the interactive terminal chat loop of the AG-UI client.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

// Terminal strings written by the loop.
const (
	Prompt        = "\nUser (:q or quit to exit): "
	EmptyNotice   = "Request cannot be empty.\n"
	AssistantHead = "\nAssistant: "
	ExitNotice    = "\n\nExiting...\n"

	fragmentFormat = "\033[96m%s\033[0m"
	errorFormat    = "\n\033[91mAn error occurred: %v\033[0m\n"
)

// Agent is the part of *agent.Agent the loop drives.
type Agent interface {
	NewSession() *agent.Session
	RunStream(ctx context.Context, prompt string, fn agent.UpdateFunc, opts ...agent.RunOption) error
}

// Loop reads chat turns from in and streams the agent replies to out.
type Loop struct {
	agent  Agent
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the loop logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// NewLoop creates a chat loop over a.
func NewLoop(a Agent, in io.Reader, out io.Writer, opts ...Option) *Loop {
	l := &Loop{
		agent: a,
		in:    in,
		out:   out,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.OrNop(l.logger)
	return l
}

// IsQuit reports whether input is exactly :q or quit, in any letter case.
func IsQuit(input string) bool {
	switch strings.ToLower(input) {
	case ":q", "quit":
		return true
	}
	return false
}

type line struct {
	text string
	err  error
}

// Run drives the loop until the user quits, input ends or ctx is cancelled.
// Errors of a single turn are printed and the loop continues; only write
// failures on out are returned.
func (l *Loop) Run(ctx context.Context) error {
	session := l.agent.NewSession()
	lines := l.readLines(ctx)

	for {
		if _, err := io.WriteString(l.out, Prompt); err != nil {
			return err
		}

		var input line
		select {
		case <-ctx.Done():
			return l.exit()
		case input = <-lines:
		}
		if input.err != nil {
			if input.err != io.EOF {
				l.logger.Warn("failed to read input", zap.Error(input.err))
			}
			return l.exit()
		}

		if strings.TrimSpace(input.text) == "" {
			if _, err := io.WriteString(l.out, EmptyNotice); err != nil {
				return err
			}
			continue
		}
		if IsQuit(input.text) {
			return nil
		}

		if err := l.turn(ctx, session, input.text); err != nil {
			if ctx.Err() != nil {
				return l.exit()
			}
			l.logger.Debug("turn failed", zap.String("session_id", session.ID()), zap.Error(err))
			if _, werr := fmt.Fprintf(l.out, errorFormat, err); werr != nil {
				return werr
			}
		}
	}
}

func (l *Loop) turn(ctx context.Context, session *agent.Session, prompt string) error {
	if _, err := io.WriteString(l.out, AssistantHead); err != nil {
		return err
	}

	err := l.agent.RunStream(ctx, prompt, func(u agent.Update) error {
		if u.Text == "" {
			return nil
		}
		_, err := fmt.Fprintf(l.out, fragmentFormat, u.Text)
		return err
	}, agent.WithSession(session))
	if err != nil {
		return err
	}

	_, err = io.WriteString(l.out, "\n\n")
	return err
}

func (l *Loop) exit() error {
	_, err := io.WriteString(l.out, ExitNotice)
	return err
}

// readLines feeds input lines to the loop so that a pending read never blocks
// cancellation.
func (l *Loop) readLines(ctx context.Context) <-chan line {
	lines := make(chan line)
	go func() {
		reader := bufio.NewReader(l.in)
		for {
			text, err := reader.ReadString('\n')
			var next line
			switch {
			case err == nil, err == io.EOF && text != "":
				next = line{text: strings.TrimRight(text, "\r\n")}
			default:
				next = line{err: err}
			}

			select {
			case lines <- next:
			case <-ctx.Done():
				return
			}
			if next.err != nil {
				return
			}
		}
	}()
	return lines
}
