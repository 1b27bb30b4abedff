// Package bootstrap runs the server startup sequence: configuration checks,
// a raw connectivity smoke test, an operator approval gate, an agent-level
// smoke test, and finally assembly of the HTTP application.
//
// No step is retried. Errors from the two smoke tests are returned unchanged so
// the caller aborts before any listener starts.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/adapter/llm"
	"github.com/xiaot623/gogo/agui/internal/adapter/responses"
	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/config"
	"github.com/xiaot623/gogo/agui/internal/credential"
	"github.com/xiaot623/gogo/agui/internal/logging"
	transporthttp "github.com/xiaot623/gogo/agui/internal/transport/http"
)

// ErrDeclined is returned when the operator does not approve the startup.
var ErrDeclined = errors.New("startup declined by operator")

var errNoOutput = errors.New("responses api returned no output items")

// Operator prompts and their defaults.
const (
	ClientPromptQuestion  = "Enter a prompt to test Azure OpenAI client (or press Enter to use default): "
	DefaultClientPrompt   = "What is the capital of France?"
	ContinueQuestion      = "Do you wish to continue loading the server? (y/n): "
	AgentPromptQuestion   = "Enter a prompt to test the agent (or press Enter to use default): "
	DefaultAgentPrompt    = "What is Microsoft Agent Framework?"
	declinedNotice        = "Thanks! Catch you later.\n"
	agentStageNotice      = "Great! Now let's test a prompt using the agent chat client and then start the server...\n"
	chatClientReadyNotice = "Successfully created Azure OpenAI chat client.\n"
)

// Server agent identity.
const (
	AgentName         = "foundry-agui-server-agent"
	AgentInstructions = "You are a friendly digital assistant. Keep your answers brief and professional. " +
		"Only answer from what you know and have studied. If you don't know the answer, say you don't know. " +
		"Always be concise and to the point."
)

// SmokeClient issues the raw connectivity check.
type SmokeClient interface {
	Create(ctx context.Context, req *responses.Request) (*responses.Response, error)
}

// Deps are the capabilities the startup sequence needs.
type Deps struct {
	LoadConfig func() (*config.ServerConfig, error)
	Prompter   Prompter
	Out        io.Writer

	// DefaultCredential backs the smoke test, CLICredential the agent.
	DefaultCredential func() (credential.Provider, error)
	CLICredential     func() (credential.Provider, error)

	NewSmokeClient func(baseURL string, tokens credential.Provider) SmokeClient
	NewChatClient  func(cfg *config.ServerConfig, tokens credential.Provider) agent.ChatClient

	Logger *zap.Logger
}

// DefaultDeps wires the real configuration loader, Azure credential chains and
// API clients.
func DefaultDeps(envFile string, in io.Reader, out io.Writer, logger *zap.Logger) Deps {
	return Deps{
		LoadConfig:        func() (*config.ServerConfig, error) { return config.LoadServerFrom(envFile) },
		Prompter:          NewLinePrompter(in, out),
		Out:               out,
		DefaultCredential: credential.NewDefault,
		CLICredential:     credential.NewCLI,
		NewSmokeClient: func(baseURL string, tokens credential.Provider) SmokeClient {
			return responses.NewClient(baseURL, tokens)
		},
		NewChatClient: func(cfg *config.ServerConfig, tokens credential.Provider) agent.ChatClient {
			return llm.NewChatClient(cfg, tokens, logger)
		},
		Logger: logger,
	}
}

// Result is a server ready to listen.
type Result struct {
	Config *config.ServerConfig
	Agent  *agent.Agent
	App    *echo.Echo
}

// Addr returns the address the application must listen on.
func (r *Result) Addr() string {
	return r.Config.ListenAddr()
}

// Run executes the startup sequence in order and returns the assembled
// application. It never starts the listener.
func Run(ctx context.Context, d Deps) (*Result, error) {
	logger := logging.OrNop(d.Logger)
	out := d.Out

	// Configuration
	cfg, err := d.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.ProjectEndpoint != "" {
		logger.Debug("project endpoint configured", zap.String("endpoint", cfg.ProjectEndpoint))
	}

	fmt.Fprintf(out, "Using Azure OpenAI Endpoint: %s\n", cfg.Endpoint)
	fmt.Fprintf(out, "Using Azure OpenAI Deployment Name: %s\n", cfg.DeploymentName)

	// Raw API smoke test
	fmt.Fprintln(out, "Using Azure OpenAI SDK to generate a response")

	prompt, err := askOrDefault(ctx, d.Prompter, ClientPromptQuestion, DefaultClientPrompt)
	if err != nil {
		return nil, err
	}

	tokens, err := d.DefaultCredential()
	if err != nil {
		return nil, fmt.Errorf("failed to create default credential: %w", err)
	}
	smoke := d.NewSmokeClient(cfg.ResponsesBaseURL(), tokens)

	resp, err := smoke.Create(ctx, &responses.Request{Model: cfg.DeploymentName, Input: prompt})
	if err != nil {
		return nil, err
	}
	first, ok := resp.FirstOutput()
	if !ok {
		return nil, errNoOutput
	}
	fmt.Fprintf(out, "answer: %s\n", first)

	// Approval gate
	proceed, err := d.Prompter.Ask(ctx, ContinueQuestion)
	if err != nil {
		return nil, err
	}
	if strings.ToLower(proceed) != "y" {
		fmt.Fprint(out, declinedNotice)
		return nil, ErrDeclined
	}

	// Agent smoke test
	fmt.Fprint(out, agentStageNotice)

	agentPrompt, err := askOrDefault(ctx, d.Prompter, AgentPromptQuestion, DefaultAgentPrompt)
	if err != nil {
		return nil, err
	}

	cliTokens, err := d.CLICredential()
	if err != nil {
		return nil, fmt.Errorf("failed to create cli credential: %w", err)
	}
	chatClient := d.NewChatClient(cfg, cliTokens)
	if chatClient != nil {
		fmt.Fprint(out, chatClientReadyNotice)
	}

	a := agent.New(chatClient,
		agent.WithName(AgentName),
		agent.WithInstructions(AgentInstructions),
		agent.WithLogger(logger),
	)

	result, err := a.Run(ctx, agentPrompt)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Agent: %s\n", result)

	// HTTP application
	app := transporthttp.NewServer(a, logger)

	logger.Info("startup checks passed", zap.String("agent", a.Name()), zap.String("addr", cfg.ListenAddr()))
	return &Result{Config: cfg, Agent: a, App: app}, nil
}

func askOrDefault(ctx context.Context, p Prompter, question, fallback string) (string, error) {
	answer, err := p.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return fallback, nil
	}
	return answer, nil
}
