package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/credential"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

// AzureClient talks to an Azure OpenAI deployment through the chat
// completions API, authenticating with Entra ID bearer tokens.
type AzureClient struct {
	client     *openai.Client
	deployment string
	logger     *zap.Logger
}

// AzureOptions configures an AzureClient.
type AzureOptions struct {
	// Endpoint is the normalized resource endpoint, e.g. https://x.openai.azure.com.
	Endpoint   string
	Deployment string
	APIVersion string
	Tokens     credential.Provider
	Logger     *zap.Logger
}

// NewAzureClient creates a new Azure OpenAI chat client.
func NewAzureClient(opts AzureOptions) *AzureClient {
	deployment := opts.Deployment

	// The token is set per request by credential.Transport.
	cfg := openai.DefaultAzureConfig("", opts.Endpoint)
	cfg.APIType = openai.APITypeAzureAD
	if opts.APIVersion != "" {
		cfg.APIVersion = opts.APIVersion
	}
	cfg.AzureModelMapperFunc = func(string) string { return deployment }
	cfg.HTTPClient = credential.NewHTTPClient(opts.Tokens)

	return &AzureClient{
		client:     openai.NewClientWithConfig(cfg),
		deployment: deployment,
		logger:     logging.OrNop(opts.Logger),
	}
}

// Deployment returns the deployment every request is routed to.
func (c *AzureClient) Deployment() string {
	return c.deployment
}

// Complete sends a non-streaming chat completion request.
func (c *AzureClient) Complete(ctx context.Context, req *agent.ChatRequest) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.deployment,
		Messages: toOpenAIMessages(req),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}

	c.logger.Debug("chat completion done",
		zap.String("deployment", c.deployment),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// Stream sends a streaming chat completion request and calls fn for every
// content delta.
func (c *AzureClient) Stream(ctx context.Context, req *agent.ChatRequest, fn agent.DeltaFunc) error {
	stream, err := c.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    c.deployment,
		Messages: toOpenAIMessages(req),
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("chat completion stream failed: %w", err)
	}
	defer stream.Close()

	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("chat completion stream failed: %w", err)
		}

		// Azure sends prompt filter results in chunks without choices.
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := fn(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
}
