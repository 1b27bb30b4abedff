package llm

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/domain"
)

// mockChunkSize bounds the byte length of each streamed mock fragment.
const mockChunkSize = 10

// MockClient is a deterministic agent.ChatClient for local runs and tests.
type MockClient struct{}

// NewMockClient creates a new mock chat client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Complete returns the mock reply.
func (m *MockClient) Complete(ctx context.Context, req *agent.ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.generateMockResponse(req), nil
}

// Stream simulates a streaming reply by sending the mock reply in chunks.
func (m *MockClient) Stream(ctx context.Context, req *agent.ChatRequest, fn agent.DeltaFunc) error {
	for _, chunk := range splitIntoChunks(m.generateMockResponse(req), mockChunkSize) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

// generateMockResponse echoes the last user message.
func (m *MockClient) generateMockResponse(req *agent.ChatRequest) string {
	lastUserMessage := domain.LastUserContent(req.Messages)
	if lastUserMessage == "" {
		return "[MOCK] This is a mock response from the chat client."
	}
	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
}

// splitIntoChunks splits s into chunks of at most chunkSize bytes. A rune is
// never split; one wider than chunkSize gets a chunk of its own.
func splitIntoChunks(s string, chunkSize int) []string {
	if len(s) == 0 {
		return nil
	}

	var chunks []string
	start := 0
	for i, r := range s {
		if i > start && i+utf8.RuneLen(r)-start > chunkSize {
			chunks = append(chunks, s[start:i])
			start = i
		}
	}
	return append(chunks, s[start:])
}

// truncate cuts s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
