// Package llm provides the chat backends the server agent runs on.
package llm

import (
	"github.com/sashabaranov/go-openai"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/domain"
)

// Ensure the clients implement agent.ChatClient.
var (
	_ agent.ChatClient = (*AzureClient)(nil)
	_ agent.ChatClient = (*MockClient)(nil)
)

// toOpenAIMessages converts a request into chat messages, leading with the
// instructions as a system message.
func toOpenAIMessages(req *agent.ChatRequest) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.Instructions != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.Instructions,
		})
	}
	for _, msg := range req.Messages {
		role := msg.Role
		if role == "" {
			role = domain.RoleUser
		}
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(role),
			Content: msg.Content,
		})
	}
	return out
}
