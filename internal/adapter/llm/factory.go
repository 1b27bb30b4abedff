package llm

import (
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/config"
	"github.com/xiaot623/gogo/agui/internal/credential"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

// NewChatClient creates the agent chat client for cfg. With AGUI_MODE=MOCK it
// returns a MockClient and tokens is not used.
func NewChatClient(cfg *config.ServerConfig, tokens credential.Provider, logger *zap.Logger) agent.ChatClient {
	logger = logging.OrNop(logger)

	if cfg.IsMock() {
		logger.Info("AGUI_MODE=MOCK detected, using mock chat client")
		return NewMockClient()
	}

	return NewAzureClient(AzureOptions{
		Endpoint:   cfg.Endpoint,
		Deployment: cfg.DeploymentName,
		APIVersion: cfg.APIVersion,
		Tokens:     tokens,
		Logger:     logger,
	})
}
