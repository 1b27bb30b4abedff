package dojo

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/agui"
	"github.com/xiaot623/gogo/agui/internal/config"
	"github.com/xiaot623/gogo/agui/internal/logging"
	transporthttp "github.com/xiaot623/gogo/agui/internal/transport/http"
)

// AgentName is the name of the relay-side agent.
const AgentName = "DojoAgent"

// NewServer creates the relay application for cfg.
func NewServer(cfg *config.DojoConfig, logger *zap.Logger) *echo.Echo {
	logger = logging.OrNop(logger)

	client := agui.NewClient(cfg.Endpoint, agui.WithLogger(logger))
	relayAgent := agent.New(client, agent.WithName(AgentName), agent.WithLogger(logger))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(transporthttp.RequestLogger(logger))
	e.Use(middleware.Recover())

	// Routes
	proxy := NewProxy(cfg.Endpoint, logger)
	bridge := NewBridge(relayAgent, logger)
	e.POST("/api/chat", proxy.HandleChat)
	e.GET("/ws", bridge.HandleWebSocket)

	if cfg.StaticDir != "" {
		e.Static("/", cfg.StaticDir)
	}

	return e
}
