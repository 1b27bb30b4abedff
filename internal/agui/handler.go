package agui

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/domain"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

// Runner streams an agent reply over a caller-supplied history.
// *agent.Agent implements it.
type Runner interface {
	StreamMessages(ctx context.Context, threadID string, messages []domain.Message, fn agent.UpdateFunc) (string, error)
}

// Endpoint serves AG-UI runs for one agent.
type Endpoint struct {
	runner Runner
	logger *zap.Logger
}

// NewEndpoint creates a new AG-UI endpoint handler.
func NewEndpoint(runner Runner, logger *zap.Logger) *Endpoint {
	return &Endpoint{
		runner: runner,
		logger: logging.OrNop(logger),
	}
}

// RegisterEndpoint mounts runner at POST path.
func RegisterEndpoint(e *echo.Echo, path string, runner Runner, logger *zap.Logger) *echo.Route {
	return e.POST(path, NewEndpoint(runner, logger).Handle)
}

// Handle runs the agent over the posted RunAgentInput and streams the reply
// as AG-UI events.
func (h *Endpoint) Handle(c echo.Context) error {
	var input RunAgentInput
	if err := json.NewDecoder(c.Request().Body).Decode(&input); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if len(input.Messages) == 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "messages is required"})
	}

	if input.ThreadID == "" {
		input.ThreadID = uuid.New().String()
	}
	if input.RunID == "" {
		input.RunID = uuid.New().String()
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")

	flusher, _ := res.Writer.(http.Flusher)
	res.WriteHeader(http.StatusOK)
	out := &eventWriter{w: res, flusher: flusher}

	log := h.logger.With(zap.String("thread_id", input.ThreadID), zap.String("run_id", input.RunID))
	log.Info("run started", zap.Int("messages", len(input.Messages)))

	if err := out.write(Event{Type: EventRunStarted, ThreadID: input.ThreadID, RunID: input.RunID}); err != nil {
		log.Warn("failed to write event", zap.Error(err))
		return nil
	}

	messageID := uuid.New().String()
	started := false

	_, err := h.runner.StreamMessages(c.Request().Context(), input.ThreadID, input.DomainMessages(), func(u agent.Update) error {
		if !started {
			started = true
			if err := out.write(Event{Type: EventTextMessageStart, MessageID: messageID, Role: string(domain.RoleAssistant)}); err != nil {
				return err
			}
		}
		return out.write(Event{Type: EventTextMessageContent, MessageID: messageID, Delta: u.Text})
	})
	if err != nil {
		log.Error("run failed", zap.Error(err))
		if writeErr := out.write(Event{Type: EventRunError, Message: err.Error()}); writeErr != nil {
			log.Warn("failed to write event", zap.Error(writeErr))
		}
		return nil
	}

	if started {
		if err := out.write(Event{Type: EventTextMessageEnd, MessageID: messageID}); err != nil {
			log.Warn("failed to write event", zap.Error(err))
			return nil
		}
	}
	if err := out.write(Event{Type: EventRunFinished, ThreadID: input.ThreadID, RunID: input.RunID}); err != nil {
		log.Warn("failed to write event", zap.Error(err))
		return nil
	}

	log.Info("run finished")
	return nil
}
