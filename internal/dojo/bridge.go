package dojo

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/domain"
	"github.com/xiaot623/gogo/agui/internal/logging"
)

// Connection limits.
const (
	maxMessageSize = 64 * 1024
	writeTimeout   = 10 * time.Second
	turnTimeout    = 5 * time.Minute
)

// Agent is the part of *agent.Agent the bridge drives.
type Agent interface {
	NewSession() *agent.Session
	RunStream(ctx context.Context, prompt string, fn agent.UpdateFunc, opts ...agent.RunOption) error
}

// Bridge relays WebSocket chat frames to an agent. Every connection gets its
// own session after hello.
type Bridge struct {
	agent    Agent
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewBridge creates a new WebSocket bridge over a.
func NewBridge(a Agent, logger *zap.Logger) *Bridge {
	return &Bridge{
		agent:  a,
		logger: logging.OrNop(logger),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// conn is one browser connection.
type conn struct {
	ws      *websocket.Conn
	session *agent.Session
	mu      sync.Mutex
}

func (c *conn) sessionID() string {
	if c.session == nil {
		return ""
	}
	return c.session.ID()
}

func (c *conn) sendJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteJSON(v)
}

// HandleWebSocket handles GET /ws.
func (b *Bridge) HandleWebSocket(c echo.Context) error {
	ws, err := b.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		b.logger.Warn("failed to upgrade websocket", zap.Error(err))
		return err
	}
	defer ws.Close()

	ws.SetReadLimit(maxMessageSize)
	conn := &conn{ws: ws}

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				b.logger.Warn("websocket error", zap.Error(err))
			}
			return nil
		}
		b.handleMessage(c.Request().Context(), conn, message)
	}
}

// handleMessage dispatches incoming frames.
func (b *Bridge) handleMessage(ctx context.Context, conn *conn, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		b.sendError(conn, "", ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch baseMsg.Type {
	case TypeHello:
		b.handleHello(conn, data)
	case TypeAgentInvoke:
		b.handleAgentInvoke(ctx, conn, data)
	default:
		b.sendError(conn, baseMsg.RequestID, ErrorCodeInvalidMessage, "unknown message type: "+baseMsg.Type)
	}
}

func (b *Bridge) handleHello(conn *conn, data []byte) {
	var msg HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		b.sendError(conn, "", ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	if conn.session == nil {
		conn.session = b.agent.NewSession()
	}

	b.send(conn, HelloAckMessage{BaseMessage: base(TypeHelloAck, conn.sessionID(), msg.RequestID)})
	b.logger.Info("hello handshake completed", zap.String("session_id", conn.sessionID()))
}

// handleAgentInvoke runs one streamed turn. Frames are handled in order, so a
// connection never has two turns in flight.
func (b *Bridge) handleAgentInvoke(ctx context.Context, conn *conn, data []byte) {
	var msg AgentInvokeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		b.sendError(conn, "", ErrorCodeInvalidMessage, "invalid agent_invoke message")
		return
	}
	if conn.session == nil {
		b.sendError(conn, msg.RequestID, ErrorCodeSessionRequired, "must send hello first")
		return
	}
	if strings.TrimSpace(msg.Message.Content) == "" {
		b.sendError(conn, msg.RequestID, ErrorCodeInvalidMessage, "message content is required")
		return
	}

	requestID := msg.RequestID
	if requestID == "" {
		requestID = "req_" + uuid.New().String()[:8]
	}

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()

	var sb strings.Builder
	err := b.agent.RunStream(ctx, msg.Message.Content, func(u agent.Update) error {
		sb.WriteString(u.Text)
		return conn.sendJSON(DeltaMessage{
			BaseMessage: base(TypeDelta, conn.sessionID(), requestID),
			Text:        u.Text,
		})
	}, agent.WithSession(conn.session))
	if err != nil {
		b.logger.Warn("agent turn failed", zap.String("session_id", conn.sessionID()), zap.Error(err))
		b.sendError(conn, requestID, ErrorCodeAgentFailed, err.Error())
		return
	}

	b.send(conn, DoneMessage{
		BaseMessage:  base(TypeDone, conn.sessionID(), requestID),
		FinalMessage: InputMessage{Role: string(domain.RoleAssistant), Content: sb.String()},
	})
}

// send writes a frame. A failed write means the peer is gone; the read loop
// ends the connection.
func (b *Bridge) send(conn *conn, v any) {
	if err := conn.sendJSON(v); err != nil {
		b.logger.Debug("failed to send frame", zap.String("session_id", conn.sessionID()), zap.Error(err))
	}
}

func (b *Bridge) sendError(conn *conn, requestID, code, message string) {
	b.send(conn, ErrorMessage{
		BaseMessage: base(TypeError, conn.sessionID(), requestID),
		Code:        code,
		Message:     message,
	})
}
