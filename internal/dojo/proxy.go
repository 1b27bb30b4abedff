package dojo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xiaot623/gogo/agui/internal/logging"
)

// Proxy forwards browser chat requests to an AG-UI endpoint and streams the
// event stream back unchanged.
type Proxy struct {
	http     *resty.Client
	endpoint string
	logger   *zap.Logger
}

// NewProxy creates a proxy whose default upstream is endpoint.
func NewProxy(endpoint string, logger *zap.Logger) *Proxy {
	return &Proxy{
		http:     resty.New(),
		endpoint: endpoint,
		logger:   logging.OrNop(logger),
	}
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Endpoint string          `json:"endpoint,omitempty"`
	Messages json.RawMessage `json:"messages,omitempty"`
}

type upstreamRequest struct {
	Messages json.RawMessage `json:"messages"`
}

// HandleChat handles POST /api/chat.
func (p *Proxy) HandleChat(c echo.Context) error {
	raw, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	var req ChatRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = p.endpoint
	}
	messages := req.Messages
	if trimmed := bytes.TrimSpace(messages); len(trimmed) == 0 || trimmed[0] != '[' {
		messages = json.RawMessage("[]")
	}

	resp, err := p.http.R().
		SetContext(c.Request().Context()).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "text/event-stream").
		SetBody(upstreamRequest{Messages: messages}).
		SetDoNotParseResponse(true).
		Post(endpoint)
	if err != nil {
		p.logger.Warn("upstream request failed", zap.String("endpoint", endpoint), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		status := resp.StatusCode()
		if status == 0 {
			status = http.StatusBadGateway
		}
		p.logger.Warn("upstream rejected request", zap.String("endpoint", endpoint), zap.Int("status", status))
		return c.JSON(status, map[string]string{"error": fmt.Sprintf("Upstream failed with %s", resp.Status())})
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream; charset=utf-8")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := copyFlush(res, body); err != nil {
		p.logger.Warn("stream relay interrupted", zap.String("endpoint", endpoint), zap.Error(err))
	}
	return nil
}

// copyFlush copies src to the response, flushing after every read.
func copyFlush(res *echo.Response, src io.Reader) error {
	buf := make([]byte, 4096)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := res.Write(buf[:n]); werr != nil {
				return werr
			}
			res.Flush()
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
