// Package responses is a minimal client for the OpenAI v1 Responses API, used
// to prove connectivity to the model provider before the server starts.
package responses

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/xiaot623/gogo/agui/internal/credential"
)

// Client is a Responses API client.
type Client struct {
	http   *resty.Client
	tokens credential.Provider
}

// NewClient creates a new client for baseURL (for example
// https://x.openai.azure.com/openai/v1/).
func NewClient(baseURL string, tokens credential.Provider) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json"),
		tokens: tokens,
	}
}

// Request is the body of POST /responses.
type Request struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// Response is the subset of a Responses API result that is used here.
type Response struct {
	ID     string       `json:"id"`
	Object string       `json:"object"`
	Model  string       `json:"model"`
	Status string       `json:"status"`
	Output []OutputItem `json:"output"`
	Error  *APIError    `json:"error,omitempty"`
}

// OutputItem is one element of Response.Output.
type OutputItem struct {
	ID      string        `json:"id"`
	Type    string        `json:"type"`
	Role    string        `json:"role,omitempty"`
	Status  string        `json:"status,omitempty"`
	Content []ContentPart `json:"content,omitempty"`
}

// ContentPart is one element of OutputItem.Content.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// APIError is an error returned by the API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps APIError in a non-2xx body.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Text returns the concatenated text parts of the item.
func (o OutputItem) Text() string {
	var sb strings.Builder
	for _, part := range o.Content {
		sb.WriteString(part.Text)
	}
	return sb.String()
}

// String renders the item as type, role and text.
func (o OutputItem) String() string {
	text := o.Text()
	if text == "" {
		return fmt.Sprintf("%s(id=%s)", o.Type, o.ID)
	}
	if o.Role == "" {
		return fmt.Sprintf("%s: %s", o.Type, text)
	}
	return fmt.Sprintf("%s(%s): %s", o.Type, o.Role, text)
}

// FirstOutput returns the first output item, if any.
func (r *Response) FirstOutput() (OutputItem, bool) {
	if r == nil || len(r.Output) == 0 {
		return OutputItem{}, false
	}
	return r.Output[0], true
}

// Create sends one synchronous POST /responses request.
func (c *Client) Create(ctx context.Context, req *Request) (*Response, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	var out Response
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		Post("responses")
	if err != nil {
		return nil, fmt.Errorf("failed to call responses api: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		var errResp ErrorResponse
		if json.Unmarshal(resp.Body(), &errResp) == nil && errResp.Error != nil {
			return nil, fmt.Errorf("responses api returned status %d: %w", resp.StatusCode(), errResp.Error)
		}
		return nil, fmt.Errorf("responses api returned status %d: %s", resp.StatusCode(), resp.String())
	}

	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("failed to decode responses api result: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("responses api error: %w", out.Error)
	}
	return &out, nil
}
