package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/gogo/agui/internal/agent"
	"github.com/xiaot623/gogo/agui/internal/config"
	"github.com/xiaot623/gogo/agui/internal/credential"
	"github.com/xiaot623/gogo/agui/internal/domain"
)

type capturedRequest struct {
	path       string
	apiVersion string
	auth       string
	body       map[string]interface{}
}

func newAzureTestServer(t *testing.T, captured *capturedRequest, respond func(w http.ResponseWriter)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.apiVersion = r.URL.Query().Get("api-version")
		captured.auth = r.Header.Get("Authorization")
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(data, &captured.body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		respond(w)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestAzureClient(url string) *AzureClient {
	return NewAzureClient(AzureOptions{
		Endpoint:   url,
		Deployment: "gpt-4o-dev",
		APIVersion: "2024-10-21",
		Tokens:     credential.Static("cli-token"),
	})
}

func TestAzureClientComplete(t *testing.T) {
	var captured capturedRequest
	server := newAzureTestServer(t, &captured, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o","choices":[{"index":0,"message":{"role":"assistant","content":"Paris"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`))
	})

	client := newTestAzureClient(server.URL)
	text, err := client.Complete(context.Background(), &agent.ChatRequest{
		Instructions: "be brief",
		Messages:     []domain.Message{domain.NewUserMessage("capital of France?")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Paris", text)

	assert.Equal(t, "/openai/deployments/gpt-4o-dev/chat/completions", captured.path)
	assert.Equal(t, "2024-10-21", captured.apiVersion)
	assert.Equal(t, "Bearer cli-token", captured.auth)

	messages, ok := captured.body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "be brief", first["content"])
}

func TestAzureClientCompleteError(t *testing.T) {
	var captured capturedRequest
	server := newAzureTestServer(t, &captured, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"code":"401","message":"token expired"}}`))
	})

	_, err := newTestAzureClient(server.URL).Complete(context.Background(), &agent.ChatRequest{
		Messages: []domain.Message{domain.NewUserMessage("hi")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token expired")
}

func TestAzureClientStream(t *testing.T) {
	var captured capturedRequest
	server := newAzureTestServer(t, &captured, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: {\"id\":\"\",\"object\":\"\",\"created\":0,\"model\":\"\",\"choices\":[],\"prompt_filter_results\":[]}\n\n"))
		w.Write([]byte("data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o\",\"choices\":[{\"index\":0,\"delta\":{\"role\":\"assistant\",\"content\":\"\"}}]}\n\n"))
		w.Write([]byte("data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Hel\"}}]}\n\n"))
		w.Write([]byte("data: {\"id\":\"c1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n"))
		w.Write([]byte("data: [DONE]\n\n"))
	})

	var deltas []string
	err := newTestAzureClient(server.URL).Stream(context.Background(), &agent.ChatRequest{
		Messages: []domain.Message{domain.NewUserMessage("hi")},
	}, func(delta string) error {
		deltas = append(deltas, delta)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
	assert.Equal(t, true, captured.body["stream"])
	assert.Equal(t, "Bearer cli-token", captured.auth)
}

func TestMockClient(t *testing.T) {
	m := NewMockClient()
	req := &agent.ChatRequest{Messages: []domain.Message{domain.NewUserMessage("hello")}}

	text, err := m.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `[MOCK] Received your message: "hello". This is a mock response.`, text)

	var joined string
	var chunks int
	err = m.Stream(context.Background(), req, func(delta string) error {
		assert.LessOrEqual(t, len(delta), mockChunkSize)
		joined += delta
		chunks++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, text, joined)
	assert.Greater(t, chunks, 1)
}

func TestMockClientKeepsRunesWhole(t *testing.T) {
	m := NewMockClient()
	req := &agent.ChatRequest{Messages: []domain.Message{domain.NewUserMessage("héllo wörld ünïcode ñ 日本語")}}

	var joined string
	err := m.Stream(context.Background(), req, func(delta string) error {
		assert.True(t, utf8.ValidString(delta), delta)
		assert.LessOrEqual(t, len(delta), mockChunkSize)
		joined += delta
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, `[MOCK] Received your message: "héllo wörld ünïcode ñ 日本語". This is a mock response.`, joined)
}

func TestMockClientTruncatesByRunes(t *testing.T) {
	long := strings.Repeat("é", 120)
	text, err := NewMockClient().Complete(context.Background(), &agent.ChatRequest{
		Messages: []domain.Message{domain.NewUserMessage(long)},
	})
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, strings.Repeat("é", 100)+`..."`)
	assert.NotContains(t, text, strings.Repeat("é", 101))
}

func TestSplitIntoChunks(t *testing.T) {
	assert.Nil(t, splitIntoChunks("", 10))
	assert.Equal(t, []string{"abcd", "ef"}, splitIntoChunks("abcdef", 4))
	assert.Equal(t, []string{"aé", "é"}, splitIntoChunks("aéé", 4))
	assert.Equal(t, []string{"日", "本"}, splitIntoChunks("日本", 2))
}

func TestMockClientCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewMockClient().Stream(ctx, &agent.ChatRequest{}, func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewChatClient(t *testing.T) {
	cfg := &config.ServerConfig{Endpoint: "https://x.example.com", DeploymentName: "d", Mode: "MOCK"}
	_, isMock := NewChatClient(cfg, nil, nil).(*MockClient)
	assert.True(t, isMock)

	cfg.Mode = ""
	azure, ok := NewChatClient(cfg, credential.Static("t"), nil).(*AzureClient)
	require.True(t, ok)
	assert.Equal(t, "d", azure.Deployment())
}
