package dojo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamStream = "data: {\"type\":\"RUN_STARTED\"}\n\n" +
	"data: {\"type\":\"TEXT_MESSAGE_CONTENT\",\"delta\":\"hi\"}\n\n" +
	"data: {\"type\":\"RUN_FINISHED\"}\n\n"

type upstreamCall struct {
	accept string
	body   map[string]json.RawMessage
}

func newUpstream(t *testing.T, status int, calls *[]upstreamCall) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := upstreamCall{accept: r.Header.Get("Accept")}
		_ = json.NewDecoder(r.Body).Decode(&call.body)
		*calls = append(*calls, call)

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, upstreamStream)
	}))
	t.Cleanup(server.Close)
	return server
}

func postChat(t *testing.T, p *Proxy, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, p.HandleChat(e.NewContext(req, rec)))
	return rec
}

func TestProxyStreamsUpstream(t *testing.T) {
	var calls []upstreamCall
	upstream := newUpstream(t, http.StatusOK, &calls)

	rec := postChat(t, NewProxy(upstream.URL, nil), `{"messages":[{"role":"user","content":"hi"}],"extra":true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	assert.Equal(t, upstreamStream, rec.Body.String())

	require.Len(t, calls, 1)
	assert.Equal(t, "text/event-stream", calls[0].accept)
	assert.Len(t, calls[0].body, 1)
	assert.JSONEq(t, `[{"role":"user","content":"hi"}]`, string(calls[0].body["messages"]))
}

func TestProxyPayloadEndpointWins(t *testing.T) {
	var defaultCalls, payloadCalls []upstreamCall
	defaultUpstream := newUpstream(t, http.StatusOK, &defaultCalls)
	payloadUpstream := newUpstream(t, http.StatusOK, &payloadCalls)

	body := fmt.Sprintf(`{"endpoint":%q,"messages":"not a list"}`, payloadUpstream.URL)
	rec := postChat(t, NewProxy(defaultUpstream.URL, nil), body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, defaultCalls)
	require.Len(t, payloadCalls, 1)
	assert.JSONEq(t, `[]`, string(payloadCalls[0].body["messages"]))
}

func TestProxyPropagatesUpstreamStatus(t *testing.T) {
	var calls []upstreamCall
	upstream := newUpstream(t, http.StatusServiceUnavailable, &calls)

	rec := postChat(t, NewProxy(upstream.URL, nil), ``)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Upstream failed with 503 Service Unavailable"}`, rec.Body.String())
}

func TestProxyUpstreamUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	rec := postChat(t, NewProxy(url, nil), `{"messages":[]}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestProxyInvalidJSON(t *testing.T) {
	rec := postChat(t, NewProxy("http://127.0.0.1:1/", nil), `{`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
