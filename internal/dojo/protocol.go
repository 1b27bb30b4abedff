// Package dojo implements the browser-facing relay in front of an AG-UI
// endpoint: an SSE pass-through proxy and a WebSocket bridge.
package dojo

import "time"

// Frame types from browser to relay
const (
	TypeHello       = "hello"
	TypeAgentInvoke = "agent_invoke"
)

// Frame types from relay to browser
const (
	TypeHelloAck = "hello_ack"
	TypeDelta    = "delta"
	TypeDone     = "done"
	TypeError    = "error"
)

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeAgentFailed     = "agent_failed"
)

// BaseMessage contains common fields for all frames.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	RequestID string `json:"request_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage opens a session.
type HelloMessage struct {
	BaseMessage
	ClientMeta map[string]string `json:"client_meta,omitempty"`
}

// HelloAckMessage confirms the session.
type HelloAckMessage struct {
	BaseMessage
}

// AgentInvokeMessage asks for one agent turn.
type AgentInvokeMessage struct {
	BaseMessage
	Message InputMessage `json:"message"`
}

// InputMessage is a chat message in a frame.
type InputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// DeltaMessage carries one reply fragment.
type DeltaMessage struct {
	BaseMessage
	Text string `json:"text"`
}

// DoneMessage ends a turn with the full reply.
type DoneMessage struct {
	BaseMessage
	FinalMessage InputMessage `json:"final_message"`
}

// ErrorMessage reports a failed frame or turn.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

func base(typ, sessionID, requestID string) BaseMessage {
	return BaseMessage{
		Type:      typ,
		Ts:        time.Now().UnixMilli(),
		RequestID: requestID,
		SessionID: sessionID,
	}
}
