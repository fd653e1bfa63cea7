// Package protocol defines the A2A JSON-RPC envelope and webhook event
// shapes exchanged with the chat platform.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	KindText = "text"
	KindData = "data"
)

// Part is one fragment of a chat message: literal text or a nested
// container of further parts.
type Part struct {
	Kind string `json:"kind"`
	Text string `json:"text,omitempty"`
	Data []Part `json:"data,omitempty"`
}

func TextPart(text string) Part { return Part{Kind: KindText, Text: text} }

// Message is a chat message within a task conversation.
type Message struct {
	Role   string `json:"role"`
	Parts  []Part `json:"parts"`
	TaskID string `json:"taskId,omitempty"`
}

// TaskStatus reports the terminal state of a task plus the agent's reply.
type TaskStatus struct {
	State   string   `json:"state"`
	Message *Message `json:"message,omitempty"`
}

// Artifact carries auxiliary task output, e.g. the raw unformatted news text.
type Artifact struct {
	Name  string `json:"name"`
	Parts []Part `json:"parts"`
}

// TaskEnvelope is the outbound task result shape.
type TaskEnvelope struct {
	ID        string     `json:"id"`
	ContextID string     `json:"contextId"`
	Status    TaskStatus `json:"status"`
	Artifacts []Artifact `json:"artifacts"`
	History   []Message  `json:"history"`
}

// Params carries the union of parameter fields across the supported
// JSON-RPC methods. Two historical message shapes must both be accepted:
// a single message object, or a messages array whose last element counts.
type Params struct {
	Message  *Message  `json:"message,omitempty"`
	Messages []Message `json:"messages,omitempty"`
	TaskID   string    `json:"taskId,omitempty"`
	Query    string    `json:"query,omitempty"`
	Country  string    `json:"country,omitempty"`
	Category string    `json:"category,omitempty"`
	Days     int       `json:"days,omitempty"`
	URL      string    `json:"url,omitempty"`
}

// Request is a decoded JSON-RPC request. Strict reports whether the body
// passed full schema decoding or was recovered via the permissive minimal
// parse.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      any    `json:"id"`
	Method  string `json:"method"`
	Params  Params `json:"params"`

	Strict bool `json:"-"`
}

// RPCError is the JSON-RPC error member.
type RPCError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

// Response is a JSON-RPC response envelope.
type Response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id,omitempty"`
	Result  any       `json:"result,omitempty"`
	Error   *RPCError `json:"error,omitempty"`
}

func NewResponse(id any, result any) Response {
	return Response{JSONRPC: "2.0", ID: id, Result: result}
}

func NewErrorResponse(id any, msg string) Response {
	return Response{JSONRPC: "2.0", ID: id, Error: &RPCError{Message: msg}}
}

// DecodeRequest parses a JSON-RPC request body. It attempts a strict decode
// first; on schema mismatch it degrades to a minimal parse carrying only
// id, method and whatever params fields it can salvage. It never returns an
// error: an undecodable body yields an empty non-strict request so the
// dispatcher can still answer with a well-formed envelope.
func DecodeRequest(body []byte) Request {
	var req Request
	if err := json.Unmarshal(body, &req); err == nil && req.Method != "" {
		req.Strict = true
		return req
	}

	var loose struct {
		ID     any             `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(body, &loose); err != nil {
		return Request{JSONRPC: "2.0"}
	}
	req = Request{JSONRPC: "2.0", ID: loose.ID, Method: loose.Method}
	if len(loose.Params) > 0 {
		// Best effort only; unknown or mistyped fields are dropped.
		_ = json.Unmarshal(loose.Params, &req.Params)
	}
	return req
}

// IDString renders the request id as a string, for use as a task id
// fallback. JSON-RPC ids may arrive as strings or numbers.
func (r Request) IDString() string {
	switch v := r.ID.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// UserParts locates the message parts of the request, accepting both the
// single-message and messages-array shapes.
func (r Request) UserParts() []Part {
	if r.Params.Message != nil && len(r.Params.Message.Parts) > 0 {
		return r.Params.Message.Parts
	}
	if n := len(r.Params.Messages); n > 0 {
		return r.Params.Messages[n-1].Parts
	}
	return nil
}

// TaskID resolves the task id from the message object, the params object,
// or the request's own id, in that order.
func (r Request) TaskID() string {
	if r.Params.Message != nil && r.Params.Message.TaskID != "" {
		return r.Params.Message.TaskID
	}
	if r.Params.TaskID != "" {
		return r.Params.TaskID
	}
	return r.IDString()
}

// MessageEvent is the inbound webhook event shape.
type MessageEvent struct {
	EventType   string `json:"event_type"`
	MessageID   string `json:"message_id"`
	ChannelID   string `json:"channel_id,omitempty"`
	ChannelName string `json:"channel_name,omitempty"`
	AuthorID    string `json:"author_id"`
	AuthorName  string `json:"author_name,omitempty"`
	Content     string `json:"content"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// IsMessageCreation reports whether the event type denotes a new chat
// message. The platform has renamed this event across releases.
func (e MessageEvent) IsMessageCreation() bool {
	switch e.EventType {
	case "message.created", "message.posted", "message.new":
		return true
	}
	return false
}
