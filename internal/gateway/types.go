package gateway

import (
	"errors"
	"time"
)

// Gateway errors
var (
	ErrUnconfigured    = errors.New("tool gateway not configured")
	ErrToolNotFound    = errors.New("tool not found")
	ErrInvalidArgument = errors.New("invalid tool arguments")
)

// Transport modes
const (
	TransportHTTP = "http"
	TransportSSE  = "sse"
)

// ToolDescriptor describes one remotely registered tool, obtained from
// discovery
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolActionRecord is the materialized outcome of one tool invocation. A
// failed remote invocation is reported through the Error field, not as a
// returned error. Records are never mutated after creation.
type ToolActionRecord struct {
	ID         string         `json:"id"`
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	InvokedAt  time.Time      `json:"invoked_at"`
}

// Wire shapes shared by both transports
type listToolsResponse struct {
	Tools []ToolDescriptor `json:"tools"`
}

type describeToolResponse struct {
	Tool *ToolDescriptor `json:"tool"`
}

type invokeToolRequest struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type invokeToolResponse struct {
	ToolName string         `json:"tool_name"`
	Output   map[string]any `json:"output"`
}
