package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 12 * time.Second

// Client speaks the dynamic tool protocol (discovery, describe, invoke)
// against a configured base endpoint. A client with no base URL is a valid,
// permanently unconfigured client: discovery yields nothing and invocation
// fails with ErrUnconfigured.
type Client struct {
	baseURL string
	tr      transport
}

// NewClient creates a gateway client for the given base URL and transport
// mode (TransportHTTP or TransportSSE; anything else selects HTTP). An empty
// baseURL produces an unconfigured client.
func NewClient(baseURL, mode string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		return &Client{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := &http.Client{Timeout: timeout}

	var tr transport
	if mode == TransportSSE {
		tr = newSSETransport(baseURL, hc)
	} else {
		tr = newHTTPTransport(baseURL, hc)
	}
	return &Client{baseURL: baseURL, tr: tr}
}

// Enabled returns whether a base endpoint is configured
func (c *Client) Enabled() bool {
	return c.baseURL != ""
}

// ListTools performs discovery. An unconfigured gateway reports no tools
// rather than an error.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	if !c.Enabled() {
		return []ToolDescriptor{}, nil
	}
	tools, err := c.tr.listTools(ctx)
	if err != nil {
		return nil, err
	}
	if tools == nil {
		tools = []ToolDescriptor{}
	}
	return tools, nil
}

// DescribeTool fetches a single descriptor from the endpoint
func (c *Client) DescribeTool(ctx context.Context, name string) (*ToolDescriptor, error) {
	if !c.Enabled() {
		return nil, ErrUnconfigured
	}
	return c.tr.describeTool(ctx, name)
}

// InvokeTool validates parameters and executes a tool through a fresh
// session (see Session for the caching variant used inside a run)
func (c *Client) InvokeTool(ctx context.Context, name string, params map[string]any) (*ToolActionRecord, error) {
	return c.Session().Invoke(ctx, name, params)
}

// Session returns a per-run view of the gateway with a read-many,
// write-once descriptor cache. Sessions are not shared across runs.
func (c *Client) Session() *Session {
	return &Session{client: c}
}

// Session caches discovery results for the duration of one orchestrator run
type Session struct {
	client *Client

	mu      sync.Mutex
	tools   []ToolDescriptor
	fetched bool
}

// ListTools returns the cached descriptor sequence, performing discovery at
// most once per session
func (s *Session) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(ctx)
}

func (s *Session) listLocked(ctx context.Context) ([]ToolDescriptor, error) {
	if s.fetched {
		return s.tools, nil
	}
	tools, err := s.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	s.tools = tools
	s.fetched = true
	return s.tools, nil
}

// FindTool returns the first discovered tool whose name or description
// contains any of the keywords, or ErrToolNotFound
func (s *Session) FindTool(ctx context.Context, keywords ...string) (*ToolDescriptor, error) {
	if !s.client.Enabled() {
		return nil, ErrUnconfigured
	}

	s.mu.Lock()
	tools, err := s.listLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	for i := range tools {
		haystack := strings.ToLower(tools[i].Name + " " + tools[i].Description)
		for _, word := range keywords {
			if strings.Contains(haystack, word) {
				return &tools[i], nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no tool matching %v", ErrToolNotFound, keywords)
}

// Invoke validates params against the tool's declared schema and executes
// it. Schema mismatches fail locally with ErrInvalidArgument before any
// dispatch. A failed remote invocation returns a record whose Error field
// carries the failure; callers must inspect the record.
func (s *Session) Invoke(ctx context.Context, name string, params map[string]any) (*ToolActionRecord, error) {
	if !s.client.Enabled() {
		return nil, ErrUnconfigured
	}

	s.mu.Lock()
	tools, err := s.listLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var descriptor *ToolDescriptor
	for i := range tools {
		if tools[i].Name == name {
			descriptor = &tools[i]
			break
		}
	}
	if descriptor == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	if err := validateParams(descriptor.InputSchema, params); err != nil {
		return nil, err
	}

	record := &ToolActionRecord{
		ID:         uuid.New().String(),
		Tool:       name,
		Parameters: params,
		InvokedAt:  time.Now().UTC(),
	}

	output, err := s.client.tr.invokeTool(ctx, name, params)
	if err != nil {
		record.Error = err.Error()
		return record, nil
	}
	record.Result = output
	return record, nil
}
