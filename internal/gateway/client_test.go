package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stubTools = []ToolDescriptor{
	{
		Name:        "web_search",
		Description: "Search the public web for supporting evidence",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"query"},
			"properties": map[string]any{
				"query":     map[string]any{"type": "string"},
				"ticket_id": map[string]any{"type": "string"},
			},
		},
	},
	{
		Name:        "update_ticket_db",
		Description: "Update the ticket database record",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"ticket_id", "status"},
			"properties": map[string]any{
				"ticket_id": map[string]any{"type": "string"},
				"status":    map[string]any{"type": "string"},
				"route_to":  map[string]any{"type": "string"},
			},
		},
	},
	{
		Name:        "send_email",
		Description: "Send a notification email",
		InputSchema: map[string]any{
			"type":     "object",
			"required": []any{"to", "subject"},
			"properties": map[string]any{
				"to":      map[string]any{"type": "string"},
				"subject": map[string]any{"type": "string"},
			},
		},
	},
}

// stubGateway emulates a tool gateway over both transports and counts every
// request it receives
type stubGateway struct {
	server     *httptest.Server
	requests   atomic.Int64
	failInvoke bool
}

func newStubGateway() *stubGateway {
	g := &stubGateway{}
	mux := http.NewServeMux()

	mux.HandleFunc("/tools/list", func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{"tools": stubTools})
	})
	mux.HandleFunc("/tools/describe", func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, tool := range stubTools {
			if tool.Name == req["name"] {
				_ = json.NewEncoder(w).Encode(map[string]any{"tool": tool})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/tools/invoke", func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		if g.failInvoke {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, "tool backend exploded")
			return
		}
		var req invokeToolRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tool_name": req.Name,
			"output":    map[string]any{"status": "ok", "tool": req.Name},
		})
	})

	mux.HandleFunc("/sse/list_tools", func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		w.Header().Set("Content-Type", "text/event-stream")
		payload, _ := json.Marshal(map[string]any{"tools": stubTools})
		fmt.Fprintf(w, "data: {\"event\": \"progress\", \"message\": \"discovering\"}\n\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	mux.HandleFunc("/sse/invoke_tool", func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		var req invokeToolRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "text/event-stream")
		payload, _ := json.Marshal(map[string]any{
			"tool_name": req.Name,
			"output":    map[string]any{"status": "ok", "tool": req.Name},
		})
		fmt.Fprintf(w, "data: {\"event\": \"progress\", \"message\": \"invoking\"}\n\n")
		fmt.Fprintf(w, "data: %s\n\n", payload)
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	mux.HandleFunc("/sse/describe_tool", func(w http.ResponseWriter, r *http.Request) {
		g.requests.Add(1)
		var req map[string]string
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tool := range stubTools {
			if tool.Name == req["name"] {
				payload, _ := json.Marshal(map[string]any{"tool": tool})
				fmt.Fprintf(w, "data: %s\n\n", payload)
				fmt.Fprint(w, "data: [DONE]\n\n")
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	})

	g.server = httptest.NewServer(mux)
	return g
}

func TestUnconfiguredClient(t *testing.T) {
	client := NewClient("", TransportHTTP, 0)

	assert.False(t, client.Enabled())

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tools)

	_, err = client.DescribeTool(context.Background(), "web_search")
	assert.ErrorIs(t, err, ErrUnconfigured)

	_, err = client.InvokeTool(context.Background(), "web_search", map[string]any{"query": "x"})
	assert.ErrorIs(t, err, ErrUnconfigured)
}

func TestListToolsBothTransports(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()

	for _, mode := range []string{TransportHTTP, TransportSSE} {
		t.Run(mode, func(t *testing.T) {
			client := NewClient(g.server.URL, mode, 0)
			tools, err := client.ListTools(context.Background())
			require.NoError(t, err)
			require.Len(t, tools, 3)
			assert.Equal(t, "web_search", tools[0].Name)
			assert.Equal(t, "update_ticket_db", tools[1].Name)
			assert.Equal(t, "send_email", tools[2].Name)
		})
	}
}

func TestDescribeTool(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()

	for _, mode := range []string{TransportHTTP, TransportSSE} {
		t.Run(mode, func(t *testing.T) {
			client := NewClient(g.server.URL, mode, 0)

			tool, err := client.DescribeTool(context.Background(), "send_email")
			require.NoError(t, err)
			assert.Equal(t, "send_email", tool.Name)
			assert.NotEmpty(t, tool.InputSchema)

			_, err = client.DescribeTool(context.Background(), "no_such_tool")
			assert.ErrorIs(t, err, ErrToolNotFound)
		})
	}
}

func TestInvokeToolBothTransports(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()

	for _, mode := range []string{TransportHTTP, TransportSSE} {
		t.Run(mode, func(t *testing.T) {
			client := NewClient(g.server.URL, mode, 0)
			record, err := client.InvokeTool(context.Background(), "web_search", map[string]any{
				"query": "password reset",
			})
			require.NoError(t, err)
			assert.Empty(t, record.Error)
			assert.Equal(t, "web_search", record.Tool)
			assert.Equal(t, "ok", record.Result["status"])
			assert.NotEmpty(t, record.ID)
			assert.False(t, record.InvokedAt.IsZero())
		})
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()

	client := NewClient(g.server.URL, TransportHTTP, 0)
	_, err := client.InvokeTool(context.Background(), "no_such_tool", map[string]any{})
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestInvalidParamsFailLocally(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()

	client := NewClient(g.server.URL, TransportHTTP, 0)
	session := client.Session()

	// Prime the descriptor cache
	_, err := session.ListTools(context.Background())
	require.NoError(t, err)
	before := g.requests.Load()

	// Missing required field
	_, err = session.Invoke(context.Background(), "update_ticket_db", map[string]any{
		"ticket_id": "T-1",
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Wrong type
	_, err = session.Invoke(context.Background(), "web_search", map[string]any{
		"query": 42,
	})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// Validation happened against the cached schema, no network traffic
	assert.Equal(t, before, g.requests.Load())
}

func TestRemoteFailureBecomesRecordError(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()
	g.failInvoke = true

	client := NewClient(g.server.URL, TransportHTTP, 0)
	record, err := client.InvokeTool(context.Background(), "send_email", map[string]any{
		"to":      "ops@example.com",
		"subject": "escalation",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, record.Error)
	assert.Nil(t, record.Result)
	assert.Equal(t, "send_email", record.Tool)
}

func TestSessionCachesDiscovery(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()

	client := NewClient(g.server.URL, TransportHTTP, 0)
	session := client.Session()

	_, err := session.ListTools(context.Background())
	require.NoError(t, err)
	_, err = session.ListTools(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), g.requests.Load())
}

func TestFindTool(t *testing.T) {
	g := newStubGateway()
	defer g.server.Close()

	client := NewClient(g.server.URL, TransportHTTP, 0)
	session := client.Session()

	tool, err := session.FindTool(context.Background(), "web", "search")
	require.NoError(t, err)
	assert.Equal(t, "web_search", tool.Name)

	tool, err = session.FindTool(context.Background(), "notify", "email", "slack", "ticket", "update")
	require.NoError(t, err)
	assert.Equal(t, "update_ticket_db", tool.Name)

	_, err = session.FindTool(context.Background(), "quantum")
	assert.ErrorIs(t, err, ErrToolNotFound)
}
