package gateway

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sseTransport is the streamed-event transport. Each operation is still one
// POST; the server may emit progress events before the final result event.
// The transport surfaces only the materialized result, so cancelling a
// stream mid-flight never re-issues the request.
type sseTransport struct {
	baseURL string
	client  *http.Client
}

func newSSETransport(baseURL string, client *http.Client) *sseTransport {
	return &sseTransport{baseURL: baseURL, client: client}
}

func (t *sseTransport) listTools(ctx context.Context) ([]ToolDescriptor, error) {
	var resp listToolsResponse
	if err := t.stream(ctx, "/sse/list_tools", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

func (t *sseTransport) describeTool(ctx context.Context, name string) (*ToolDescriptor, error) {
	var resp describeToolResponse
	if err := t.stream(ctx, "/sse/describe_tool", map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	if resp.Tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return resp.Tool, nil
}

func (t *sseTransport) invokeTool(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	var resp invokeToolResponse
	if err := t.stream(ctx, "/sse/invoke_tool", invokeToolRequest{Name: name, Arguments: params}, &resp); err != nil {
		return nil, err
	}
	return resp.Output, nil
}

// stream posts the payload, scans the event stream, and decodes the final
// result event into out. Progress events are skipped; "[DONE]" terminates
// the stream.
func (t *sseTransport) stream(ctx context.Context, path string, payload any, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway stream failed for %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s reported unknown tool", ErrToolNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway stream failed for %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		// Progress events carry an "event" marker and no result payload
		var probe map[string]any
		if err := json.Unmarshal([]byte(data), &probe); err != nil {
			continue
		}
		if kind, ok := probe["event"].(string); ok && kind == "progress" {
			continue
		}

		if err := json.Unmarshal([]byte(data), out); err != nil {
			return fmt.Errorf("failed to decode gateway event for %s: %w", path, err)
		}
		return nil
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("gateway stream failed for %s: %w", path, err)
	}
	return fmt.Errorf("gateway stream for %s ended without a result event", path)
}
