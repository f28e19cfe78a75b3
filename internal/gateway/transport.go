package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// transport performs the three protocol operations against the gateway
// endpoint. The request/response and streamed-event variants must yield
// identical logical results, differing only in delivery.
type transport interface {
	listTools(ctx context.Context) ([]ToolDescriptor, error)
	describeTool(ctx context.Context, name string) (*ToolDescriptor, error)
	invokeTool(ctx context.Context, name string, params map[string]any) (map[string]any, error)
}

// httpTransport is the plain request/response transport
type httpTransport struct {
	baseURL string
	client  *http.Client
}

func newHTTPTransport(baseURL string, client *http.Client) *httpTransport {
	return &httpTransport{baseURL: baseURL, client: client}
}

func (t *httpTransport) listTools(ctx context.Context) ([]ToolDescriptor, error) {
	var resp listToolsResponse
	if err := t.post(ctx, "/tools/list", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

func (t *httpTransport) describeTool(ctx context.Context, name string) (*ToolDescriptor, error) {
	var resp describeToolResponse
	if err := t.post(ctx, "/tools/describe", map[string]string{"name": name}, &resp); err != nil {
		return nil, err
	}
	if resp.Tool == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return resp.Tool, nil
}

func (t *httpTransport) invokeTool(ctx context.Context, name string, params map[string]any) (map[string]any, error) {
	var resp invokeToolResponse
	if err := t.post(ctx, "/tools/invoke", invokeToolRequest{Name: name, Arguments: params}, &resp); err != nil {
		return nil, err
	}
	return resp.Output, nil
}

// post sends one JSON request and decodes the JSON response into out
func (t *httpTransport) post(ctx context.Context, path string, payload any, out any) error {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed for %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s reported unknown tool", ErrToolNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gateway request failed for %s: status %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response for %s: %w", path, err)
	}
	return nil
}
