package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calebhsu/swarmdesk/internal/reasoning"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4.1-mini"
	defaultTimeout = 20 * time.Second
)

// Stage instructions sent as the system prompt. Each demands a strict JSON
// object so the response can be parsed against the stage's expected shape.
var stagePrompts = map[string]string{
	reasoning.StageTriage: "You triage incoming enterprise support tickets by urgency. " +
		`Respond with a JSON object: {"urgency": "low"|"medium"|"high"|"critical", "rationale": string, "confidence": number between 0 and 1}.`,
	reasoning.StageResearch: "You research support issues using the internal knowledge snippets provided, and flag when external validation is needed. " +
		`Respond with a JSON object: {"synthesis": string summarizing the top support guidance in 2 sentences}.`,
	reasoning.StageResponse: "You craft personalized customer support messages with recommended actions and clear ownership. " +
		`Respond with a JSON object: {"reply": string, "next_actions": [string], "tone": string}.`,
	reasoning.StageEscalation: "You justify support escalation routing decisions in operational language. " +
		`Respond with a JSON object: {"justification": string}.`,
}

// Client implements the reasoning backend interface against the OpenAI
// chat completions API
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewClient creates a new OpenAI reasoning backend. Empty baseURL, model or
// timeout select the defaults.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the backend name
func (c *Client) Name() string {
	return "openai"
}

// Infer serializes the stage context to a prompt, calls the chat completions
// endpoint, and parses the structured JSON response
func (c *Client) Infer(ctx context.Context, stage string, payload map[string]any) (reasoning.Output, error) {
	prompt, ok := stagePrompts[stage]
	if !ok {
		prompt = "Respond with a JSON object relevant to the request."
	}

	contextJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding stage context: %v", reasoning.ErrMalformedOutput, err)
	}

	body := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": prompt},
			{"role": "user", "content": fmt.Sprintf("Stage: %s\nContext: %s", stage, contextJSON)},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0,
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", reasoning.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: status %d: %s", reasoning.ErrBackendUnavailable, resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", reasoning.ErrMalformedOutput, err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: response contained no choices", reasoning.ErrMalformedOutput)
	}

	var out reasoning.Output
	if err := json.Unmarshal([]byte(parsed.Choices[0].Message.Content), &out); err != nil {
		return nil, fmt.Errorf("%w: response content is not a JSON object: %v", reasoning.ErrMalformedOutput, err)
	}
	return out, nil
}

// chatResponse represents a non-streaming chat completions response
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
