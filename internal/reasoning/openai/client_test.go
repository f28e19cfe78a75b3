package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calebhsu/swarmdesk/internal/reasoning"
)

func chatReply(content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := map[string]any{
			"id":    "chatcmpl-1",
			"model": "test",
			"choices": []map[string]any{
				{
					"index": 0,
					"message": map[string]any{
						"role":    "assistant",
						"content": content,
					},
					"finish_reason": "stop",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(reply)
	}
}

func TestInferParsesStageOutput(t *testing.T) {
	server := httptest.NewServer(chatReply(`{"urgency": "high", "rationale": "customer is blocked", "confidence": 0.84}`))
	defer server.Close()

	client := NewClient("test-key", server.URL, "", 0)
	out, err := client.Infer(context.Background(), reasoning.StageTriage, map[string]any{
		"message": "cannot login",
	})
	require.NoError(t, err)

	urgency, ok := out.String("urgency")
	require.True(t, ok)
	assert.Equal(t, "high", urgency)

	confidence, ok := out.Float("confidence")
	require.True(t, ok)
	assert.InDelta(t, 0.84, confidence, 0.001)
}

func TestInferBackendDown(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close() // connection refused

	client := NewClient("test-key", server.URL, "", 0)
	_, err := client.Infer(context.Background(), reasoning.StageTriage, map[string]any{})
	assert.ErrorIs(t, err, reasoning.ErrBackendUnavailable)
}

func TestInferNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error": "rate limited"}`)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "", 0)
	_, err := client.Infer(context.Background(), reasoning.StageTriage, map[string]any{})
	assert.ErrorIs(t, err, reasoning.ErrBackendUnavailable)
}

func TestInferMalformedContent(t *testing.T) {
	server := httptest.NewServer(chatReply("sorry, I cannot respond in JSON"))
	defer server.Close()

	client := NewClient("test-key", server.URL, "", 0)
	_, err := client.Infer(context.Background(), reasoning.StageResponse, map[string]any{})
	assert.ErrorIs(t, err, reasoning.ErrMalformedOutput)
}

func TestInferNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "chatcmpl-1", "choices": []}`)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "", 0)
	_, err := client.Infer(context.Background(), reasoning.StageResearch, map[string]any{})
	assert.ErrorIs(t, err, reasoning.ErrMalformedOutput)
}

func TestInferSendsAuthAndModel(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		chatReply(`{"justification": "ok"}`)(w, r)
	}))
	defer server.Close()

	client := NewClient("secret", server.URL, "test-model", 0)
	_, err := client.Infer(context.Background(), reasoning.StageEscalation, map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])
}
