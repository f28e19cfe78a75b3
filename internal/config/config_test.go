package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 5, cfg.RetrieveTopK)
	assert.InDelta(t, 0.40, cfg.EvidenceThreshold, 0.001)
	assert.Equal(t, "http", cfg.GatewayTransport)
	assert.Equal(t, 20*time.Second, cfg.OpenAITimeout)
	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.Empty(t, cfg.GatewayURL)
	assert.Empty(t, cfg.APIAuthSecret)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RETRIEVE_TOP_K", "3")
	t.Setenv("EVIDENCE_THRESHOLD", "0.55")
	t.Setenv("MCP_GATEWAY_URL", "http://gateway:8200")
	t.Setenv("MCP_GATEWAY_TRANSPORT", "sse")
	t.Setenv("OPENAI_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3, cfg.RetrieveTopK)
	assert.InDelta(t, 0.55, cfg.EvidenceThreshold, 0.001)
	assert.Equal(t, "http://gateway:8200", cfg.GatewayURL)
	assert.Equal(t, "sse", cfg.GatewayTransport)
	assert.Equal(t, 5*time.Second, cfg.OpenAITimeout)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("RETRIEVE_TOP_K", "many")
	t.Setenv("EVIDENCE_THRESHOLD", "lots")
	t.Setenv("OPENAI_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.RetrieveTopK)
	assert.InDelta(t, 0.40, cfg.EvidenceThreshold, 0.001)
	assert.Equal(t, 20*time.Second, cfg.OpenAITimeout)
}
