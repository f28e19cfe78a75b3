package swarm

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/calebhsu/swarmdesk/internal/gateway"
)

func TestEnrichmentSnippetTruncatesOnRuneBoundary(t *testing.T) {
	// The serialized result places the cap mid-rune: the JSON prefix is 14
	// bytes and the repeated rune is 3 bytes wide
	record := &gateway.ToolActionRecord{
		ID:   "act-1",
		Tool: "web_search",
		Result: map[string]any{
			"summary": "ab" + strings.Repeat("界", 200),
		},
	}

	snippet := enrichmentSnippet(record)
	assert.LessOrEqual(t, len(snippet.Text), maxEnrichmentTextLength)
	assert.True(t, utf8.ValidString(snippet.Text))
	assert.Equal(t, "gateway:web_search", snippet.Source)
}

func TestEnrichmentSnippetShortResultUntouched(t *testing.T) {
	record := &gateway.ToolActionRecord{
		ID:     "act-2",
		Tool:   "web_search",
		Result: map[string]any{"summary": "reset the token"},
	}

	snippet := enrichmentSnippet(record)
	assert.Equal(t, `{"summary":"reset the token"}`, snippet.Text)
}
