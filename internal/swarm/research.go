package swarm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/calebhsu/swarmdesk/internal/gateway"
	"github.com/calebhsu/swarmdesk/internal/knowledge"
	"github.com/calebhsu/swarmdesk/internal/reasoning"
)

// Enrichment snippet texts are capped so a verbose tool result cannot
// dominate the snippet sequence
const maxEnrichmentTextLength = 240

// runResearch retrieves internal knowledge, decides evidence sufficiency,
// and enriches through the tool gateway when the internal corpus falls
// short. Enrichment snippets augment internal results, never replace them.
func (o *Orchestrator) runResearch(ctx context.Context, h *handoff, run *Run) (*ResearchResult, error) {
	if err := h.require(StageResearch, h.Triage); err != nil {
		return nil, err
	}
	t := h.Ticket

	snippets, err := o.retriever.Retrieve(ctx, t.Message, o.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieval: %v", ErrStageUnrecoverable, err)
	}

	sufficient := len(snippets) > 0 && snippets[0].Score >= o.evidenceThreshold

	actions := []gateway.ToolActionRecord{}
	if !sufficient && run.tools != nil {
		if record := o.enrich(ctx, run, t.ID, t.Message); record != nil {
			actions = append(actions, *record)
			if record.Error == "" && record.Result != nil {
				snippets = append(snippets, enrichmentSnippet(record))
			}
		}
	}

	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Text
	}
	payload := map[string]any{
		"message":             t.Message,
		"snippets":            texts,
		"evidence_sufficient": sufficient,
	}

	out, degraded, err := o.runner.infer(ctx, reasoning.StageResearch, payload)
	if err != nil {
		return nil, err
	}

	synthesis, ok := out.String("synthesis")
	if !ok {
		synthesis = "Use internal runbooks and policies to resolve the issue."
	}

	return &ResearchResult{
		Snippets:           snippets,
		EvidenceSufficient: sufficient,
		Synthesis:          synthesis,
		ToolActions:        actions,
		Degraded:           degraded,
	}, nil
}

// enrich performs the discovery-and-enrichment tool call. Gateway
// unavailability is informational: the stage proceeds without enrichment.
func (o *Orchestrator) enrich(ctx context.Context, run *Run, ticketID, query string) *gateway.ToolActionRecord {
	tool, err := run.tools.FindTool(ctx, researchToolKeywords...)
	if err != nil {
		if !errors.Is(err, gateway.ErrUnconfigured) && !errors.Is(err, gateway.ErrToolNotFound) {
			o.logger.Warn("tool discovery failed", zap.String("run_id", run.ID), zap.Error(err))
		}
		return nil
	}

	record, err := run.tools.Invoke(ctx, tool.Name, map[string]any{
		"query":     query,
		"ticket_id": ticketID,
	})
	if err != nil {
		o.logger.Warn("enrichment invocation rejected", zap.String("tool", tool.Name), zap.Error(err))
		return nil
	}
	return record
}

// enrichmentSnippet converts a successful tool result into a snippet with a
// distinguishing source marker
func enrichmentSnippet(record *gateway.ToolActionRecord) knowledge.Snippet {
	text := ""
	if raw, err := json.Marshal(record.Result); err == nil {
		text = string(raw)
	}
	if len(text) > maxEnrichmentTextLength {
		// Back up to a rune boundary so the cap never splits a multi-byte
		// character
		cut := maxEnrichmentTextLength
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return knowledge.Snippet{
		DocID:  record.ID,
		Source: "gateway:" + record.Tool,
		Text:   text,
		Score:  0,
	}
}
