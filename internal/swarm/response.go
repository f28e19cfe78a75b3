package swarm

import (
	"context"
	"time"

	"github.com/calebhsu/swarmdesk/internal/reasoning"
	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// Number of top research snippets cited in the drafted reply context
const citedSnippetCount = 3

// runResponse drafts the customer reply in the requested tone, citing the
// top research snippets, with next actions seeded from the triage tier
func (o *Orchestrator) runResponse(ctx context.Context, h *handoff) (*ResponseResult, error) {
	if err := h.require(StageResponse, h.Triage, h.Research); err != nil {
		return nil, err
	}
	t := h.Ticket

	tone := t.PreferredTone
	if tone == "" {
		tone = DefaultTone
	}

	cited := make([]string, 0, citedSnippetCount)
	for i, s := range h.Research.Snippets {
		if i == citedSnippetCount {
			break
		}
		cited = append(cited, "["+s.Source+"] "+s.Text)
	}

	payload := map[string]any{
		"customer_name": t.CustomerName,
		"company":       t.Company,
		"urgency":       string(h.Triage.Urgency),
		"sla_deadline":  h.Triage.SLADeadline.Format(time.RFC3339),
		"tone":          tone,
		"synthesis":     h.Research.Synthesis,
		"snippets":      cited,
	}

	out, degraded, err := o.runner.infer(ctx, reasoning.StageResponse, payload)
	if err != nil {
		return nil, err
	}

	reply, ok := out.String("reply")
	if !ok {
		reply = reasoning.DraftReply(payload)
	}

	actions, ok := out.StringSlice("next_actions")
	if !ok {
		actions = seedNextActions(h.Triage.Urgency)
	}
	// Critical and high tiers always carry an explicit specialist review
	// action, whatever the backend proposed
	if h.Triage.Urgency.AtLeast(ticket.UrgencyHigh) && !contains(actions, actionSpecialistReview) {
		actions = append(actions, actionSpecialistReview)
	}

	if returned, ok := out.String("tone"); ok && returned != "" {
		tone = returned
	}

	return &ResponseResult{
		Reply:       reply,
		NextActions: actions,
		Tone:        tone,
		Degraded:    degraded,
	}, nil
}

func contains(list []string, item string) bool {
	for _, s := range list {
		if s == item {
			return true
		}
	}
	return false
}
