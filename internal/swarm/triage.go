package swarm

import (
	"context"

	"github.com/calebhsu/swarmdesk/internal/reasoning"
	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// runTriage classifies urgency and computes the SLA deadline. An explicit
// urgency hint that matches the keyword table takes precedence over the
// backend's classification.
func (o *Orchestrator) runTriage(ctx context.Context, h *handoff) (*TriageResult, error) {
	t := h.Ticket
	payload := map[string]any{
		"ticket_id":    t.ID,
		"message":      t.Message,
		"urgency_hint": t.UrgencyHint,
	}

	out, degraded, err := o.runner.infer(ctx, reasoning.StageTriage, payload)
	if err != nil {
		return nil, err
	}

	urgency := ticket.UrgencyLow
	if raw, ok := out.String("urgency"); ok && ticket.Urgency(raw).Valid() {
		urgency = ticket.Urgency(raw)
	} else {
		urgency, _ = reasoning.ClassifyUrgency(t.Message, t.UrgencyHint)
	}

	rationale, ok := out.String("rationale")
	if !ok {
		_, rationale = reasoning.ClassifyUrgency(t.Message, t.UrgencyHint)
	}

	// Hint precedence over inferred urgency
	if hintTier, ok := reasoning.TierFromKeywords(t.UrgencyHint); ok && hintTier != urgency {
		urgency = hintTier
		rationale = rationale + " Urgency overridden by explicit hint."
	}

	confidence, ok := out.Float("confidence")
	if !ok || confidence < 0 || confidence > 1 {
		confidence = 0.7
	}

	return &TriageResult{
		Urgency:     urgency,
		SLADeadline: o.now().Add(slaOffsets[urgency]),
		Rationale:   rationale,
		Confidence:  confidence,
		Degraded:    degraded,
	}, nil
}
