package swarm

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/calebhsu/swarmdesk/internal/gateway"
	"github.com/calebhsu/swarmdesk/internal/reasoning"
)

// runEscalation applies the routing decision table and, for any handoff,
// notifies the target queue through the tool gateway when one is
// configured. Gateway unavailability never changes the decision; it only
// omits the action record.
func (o *Orchestrator) runEscalation(ctx context.Context, h *handoff, run *Run) (*EscalationResult, error) {
	if err := h.require(StageEscalation, h.Triage, h.Research, h.Response); err != nil {
		return nil, err
	}
	t := h.Ticket

	decision, target, followUp := decide(h.Triage.Urgency, h.Research.EvidenceSufficient, t.Message)

	payload := map[string]any{
		"decision":            string(decision),
		"target":              target,
		"urgency":             string(h.Triage.Urgency),
		"evidence_sufficient": h.Research.EvidenceSufficient,
		"message":             t.Message,
	}

	out, degraded, err := o.runner.infer(ctx, reasoning.StageEscalation, payload)
	if err != nil {
		return nil, err
	}

	justification, ok := out.String("justification")
	if !ok {
		fallbackOut, _ := o.runner.fallback.Infer(ctx, reasoning.StageEscalation, payload)
		justification, _ = fallbackOut.String("justification")
	}

	actions := []gateway.ToolActionRecord{}
	if decision != DecisionAutoResolve && run.tools != nil {
		if record := o.notify(ctx, run, t.ID, target); record != nil {
			actions = append(actions, *record)
		}
	}

	return &EscalationResult{
		Decision:      decision,
		Target:        target,
		Justification: justification,
		FollowUp:      followUp,
		ToolActions:   actions,
		Degraded:      degraded,
	}, nil
}

// notify performs the operational tool call that records the escalation
// with the target queue
func (o *Orchestrator) notify(ctx context.Context, run *Run, ticketID, target string) *gateway.ToolActionRecord {
	tool, err := run.tools.FindTool(ctx, notifyToolKeywords...)
	if err != nil {
		if !errors.Is(err, gateway.ErrUnconfigured) && !errors.Is(err, gateway.ErrToolNotFound) {
			o.logger.Warn("tool discovery failed", zap.String("run_id", run.ID), zap.Error(err))
		}
		return nil
	}

	record, err := run.tools.Invoke(ctx, tool.Name, map[string]any{
		"ticket_id": ticketID,
		"status":    "escalated",
		"route_to":  target,
	})
	if err != nil {
		o.logger.Warn("notify invocation rejected", zap.String("tool", tool.Name), zap.Error(err))
		return nil
	}
	return record
}
