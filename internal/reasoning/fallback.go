package reasoning

import (
	"context"
	"fmt"
	"strings"

	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// Keyword-to-urgency table used by the deterministic triage heuristic. The
// first tier whose keyword list matches wins, checked from most to least
// severe.
var urgencyKeywords = []struct {
	tier     ticket.Urgency
	keywords []string
}{
	{ticket.UrgencyCritical, []string{"breach", "outage", "down", "incident", "security"}},
	{ticket.UrgencyHigh, []string{"urgent", "can't login", "cannot login", "blocked", "locked out"}},
	{ticket.UrgencyMedium, []string{"billing", "invoice", "refund"}},
}

var urgencyRationales = map[ticket.Urgency]string{
	ticket.UrgencyCritical: "Possible service or security incident detected.",
	ticket.UrgencyHigh:     "Customer blocked from a key workflow.",
	ticket.UrgencyMedium:   "Billing-related request with potential business impact.",
	ticket.UrgencyLow:      "General support request with no outage indicators.",
}

var urgencyConfidence = map[ticket.Urgency]float64{
	ticket.UrgencyCritical: 0.9,
	ticket.UrgencyHigh:     0.82,
	ticket.UrgencyMedium:   0.78,
	ticket.UrgencyLow:      0.7,
}

// TierFromKeywords matches text against the urgency keyword table. The
// second return is false when no keyword matches.
func TierFromKeywords(text string) (ticket.Urgency, bool) {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return "", false
	}
	for _, entry := range urgencyKeywords {
		for _, word := range entry.keywords {
			if strings.Contains(lowered, word) {
				return entry.tier, true
			}
		}
	}
	return "", false
}

// ClassifyUrgency derives an urgency tier from a ticket message and optional
// hint. An explicit hint that matches the keyword table takes precedence
// over the message-derived tier.
func ClassifyUrgency(message, hint string) (ticket.Urgency, string) {
	if tier, ok := TierFromKeywords(hint); ok {
		return tier, urgencyRationales[tier] + " (from urgency hint)"
	}
	if tier, ok := TierFromKeywords(message); ok {
		return tier, urgencyRationales[tier]
	}
	return ticket.UrgencyLow, urgencyRationales[ticket.UrgencyLow]
}

// DraftReply assembles the templated customer reply from a response-stage
// context payload. Shared by the fallback engine and by output normalization
// when a live backend omits the reply field.
func DraftReply(payload map[string]any) string {
	name, _ := payload["customer_name"].(string)
	if name == "" {
		name = "there"
	}
	urgency, _ := payload["urgency"].(string)
	synthesis, _ := payload["synthesis"].(string)
	if synthesis == "" {
		synthesis = "We are investigating using our internal runbooks."
	}
	deadline, _ := payload["sla_deadline"].(string)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	b.WriteString("Thanks for raising this with us. We have triaged your request and started investigating.\n")
	if urgency != "" {
		fmt.Fprintf(&b, "Current priority is %s", urgency)
		if deadline != "" {
			fmt.Fprintf(&b, " with a target response by %s", deadline)
		}
		b.WriteString(".\n")
	}
	fmt.Fprintf(&b, "\nWhat we know so far: %s\n", synthesis)
	b.WriteString("\nWe'll share another update shortly with resolution steps.\n\nBest,\nSupport Swarm")
	return b.String()
}

// Fallback is the deterministic reasoning backend. It is a pure function of
// the stage context and never performs network calls.
type Fallback struct{}

// NewFallback creates the deterministic backend
func NewFallback() *Fallback {
	return &Fallback{}
}

// Name returns the backend name
func (f *Fallback) Name() string {
	return "fallback"
}

// Infer produces a stage-shaped output from fixed heuristics
func (f *Fallback) Infer(_ context.Context, stage string, payload map[string]any) (Output, error) {
	switch stage {
	case StageTriage:
		return f.triage(payload), nil
	case StageResearch:
		return f.research(payload), nil
	case StageResponse:
		return f.response(payload), nil
	case StageEscalation:
		return f.escalation(payload), nil
	}
	return nil, fmt.Errorf("unknown stage: %s", stage)
}

func (f *Fallback) triage(payload map[string]any) Output {
	message, _ := payload["message"].(string)
	hint, _ := payload["urgency_hint"].(string)
	tier, rationale := ClassifyUrgency(message, hint)
	return Output{
		"urgency":    string(tier),
		"rationale":  rationale,
		"confidence": urgencyConfidence[tier],
	}
}

func (f *Fallback) research(payload map[string]any) Output {
	snippets, _ := Output(payload).StringSlice("snippets")
	synthesis := "Use internal runbooks and policies to resolve the issue."
	if len(snippets) > 0 {
		top := snippets
		if len(top) > 2 {
			top = top[:2]
		}
		synthesis = strings.Join(top, " ")
	}
	return Output{"synthesis": synthesis}
}

func (f *Fallback) response(payload map[string]any) Output {
	tone, _ := payload["tone"].(string)
	return Output{
		"reply": DraftReply(payload),
		"tone":  tone,
	}
}

func (f *Fallback) escalation(payload map[string]any) Output {
	decision, _ := payload["decision"].(string)
	target, _ := payload["target"].(string)

	var justification string
	switch decision {
	case "human_handoff":
		justification = "Critical severity requires immediate human oversight."
	case "specialist_handoff":
		justification = fmt.Sprintf("Evidence is insufficient for autonomous resolution; routing to %s.", target)
	default:
		justification = "Autonomous resolution path is acceptable."
	}
	return Output{"justification": justification}
}
