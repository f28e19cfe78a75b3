package swarm

import (
	"time"

	"github.com/calebhsu/swarmdesk/internal/gateway"
	"github.com/calebhsu/swarmdesk/internal/knowledge"
	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// State represents the position of a run in the pipeline state machine.
// Transitions are strictly sequential; a run never re-enters a completed
// state.
type State string

const (
	StateCreated    State = "created"
	StateTriaged    State = "triaged"
	StateResearched State = "researched"
	StateResponded  State = "responded"
	StateEscalated  State = "escalated"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Stage names in pipeline order
const (
	StageTriage     = "triage"
	StageResearch   = "research"
	StageResponse   = "response"
	StageEscalation = "escalation"
)

// TriageResult classifies a ticket's urgency and SLA target
type TriageResult struct {
	Urgency     ticket.Urgency `json:"urgency"`
	SLADeadline time.Time      `json:"sla_deadline"`
	Rationale   string         `json:"rationale"`
	Confidence  float64        `json:"confidence"`
	Degraded    bool           `json:"degraded,omitempty"`
}

// ResearchResult carries ranked knowledge snippets and any external tool
// actions taken to enrich them
type ResearchResult struct {
	Snippets           []knowledge.Snippet        `json:"snippets"`
	EvidenceSufficient bool                       `json:"evidence_sufficient"`
	Synthesis          string                     `json:"synthesis"`
	ToolActions        []gateway.ToolActionRecord `json:"mcp_actions"`
	Degraded           bool                       `json:"degraded,omitempty"`
}

// ResponseResult is the drafted customer reply
type ResponseResult struct {
	Reply       string   `json:"reply"`
	NextActions []string `json:"next_actions"`
	Tone        string   `json:"tone"`
	Degraded    bool     `json:"degraded,omitempty"`
}

// Decision enumerates the escalation routes
type Decision string

const (
	DecisionAutoResolve       Decision = "auto_resolve"
	DecisionSpecialistHandoff Decision = "specialist_handoff"
	DecisionHumanHandoff      Decision = "human_handoff"
)

// EscalationResult is the routing decision for a ticket
type EscalationResult struct {
	Decision      Decision                   `json:"decision"`
	Target        string                     `json:"target,omitempty"`
	Justification string                     `json:"justification"`
	FollowUp      string                     `json:"follow_up,omitempty"`
	ToolActions   []gateway.ToolActionRecord `json:"mcp_actions"`
	Degraded      bool                       `json:"degraded,omitempty"`
}

// ErrorDescriptor identifies the stage that ended a failed run
type ErrorDescriptor struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// SwarmResult aggregates the stage results of one run. It is immutable once
// assembled. A failed run carries whichever stage results completed plus an
// error descriptor.
type SwarmResult struct {
	RunID       string            `json:"run_id"`
	TicketID    string            `json:"ticket_id"`
	State       State             `json:"state"`
	Triage      *TriageResult     `json:"triage,omitempty"`
	Research    *ResearchResult   `json:"research,omitempty"`
	Response    *ResponseResult   `json:"response,omitempty"`
	Escalation  *EscalationResult `json:"escalation,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
	Error       *ErrorDescriptor  `json:"error,omitempty"`
}
