package swarm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calebhsu/swarmdesk/internal/gateway"
	"github.com/calebhsu/swarmdesk/internal/knowledge"
	"github.com/calebhsu/swarmdesk/internal/reasoning"
	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// eventBufferSize bounds the per-run event channel
const eventBufferSize = 32

// Config carries the orchestrator's collaborators. Live and Gateway are
// optional; the orchestrator works fallback-only and gateway-less.
type Config struct {
	Live              reasoning.Backend
	Retriever         knowledge.Retriever
	Gateway           *gateway.Client
	Logger            *zap.Logger
	TopK              int
	EvidenceThreshold float64
}

// Orchestrator drives tickets through the four-stage pipeline and keeps a
// registry of runs for inspection and event streaming
type Orchestrator struct {
	runner            *stageRunner
	retriever         knowledge.Retriever
	gateway           *gateway.Client
	logger            *zap.Logger
	topK              int
	evidenceThreshold float64
	now               func() time.Time

	mu   sync.RWMutex
	runs map[string]*Run
}

// New creates an orchestrator with defaults filled in for any collaborator
// the config leaves unset
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	threshold := cfg.EvidenceThreshold
	if threshold <= 0 {
		threshold = DefaultEvidenceThreshold
	}

	return &Orchestrator{
		runner: &stageRunner{
			live:     cfg.Live,
			fallback: reasoning.NewFallback(),
			logger:   logger,
		},
		retriever:         cfg.Retriever,
		gateway:           cfg.Gateway,
		logger:            logger,
		topK:              topK,
		evidenceThreshold: threshold,
		now:               func() time.Time { return time.Now().UTC() },
		runs:              make(map[string]*Run),
	}
}

// BackendName reports the active reasoning backend
func (o *Orchestrator) BackendName() string {
	if o.runner.live != nil {
		return o.runner.live.Name()
	}
	return o.runner.fallback.Name()
}

// GatewayEnabled reports whether a tool gateway is configured
func (o *Orchestrator) GatewayEnabled() bool {
	return o.gateway != nil && o.gateway.Enabled()
}

// GetRun looks up a run by id
func (o *Orchestrator) GetRun(id string) (*Run, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	run, ok := o.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// Run drives one ticket through triage, research, response, and escalation.
// The returned error is non-nil only for an invalid ticket; every accepted
// ticket yields a well-formed SwarmResult, failed runs included.
func (o *Orchestrator) Run(ctx context.Context, t ticket.Ticket) (*SwarmResult, error) {
	run, err := o.newRun(t)
	if err != nil {
		return nil, err
	}
	return o.execute(ctx, run), nil
}

// Start launches a run in the background and returns it immediately. The
// caller observes progress through the run's event stream or by polling.
func (o *Orchestrator) Start(t ticket.Ticket) (*Run, error) {
	run, err := o.newRun(t)
	if err != nil {
		return nil, err
	}
	go o.execute(context.Background(), run)
	return run, nil
}

// newRun validates the ticket and registers a fresh run for it
func (o *Orchestrator) newRun(t ticket.Ticket) (*Run, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        uuid.New().String(),
		TicketID:  t.ID,
		StartedAt: o.now(),
		state:     StateCreated,
		ticket:    t,
		events:    make(chan Event, eventBufferSize),
	}
	if o.GatewayEnabled() {
		run.tools = o.gateway.Session()
	}

	o.mu.Lock()
	o.runs[run.ID] = run
	o.mu.Unlock()

	return run, nil
}

// execute walks the run through the pipeline until a terminal state
func (o *Orchestrator) execute(ctx context.Context, run *Run) *SwarmResult {
	o.logger.Info("run started",
		zap.String("run_id", run.ID),
		zap.String("ticket_id", run.TicketID))
	run.emit(EventRunStarted, "", nil)

	h := &handoff{Ticket: run.ticket}

	if err := ctx.Err(); err != nil {
		return o.fail(run, h, StageTriage, err)
	}
	triage, err := o.runTriage(ctx, h)
	if err != nil {
		return o.fail(run, h, StageTriage, err)
	}
	h.Triage = triage
	o.advance(run, StateTriaged, StageTriage, triage.Degraded, map[string]any{
		"urgency": string(triage.Urgency),
	})

	if err := ctx.Err(); err != nil {
		return o.fail(run, h, StageResearch, err)
	}
	research, err := o.runResearch(ctx, h, run)
	if err != nil {
		return o.fail(run, h, StageResearch, err)
	}
	h.Research = research
	o.advance(run, StateResearched, StageResearch, research.Degraded, map[string]any{
		"snippets":            len(research.Snippets),
		"evidence_sufficient": research.EvidenceSufficient,
	})

	if err := ctx.Err(); err != nil {
		return o.fail(run, h, StageResponse, err)
	}
	response, err := o.runResponse(ctx, h)
	if err != nil {
		return o.fail(run, h, StageResponse, err)
	}
	h.Response = response
	o.advance(run, StateResponded, StageResponse, response.Degraded, map[string]any{
		"tone": response.Tone,
	})

	if err := ctx.Err(); err != nil {
		return o.fail(run, h, StageEscalation, err)
	}
	escalation, err := o.runEscalation(ctx, h, run)
	if err != nil {
		return o.fail(run, h, StageEscalation, err)
	}
	h.Escalation = escalation
	o.advance(run, StateEscalated, StageEscalation, escalation.Degraded, map[string]any{
		"decision": string(escalation.Decision),
	})

	return o.complete(run, h)
}

// advance records a completed stage transition and emits lifecycle events
func (o *Orchestrator) advance(run *Run, state State, stage string, degraded bool, data map[string]any) {
	run.setState(state)
	if degraded {
		run.emit(EventStageDegraded, stage, nil)
	}
	run.emit(EventStageCompleted, stage, data)
	o.logger.Info("stage completed",
		zap.String("run_id", run.ID),
		zap.String("stage", stage),
		zap.Bool("degraded", degraded))
}

// complete finalizes a successful run
func (o *Orchestrator) complete(run *Run, h *handoff) *SwarmResult {
	done := o.now()
	result := &SwarmResult{
		RunID:       run.ID,
		TicketID:    run.TicketID,
		State:       StateCompleted,
		Triage:      h.Triage,
		Research:    h.Research,
		Response:    h.Response,
		Escalation:  h.Escalation,
		GeneratedAt: done,
	}
	run.finish(StateCompleted, done, result)
	run.emit(EventRunCompleted, "", map[string]any{
		"decision": string(h.Escalation.Decision),
	})
	close(run.events)

	o.logger.Info("run completed",
		zap.String("run_id", run.ID),
		zap.String("decision", string(h.Escalation.Decision)))
	return result
}

// fail finalizes a failed run, preserving whatever stage results completed
// before the failure
func (o *Orchestrator) fail(run *Run, h *handoff, stage string, cause error) *SwarmResult {
	done := o.now()
	result := &SwarmResult{
		RunID:       run.ID,
		TicketID:    run.TicketID,
		State:       StateFailed,
		Triage:      h.Triage,
		Research:    h.Research,
		Response:    h.Response,
		Escalation:  h.Escalation,
		GeneratedAt: done,
		Error: &ErrorDescriptor{
			Stage:   stage,
			Message: cause.Error(),
		},
	}
	run.finish(StateFailed, done, result)
	run.emit(EventRunFailed, stage, map[string]any{
		"error": cause.Error(),
	})
	close(run.events)

	o.logger.Error("run failed",
		zap.String("run_id", run.ID),
		zap.String("stage", stage),
		zap.Error(cause))
	return result
}
