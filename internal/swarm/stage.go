package swarm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calebhsu/swarmdesk/internal/reasoning"
	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// stageRunner resolves one reasoning call with the degrade-to-fallback
// policy: a configured live backend is tried first, and any live failure is
// recovered by the deterministic fallback for that single stage call. Only a
// fallback failure is fatal.
type stageRunner struct {
	live     reasoning.Backend // nil when no credential is configured
	fallback reasoning.Backend
	logger   *zap.Logger
}

// infer returns the stage output and whether a degradation occurred. A
// degradation is recorded only when the live backend was configured and its
// answer could not be used.
func (r *stageRunner) infer(ctx context.Context, stage string, payload map[string]any) (reasoning.Output, bool, error) {
	if r.live == nil {
		out, err := r.fallback.Infer(ctx, stage, payload)
		if err != nil {
			return nil, false, fmt.Errorf("%w: %s fallback: %v", ErrStageUnrecoverable, stage, err)
		}
		return out, false, nil
	}

	out, err := r.live.Infer(ctx, stage, payload)
	if err == nil {
		return out, false, nil
	}

	r.logger.Warn("live backend degraded to fallback",
		zap.String("stage", stage),
		zap.String("backend", r.live.Name()),
		zap.Error(err))

	out, ferr := r.fallback.Infer(ctx, stage, payload)
	if ferr != nil {
		return nil, true, fmt.Errorf("%w: %s fallback: %v", ErrStageUnrecoverable, stage, ferr)
	}
	return out, true, nil
}

// handoff is the accumulating context threaded through the pipeline. Each
// stage reads its predecessors' results from here and must find them
// populated.
type handoff struct {
	Ticket     ticket.Ticket
	Triage     *TriageResult
	Research   *ResearchResult
	Response   *ResponseResult
	Escalation *EscalationResult
}

// require asserts the handoff contract for a stage's predecessors
func (h *handoff) require(stage string, predecessors ...any) error {
	for _, p := range predecessors {
		switch v := p.(type) {
		case *TriageResult:
			if v != nil {
				continue
			}
		case *ResearchResult:
			if v != nil {
				continue
			}
		case *ResponseResult:
			if v != nil {
				continue
			}
		}
		return fmt.Errorf("%w: %s", ErrHandoffViolation, stage)
	}
	return nil
}
