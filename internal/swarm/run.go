package swarm

import (
	"sync"
	"time"

	"github.com/calebhsu/swarmdesk/internal/gateway"
	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// EventType enumerates run lifecycle events
type EventType string

const (
	EventRunStarted     EventType = "run_started"
	EventStageCompleted EventType = "stage_completed"
	EventStageDegraded  EventType = "stage_degraded"
	EventRunCompleted   EventType = "run_completed"
	EventRunFailed      EventType = "run_failed"
)

// Event is one run lifecycle notification
type Event struct {
	RunID     string         `json:"run_id"`
	Type      EventType      `json:"type"`
	Stage     string         `json:"stage,omitempty"`
	State     State          `json:"state"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Run owns the mutable state of one ticket's trip through the pipeline.
// Each run is isolated: its stage results accumulator and tool-descriptor
// session are not shared with other runs. The pipeline goroutine writes the
// run's state; concurrent readers go through the locked accessors.
type Run struct {
	ID        string
	TicketID  string
	StartedAt time.Time

	ticket ticket.Ticket
	tools  *gateway.Session // nil when no gateway is configured
	events chan Event

	mu          sync.RWMutex
	state       State
	completedAt *time.Time
	result      *SwarmResult
}

// RunView is a point-in-time snapshot of a run's lifecycle state, safe to
// serialize while the run is still executing
type RunView struct {
	ID          string     `json:"id"`
	TicketID    string     `json:"ticket_id"`
	State       State      `json:"state"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Snapshot returns a consistent view of the run's current lifecycle state
func (r *Run) Snapshot() RunView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RunView{
		ID:          r.ID,
		TicketID:    r.TicketID,
		State:       r.state,
		StartedAt:   r.StartedAt,
		CompletedAt: r.completedAt,
	}
}

// State returns the run's current lifecycle state
func (r *Run) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

// CompletedAt returns the run's termination time; nil while it is running
func (r *Run) CompletedAt() *time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.completedAt
}

// Events returns the run's event stream. The channel is closed when the run
// reaches a terminal state.
func (r *Run) Events() <-chan Event {
	return r.events
}

// Result returns the run's aggregate result; nil until the run terminates
func (r *Run) Result() *SwarmResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.result
}

// setState records a stage transition
func (r *Run) setState(state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// finish records the terminal state, timestamp, and aggregate result in one
// critical section
func (r *Run) finish(state State, done time.Time, result *SwarmResult) {
	r.mu.Lock()
	r.state = state
	r.completedAt = &done
	r.result = result
	r.mu.Unlock()
}

// emit sends a lifecycle event without blocking the pipeline
func (r *Run) emit(eventType EventType, stage string, data map[string]any) {
	select {
	case r.events <- Event{
		RunID:     r.ID,
		Type:      eventType,
		Stage:     stage,
		State:     r.State(),
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// Channel full, skip
	}
}
