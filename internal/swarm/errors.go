package swarm

import "errors"

// Orchestrator errors
var (
	ErrStageUnrecoverable = errors.New("stage failed beyond fallback recovery")
	ErrRunNotFound        = errors.New("run not found")
	ErrHandoffViolation   = errors.New("stage executed without its predecessor's result")
)
