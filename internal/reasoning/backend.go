package reasoning

import (
	"context"
	"errors"
)

// Backend errors. Stage runners classify failures with errors.Is to decide
// whether a local fallback applies.
var (
	ErrBackendUnavailable = errors.New("reasoning backend unavailable")
	ErrMalformedOutput    = errors.New("reasoning backend returned malformed output")
)

// Stage names understood by every backend
const (
	StageTriage     = "triage"
	StageResearch   = "research"
	StageResponse   = "response"
	StageEscalation = "escalation"
)

// Output is the structured payload a backend returns for one stage call
type Output map[string]any

// String returns the named field when it is a non-empty string
func (o Output) String(key string) (string, bool) {
	s, ok := o[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Float returns the named field when it is a number
func (o Output) Float(key string) (float64, bool) {
	switch v := o[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// StringSlice returns the named field coerced to a slice of strings
func (o Output) StringSlice(key string) ([]string, bool) {
	switch v := o[key].(type) {
	case []string:
		return v, len(v) > 0
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out, len(out) > 0
	}
	return nil, false
}

// Backend answers one stage-scoped inference request. Implementations must
// return outputs shaped for the named stage or a classified error.
type Backend interface {
	// Name returns the backend name (e.g., "openai", "fallback")
	Name() string

	// Infer produces a structured output for the given stage and context
	Infer(ctx context.Context, stage string, payload map[string]any) (Output, error)
}
