package ticket

import (
	"errors"
	"fmt"
	"strings"
)

// Urgency represents a triage urgency tier
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyRank = map[Urgency]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// Valid returns whether u is one of the four known tiers
func (u Urgency) Valid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// Rank returns the severity order of the tier (low=0 .. critical=3)
func (u Urgency) Rank() int {
	return urgencyRank[u]
}

// AtLeast returns whether u is at least as severe as other
func (u Urgency) AtLeast(other Urgency) bool {
	return urgencyRank[u] >= urgencyRank[other]
}

// Ticket errors
var ErrInvalidTicket = errors.New("invalid ticket")

// MinMessageLength is the minimum accepted ticket body length
const MinMessageLength = 8

// Ticket is the immutable input to a swarm run. It is created once per
// request and read-only thereafter.
type Ticket struct {
	ID            string            `json:"ticket_id"`
	CustomerName  string            `json:"customer_name"`
	Company       string            `json:"company"`
	Message       string            `json:"message"`
	PreferredTone string            `json:"preferred_tone,omitempty"`
	UrgencyHint   string            `json:"urgency_hint,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// Validate checks the caller-supplied fields before any stage executes
func (t *Ticket) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: ticket_id is required", ErrInvalidTicket)
	}
	if strings.TrimSpace(t.CustomerName) == "" {
		return fmt.Errorf("%w: customer_name is required", ErrInvalidTicket)
	}
	if len(strings.TrimSpace(t.Message)) < MinMessageLength {
		return fmt.Errorf("%w: message must be at least %d characters", ErrInvalidTicket, MinMessageLength)
	}
	return nil
}
