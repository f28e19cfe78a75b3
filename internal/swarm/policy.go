package swarm

import (
	"strings"
	"time"

	"github.com/calebhsu/swarmdesk/internal/ticket"
)

// Fixed pipeline policies. The source system documents these as illustrative
// values; they are configuration constants here, not inferred behavior.

// SLA response offsets keyed by urgency tier
var slaOffsets = map[ticket.Urgency]time.Duration{
	ticket.UrgencyCritical: 1 * time.Hour,
	ticket.UrgencyHigh:     4 * time.Hour,
	ticket.UrgencyMedium:   24 * time.Hour,
	ticket.UrgencyLow:      72 * time.Hour,
}

const (
	// DefaultTopK is the number of snippets requested per research query
	DefaultTopK = 5

	// DefaultEvidenceThreshold is the minimum top-snippet score for research
	// evidence to count as sufficient
	DefaultEvidenceThreshold = 0.40

	// DefaultTone is used when the ticket carries no preferred tone
	DefaultTone = "neutral"
)

// Next actions seeded from the triage tier. Critical and high tiers always
// include the specialist review action.
const (
	actionAcknowledge      = "Acknowledge the issue and provide the immediate next step."
	actionShareETA         = "Share an ETA based on the assigned SLA."
	actionOfferWorkaround  = "Offer a fallback workaround if available."
	actionSpecialistReview = "Queue the ticket for specialist review."

	// Mandatory follow-up attached to high-urgency auto-resolutions
	followUpCheckIn = "Schedule a follow-up check-in before the SLA deadline."
)

// Keyword sets used to locate gateway tools by descriptor
var (
	researchToolKeywords = []string{"web", "search", "knowledge"}
	notifyToolKeywords   = []string{"notify", "email", "slack", "ticket", "update"}
)

// Escalation targets
const (
	targetHumanSupportLead   = "human_support_lead"
	targetSecuritySpecialist = "security_specialist"
	targetBillingSpecialist  = "billing_specialist"
	targetSupportSpecialist  = "support_specialist"
)

// decide applies the escalation decision table in order; the first matching
// rule wins. The table is a pure function of (urgency, evidenceSufficient,
// message topic) so repeated runs with identical inputs reproduce the same
// decision.
func decide(urgency ticket.Urgency, evidenceSufficient bool, message string) (Decision, string, string) {
	switch {
	case urgency == ticket.UrgencyCritical:
		return DecisionHumanHandoff, targetHumanSupportLead, ""
	case urgency == ticket.UrgencyHigh && !evidenceSufficient:
		return DecisionSpecialistHandoff, specialistTarget(message), ""
	case urgency == ticket.UrgencyHigh:
		return DecisionAutoResolve, "", followUpCheckIn
	default:
		return DecisionAutoResolve, "", ""
	}
}

// specialistTarget routes specialist handoffs by ticket topic
func specialistTarget(message string) string {
	lowered := strings.ToLower(message)
	switch {
	case strings.Contains(lowered, "security") || strings.Contains(lowered, "breach"):
		return targetSecuritySpecialist
	case strings.Contains(lowered, "billing") || strings.Contains(lowered, "invoice") || strings.Contains(lowered, "refund"):
		return targetBillingSpecialist
	default:
		return targetSupportSpecialist
	}
}

// seedNextActions builds the recommended action list for a triage tier
func seedNextActions(urgency ticket.Urgency) []string {
	actions := []string{actionAcknowledge, actionShareETA, actionOfferWorkaround}
	if urgency.AtLeast(ticket.UrgencyHigh) {
		actions = append(actions, actionSpecialistReview)
	}
	return actions
}
