package knowledge

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document errors
var ErrInvalidDocument = errors.New("invalid document")

// MinContentLength is the minimum accepted document body length
const MinContentLength = 20

// defaultDocuments is the built-in demo corpus seeded when the store is
// empty and no seed file is configured
var defaultDocuments = []Document{
	{
		ID:      "kb-1",
		Source:  "playbook",
		Content: "Password reset issues are usually solved by clearing SSO cache and retrying after 5 minutes.",
	},
	{
		ID:      "kb-2",
		Source:  "billing-policy",
		Content: "Billing disputes above 5000 USD must be routed to billing_specialist with invoice references.",
	},
	{
		ID:      "kb-3",
		Source:  "security-runbook",
		Content: "If a customer reports suspected account breach, escalate to security_specialist immediately.",
	},
	{
		ID:      "kb-4",
		Source:  "sla-policy",
		Content: "Enterprise support SLA: critical tickets target 1 hour, high 4 hours, medium 24, low 72.",
	},
}

// Seed populates an empty corpus. When seedFile is non-empty it is read as a
// YAML document list, otherwise the built-in defaults are used. A non-empty
// corpus is left untouched.
func (s *Store) Seed(ctx context.Context, seedFile string) error {
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	docs := defaultDocuments
	if seedFile != "" {
		docs, err = loadSeedFile(seedFile)
		if err != nil {
			return err
		}
	}

	for _, doc := range docs {
		if err := s.Add(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

// loadSeedFile parses a YAML list of {id, source, content} entries
func loadSeedFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var docs []Document
	if err := yaml.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return docs, nil
}
