package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate())
	return store
}

func TestSeedDefaults(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Seed(ctx, ""))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// Seeding again leaves the corpus untouched
	require.NoError(t, store.Seed(ctx, ""))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestSeedFromFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedFile := filepath.Join(t.TempDir(), "seed.yaml")
	seed := `- id: doc-1
  source: custom
  content: Custom knowledge entry about password rotation policy.
- id: doc-2
  source: custom
  content: Another custom entry covering enterprise onboarding steps.
`
	require.NoError(t, os.WriteFile(seedFile, []byte(seed), 0644))

	require.NoError(t, store.Seed(ctx, seedFile))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestAddValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Add(ctx, Document{ID: "", Content: "long enough content for the store"})
	assert.ErrorIs(t, err, ErrInvalidDocument)

	err = store.Add(ctx, Document{ID: "doc-1", Content: "short"})
	assert.ErrorIs(t, err, ErrInvalidDocument)

	// Default source applied
	require.NoError(t, store.Add(ctx, Document{ID: "doc-1", Content: "long enough content for the store"}))
	snippets, err := store.Retrieve(ctx, "content store", 5)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "internal", snippets[0].Source)
}

func TestAddUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, Document{ID: "doc-1", Source: "a", Content: "original document body about invoices"}))
	require.NoError(t, store.Add(ctx, Document{ID: "doc-1", Source: "b", Content: "replacement document body about invoices"}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	snippets, err := store.Retrieve(ctx, "replacement invoices", 5)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "b", snippets[0].Source)
}

func TestRetrieveRanking(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, ""))

	snippets, err := store.Retrieve(ctx, "customer reports account breach", 5)
	require.NoError(t, err)
	require.NotEmpty(t, snippets)

	// Security runbook should rank first for a breach query
	assert.Equal(t, "kb-3", snippets[0].DocID)

	// Descending score order within [0,1]
	for i, s := range snippets {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 1.0)
		if i > 0 {
			assert.GreaterOrEqual(t, snippets[i-1].Score, s.Score)
		}
	}
}

func TestRetrieveTopKBounds(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, ""))

	_, err := store.Retrieve(ctx, "billing", 0)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = store.Retrieve(ctx, "billing", -3)
	assert.ErrorIs(t, err, ErrInvalidTopK)

	snippets, err := store.Retrieve(ctx, "support tickets billing sla", 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(snippets), 1)
}

func TestRetrieveNoMatches(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Seed(ctx, ""))

	snippets, err := store.Retrieve(ctx, "zzzqqq xyzzy", 5)
	require.NoError(t, err)
	assert.Empty(t, snippets)
}

func TestTokenizeDropsShortTokens(t *testing.T) {
	tokens := tokenize("An SSO fix is up")
	_, hasSSO := tokens["sso"]
	_, hasAn := tokens["an"]
	_, hasFix := tokens["fix"]
	assert.True(t, hasSSO)
	assert.True(t, hasFix)
	assert.False(t, hasAn)
}
