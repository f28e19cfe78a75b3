package knowledge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Retrieval errors
var ErrInvalidTopK = errors.New("topK must be a positive integer")

// Snippet is one ranked retrieval hit. Score is a similarity measure in
// [0,1], and results are ordered descending by score.
type Snippet struct {
	DocID  string  `json:"doc_id"`
	Source string  `json:"source"`
	Text   string  `json:"text"`
	Score  float64 `json:"score"`
}

// Document is one corpus entry
type Document struct {
	ID      string `yaml:"id" json:"doc_id"`
	Source  string `yaml:"source" json:"source"`
	Content string `yaml:"content" json:"content"`
}

// Retriever is the read capability the pipeline stages consume
type Retriever interface {
	Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error)
}

// Store is the sqlite-backed knowledge corpus
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the corpus database at the given path
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate creates the documents table
func (s *Store) Migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		return fmt.Errorf("failed to run migration: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Add upserts a document into the corpus
func (s *Store) Add(ctx context.Context, doc Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return fmt.Errorf("%w: document id is required", ErrInvalidDocument)
	}
	if len(strings.TrimSpace(doc.Content)) < MinContentLength {
		return fmt.Errorf("%w: content must be at least %d characters", ErrInvalidDocument, MinContentLength)
	}
	if doc.Source == "" {
		doc.Source = "internal"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, source, content) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET source = excluded.source, content = excluded.content`,
		doc.ID, doc.Source, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to add document %s: %w", doc.ID, err)
	}
	return nil
}

// Count returns the number of documents in the corpus
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Retrieve returns up to topK snippets ranked by token-overlap similarity,
// descending. An empty corpus yields an empty result, not an error.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]Snippet, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTopK, topK)
	}

	queryTokens := tokenize(query)

	rows, err := s.db.QueryContext(ctx, `SELECT id, source, content FROM documents ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	snippets := make([]Snippet, 0)
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Source, &doc.Content); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		score := overlapScore(queryTokens, tokenize(doc.Content))
		if score <= 0 {
			continue
		}
		snippets = append(snippets, Snippet{
			DocID:  doc.ID,
			Source: doc.Source,
			Text:   doc.Content,
			Score:  score,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	// Stable order: score descending, doc id as tie-break
	sort.SliceStable(snippets, func(i, j int) bool {
		if snippets[i].Score != snippets[j].Score {
			return snippets[i].Score > snippets[j].Score
		}
		return snippets[i].DocID < snippets[j].DocID
	})

	if len(snippets) > topK {
		snippets = snippets[:topK]
	}
	return snippets, nil
}

// tokenize lowercases text and splits it into distinct alphanumeric tokens,
// dropping tokens shorter than 3 runes
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		tokens[f] = struct{}{}
	}
	return tokens
}

// overlapScore is |query ∩ doc| / |query|, bounded in [0,1]
func overlapScore(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	matched := 0
	for token := range query {
		if _, ok := doc[token]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(query))
}
