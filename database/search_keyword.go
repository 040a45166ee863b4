package database

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/caovinh/manual-rag-be/types"
)

// KeywordSearcher ranks chunks with the FTS5 index using bm25. This is the
// default strategy: it needs no external calls and no embedding step.
type KeywordSearcher struct {
	store *Store
}

var _ Searcher = (*KeywordSearcher)(nil)

func NewKeywordSearcher(store *Store) *KeywordSearcher {
	return &KeywordSearcher{store: store}
}

// Search returns at most limit chunks ordered by ascending bm25 (best match
// first). The exposed score is negated bm25 so that higher is better, the
// same orientation the vector strategy uses.
func (s *KeywordSearcher) Search(ctx context.Context, query string, limit int) ([]types.ScoredChunk, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT c.id, c.document_id, c.page, c.ordinal, c.text, c.image_text, d.filename,
		       bm25(chunks_fts) AS rank
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN documents d ON d.id = c.document_id
		WHERE chunks_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []types.ScoredChunk
	for rows.Next() {
		var sc types.ScoredChunk
		var rank float64
		if err := rows.Scan(&sc.ID, &sc.DocumentID, &sc.Page, &sc.Ordinal,
			&sc.Text, &sc.ImageText, &sc.Document, &rank); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		sc.Score = -rank
		results = append(results, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// ftsQuery rewrites free text into an FTS5 MATCH expression. Each word is
// quoted so user punctuation cannot reach the FTS query parser, and words
// are OR'd so a question only needs to share some terms with a chunk.
func ftsQuery(query string) string {
	words := strings.FieldsFunc(query, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		return ""
	}
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, `"`+w+`"`)
	}
	return strings.Join(quoted, " OR ")
}
