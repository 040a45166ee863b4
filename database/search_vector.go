package database

import (
	"context"
	"fmt"

	"github.com/caovinh/manual-rag-be/types"
)

// VectorSearcher embeds the query and ranks stored chunks by cosine
// similarity. It requires chunks to have been embedded at ingestion time
// (search_strategy: vector makes the manual processor do that).
type VectorSearcher struct {
	store    *Store
	embedder Embedder
}

var _ Searcher = (*VectorSearcher)(nil)

func NewVectorSearcher(store *Store, embedder Embedder) *VectorSearcher {
	return &VectorSearcher{store: store, embedder: embedder}
}

func (s *VectorSearcher) Search(ctx context.Context, query string, limit int) ([]types.ScoredChunk, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embedder returned no vector for query")
	}
	return s.store.SearchByEmbedding(ctx, vectors[0], limit)
}
