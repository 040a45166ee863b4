package database

import (
	"context"

	"github.com/caovinh/manual-rag-be/types"
)

// ChunkStore owns the Document and Chunk rows. Ingestion writes through
// PutDocument only; the query path holds read-only references.
type ChunkStore interface {
	// PutDocument atomically replaces a document and all of its chunks.
	// A prior document with the same filename is deleted in the same
	// transaction, so re-ingestion never leaves duplicates or stale rows.
	PutDocument(ctx context.Context, doc *types.Document, chunks []types.Chunk) (int64, error)

	GetChunksByDocument(ctx context.Context, documentID int64) ([]types.Chunk, error)
	AllDocuments(ctx context.Context) ([]types.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
}

// Searcher ranks stored chunks against a free-text query. Concrete variants
// (keyword match, vector similarity) are selected once at startup by
// configuration, never at call time.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]types.ScoredChunk, error)
}

// Embedder turns texts into vectors for the vector search strategy.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
