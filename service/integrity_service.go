package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/caovinh/manual-rag-be/types"
)

// IntegrityStore is the read-only slice of the chunk store the checker needs.
type IntegrityStore interface {
	AllDocuments(ctx context.Context) ([]types.Document, error)
	GetChunksByDocument(ctx context.Context, documentID int64) ([]types.Chunk, error)
	OrphanChunks(ctx context.Context) ([]int64, error)
}

// IntegrityService scans the chunk store for inconsistencies. It never
// mutates anything and reports data problems as violations, returning an
// error only when the store itself cannot be read.
type IntegrityService struct {
	store IntegrityStore
}

func NewIntegrityService(store IntegrityStore) *IntegrityService {
	return &IntegrityService{store: store}
}

// Check verifies that every chunk references an existing document, that
// ordinals per document have no gaps or duplicates, and that no chunk has
// empty text.
func (s *IntegrityService) Check(ctx context.Context) ([]types.IntegrityViolation, error) {
	var violations []types.IntegrityViolation

	orphans, err := s.store.OrphanChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning for orphan chunks: %w", err)
	}
	for _, id := range orphans {
		violations = append(violations, types.IntegrityViolation{
			Kind:    types.ViolationOrphanChunk,
			ChunkID: id,
			Detail:  "chunk references a missing document",
		})
	}

	docs, err := s.store.AllDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	for _, doc := range docs {
		chunks, err := s.store.GetChunksByDocument(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("reading chunks for document %d: %w", doc.ID, err)
		}
		violations = append(violations, checkDocument(doc, chunks)...)
	}

	return violations, nil
}

// checkDocument validates one document's chunk sequence. Chunks arrive in
// ordinal order from the store.
func checkDocument(doc types.Document, chunks []types.Chunk) []types.IntegrityViolation {
	var violations []types.IntegrityViolation

	if len(chunks) == 0 {
		violations = append(violations, types.IntegrityViolation{
			Kind:       types.ViolationEmptyDocument,
			DocumentID: doc.ID,
			Detail:     fmt.Sprintf("document %q has no chunks", doc.Filename),
		})
		return violations
	}

	expected := 0
	for _, chunk := range chunks {
		switch {
		case chunk.Ordinal == expected:
			expected++
		case chunk.Ordinal < expected:
			violations = append(violations, types.IntegrityViolation{
				Kind:       types.ViolationDuplicateOrdinal,
				DocumentID: doc.ID,
				ChunkID:    chunk.ID,
				Detail:     fmt.Sprintf("ordinal %d repeats in document %q", chunk.Ordinal, doc.Filename),
			})
		default:
			violations = append(violations, types.IntegrityViolation{
				Kind:       types.ViolationOrdinalGap,
				DocumentID: doc.ID,
				ChunkID:    chunk.ID,
				Detail: fmt.Sprintf("ordinal jumps from %d to %d in document %q",
					expected-1, chunk.Ordinal, doc.Filename),
			})
			expected = chunk.Ordinal + 1
		}

		if strings.TrimSpace(chunk.Text) == "" {
			violations = append(violations, types.IntegrityViolation{
				Kind:       types.ViolationEmptyText,
				DocumentID: doc.ID,
				ChunkID:    chunk.ID,
				Detail:     fmt.Sprintf("chunk %d of document %q has empty text", chunk.Ordinal, doc.Filename),
			})
		}
	}

	return violations
}
