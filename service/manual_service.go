package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/caovinh/manual-rag-be/database"
	"github.com/caovinh/manual-rag-be/types"
	"github.com/caovinh/manual-rag-be/utils"
)

// DocumentProcessor turns a PDF on disk into per-page records and chunks.
type DocumentProcessor interface {
	ExtractPages(filePath string, withImages bool) ([]types.PageContent, error)
	ChunkPages(pages []types.PageContent) []types.Chunk
}

// ManualService orchestrates ingestion: extract pages, merge vision
// descriptions, chunk, and write each document's chunks to the store in one
// atomic replace. One failed document never aborts the rest of a batch.
type ManualService struct {
	store     database.ChunkStore
	pdf       DocumentProcessor
	vision    *VisionService    // nil when vision extraction is disabled
	embedder  database.Embedder // nil under the keyword search strategy
	uploadDir string            // where a permanent copy of each PDF is kept
}

func NewManualService(
	store database.ChunkStore,
	pdf DocumentProcessor,
	vision *VisionService,
	embedder database.Embedder,
	uploadDir string,
) *ManualService {
	return &ManualService{
		store:     store,
		pdf:       pdf,
		vision:    vision,
		embedder:  embedder,
		uploadDir: uploadDir,
	}
}

// IngestDocument processes one PDF and replaces its chunks in the store.
// Vision and embedding calls all happen before the store write, so no
// transaction is ever held open across an external call.
func (s *ManualService) IngestDocument(ctx context.Context, path string) (*types.Document, error) {
	pages, err := s.pdf.ExtractPages(path, s.vision != nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}

	if s.vision != nil {
		s.mergeVisionText(ctx, pages)
	}

	chunks := s.pdf.ChunkPages(pages)
	if len(chunks) == 0 {
		// Scanned pages where OCR also came up empty. Storing a document
		// with no chunks would leave a row nothing can ever retrieve.
		return nil, fmt.Errorf("%w: %s: no extractable text on any page",
			types.ErrExtraction, filepath.Base(path))
	}

	if s.embedder != nil {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embedding chunks: %v", types.ErrExtraction, err)
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}
	}

	if s.uploadDir != "" {
		if _, err := utils.CopyFileWithTimestamp(path, s.uploadDir); err != nil {
			return nil, fmt.Errorf("%w: keeping source copy: %v", types.ErrStoreWrite, err)
		}
	}

	doc := &types.Document{
		Filename:   filepath.Base(path),
		IngestedAt: time.Now().Unix(),
		PageCount:  len(pages),
	}
	if _, err := s.store.PutDocument(ctx, doc, chunks); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrStoreWrite, err)
	}

	log.Printf("Ingested %s: %d pages, %d chunks", doc.Filename, doc.PageCount, len(chunks))
	return doc, nil
}

// IngestBatch processes every path, collecting per-document failures instead
// of stopping at the first one.
func (s *ManualService) IngestBatch(ctx context.Context, paths []string) types.IngestReport {
	var report types.IngestReport
	for _, path := range paths {
		if _, err := s.IngestDocument(ctx, path); err != nil {
			log.Printf("Failed to ingest %s: %v", path, err)
			report.Failed = append(report.Failed, types.IngestFailure{
				File:   path,
				Reason: err.Error(),
			})
			continue
		}
		report.Succeeded = append(report.Succeeded, path)
	}
	return report
}

// mergeVisionText appends model descriptions of each page's images to that
// page's text. A vision failure skips the page's images, it does not fail
// the document.
func (s *ManualService) mergeVisionText(ctx context.Context, pages []types.PageContent) {
	for i := range pages {
		for _, img := range pages[i].Images {
			desc, err := s.vision.DescribePage(ctx, img)
			if err != nil {
				log.Printf("Warning: vision extraction failed for page %d: %v", pages[i].Page, err)
				continue
			}
			if desc == "" {
				continue
			}
			if pages[i].Text != "" {
				pages[i].Text += "\n"
			}
			pages[i].Text += desc
		}
	}
}
