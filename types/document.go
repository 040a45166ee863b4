package types

// Document is a source manual that has been ingested into the chunk store.
type Document struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	IngestedAt int64  `json:"ingested_at"`
	PageCount  int    `json:"page_count"`
}

// Chunk is the atomic unit of retrieval: a bounded span of text from a
// document page, optionally carrying vision-derived text and an embedding.
type Chunk struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Page       int       `json:"page"`
	Ordinal    int       `json:"ordinal"`
	Text       string    `json:"text"`
	ImageText  string    `json:"image_text,omitempty"`
	Embedding  []float32 `json:"-"`
}

// ScoredChunk is a chunk returned by a search, joined with its document
// filename and annotated with the relevance score of the strategy that
// produced it.
type ScoredChunk struct {
	Chunk
	Document string  `json:"document"`
	Score    float64 `json:"score"`
}

// PageContent is one page produced by the PDF extractor.
type PageContent struct {
	Page   int      // 1-based page number
	Text   string   // extracted text, cleaned
	Images [][]byte // rendered page PNGs, populated only when requested
}

// DocumentServiceConfig contains configuration options for PDF processing
type DocumentServiceConfig struct {
	ChunkSize     int  // Maximum size for text chunks, in characters
	ChunkOverlap  int  // Overlap between consecutive chunks, in characters
	IncludeImages bool // Whether page images are rendered for vision extraction
}

// IngestFailure records one document that could not be ingested.
type IngestFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// IngestReport summarizes a batch ingestion run.
type IngestReport struct {
	Succeeded []string        `json:"succeeded"`
	Failed    []IngestFailure `json:"failed"`
}

// OK reports whether every document in the batch was ingested.
func (r IngestReport) OK() bool {
	return len(r.Failed) == 0
}

// IntegrityViolation is a single consistency problem found by the checker.
// Violations are data, not errors: the checker reports them and keeps going.
type IntegrityViolation struct {
	Kind       string `json:"kind"`
	DocumentID int64  `json:"document_id,omitempty"`
	ChunkID    int64  `json:"chunk_id,omitempty"`
	Detail     string `json:"detail"`
}

// Violation kinds reported by the integrity checker.
const (
	ViolationOrphanChunk      = "orphan_chunk"
	ViolationOrdinalGap       = "ordinal_gap"
	ViolationDuplicateOrdinal = "duplicate_ordinal"
	ViolationEmptyText        = "empty_text"
	ViolationEmptyDocument    = "empty_document"
)
