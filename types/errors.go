package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ingestion path. Per-document failures wrap one of
// these; a batch collects them and keeps going.
var (
	// ErrUnreadablePDF marks a source file that is corrupt, encrypted or
	// otherwise not parseable as a PDF.
	ErrUnreadablePDF = errors.New("unreadable pdf")

	// ErrExtraction marks a failure while extracting text or images from a
	// readable PDF.
	ErrExtraction = errors.New("extraction failed")

	// ErrStoreWrite marks a failure while persisting a document's chunks.
	ErrStoreWrite = errors.New("store write failed")

	// ErrNotFound is returned by store lookups for missing rows.
	ErrNotFound = errors.New("not found")
)

// Error kinds surfaced by the query API as the error_kind field.
const (
	ErrorKindBadRequest = "bad_request"
	ErrorKindRetrieval  = "retrieval_error"
	ErrorKindGeneration = "generation_error"
)

// QueryError is a structured failure of a single query request. It is always
// surfaced to the caller as an explicit error object, never as a partial or
// fabricated answer.
type QueryError struct {
	Kind    string `json:"error_kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *QueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *QueryError) Unwrap() error { return e.Err }

// NewRetrievalError wraps a chunk store failure during the query path.
func NewRetrievalError(err error) *QueryError {
	return &QueryError{Kind: ErrorKindRetrieval, Message: "document store unavailable", Err: err}
}

// NewGenerationError wraps an external model failure or timeout.
func NewGenerationError(err error) *QueryError {
	return &QueryError{Kind: ErrorKindGeneration, Message: "answer generation failed", Err: err}
}
