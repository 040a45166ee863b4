package service

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caovinh/manual-rag-be/database"
	"github.com/caovinh/manual-rag-be/types"
)

// NoDocumentationAnswer is the designated answer when retrieval finds
// nothing. Returning it is a valid terminal outcome, not an error.
const NoDocumentationAnswer = "No relevant documentation was found for this question."

const answerSystemPrompt = "You are a technical assistant answering questions about service manuals. " +
	"Answer using only the numbered manual excerpts provided. " +
	"Cite every excerpt you rely on by its number in square brackets, e.g. [1]. " +
	"If the excerpts do not contain the answer, say so plainly."

// QueryService answers one question at a time: retrieve top-k chunks from
// the store, hand them with the question to the language model, and map the
// excerpts the model cited back to document/page references. The query path
// never writes, so cancelling an in-flight request is always safe.
type QueryService struct {
	searcher database.Searcher
	ai       AIService
	topK     int
	timeout  time.Duration
}

func NewQueryService(searcher database.Searcher, ai AIService, topK int, timeout time.Duration) *QueryService {
	if topK <= 0 {
		topK = 5
	}
	return &QueryService{
		searcher: searcher,
		ai:       ai,
		topK:     topK,
		timeout:  timeout,
	}
}

// Answer resolves a question against the chunk store. Failures come back as
// *types.QueryError with a retrieval or generation kind; the caller never
// sees a partial answer.
func (s *QueryService) Answer(ctx context.Context, question string) (*types.QueryResponse, error) {
	chunks, err := s.searcher.Search(ctx, question, s.topK)
	if err != nil {
		return nil, types.NewRetrievalError(err)
	}

	if len(chunks) == 0 {
		return &types.QueryResponse{
			Answer:     NoDocumentationAnswer,
			References: []types.Reference{},
		}, nil
	}

	prompt := buildPrompt(question, chunks)

	// Chunk data is already fetched; the store is not touched while the
	// model call is in flight.
	genCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	answer, err := s.ai.Chat(genCtx, answerSystemPrompt, []types.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return nil, types.NewGenerationError(err)
	}

	return &types.QueryResponse{
		Answer:     answer,
		References: citedReferences(answer, chunks),
	}, nil
}

// buildPrompt lays out the question followed by numbered excerpts labelled
// with their document and page so the model can cite them.
func buildPrompt(question string, chunks []types.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\nManual excerpts:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "\n[%d] %s, page %d:\n%s\n", i+1, chunk.Document, chunk.Page, chunk.Text)
		if chunk.ImageText != "" {
			fmt.Fprintf(&sb, "(figures on this page: %s)\n", chunk.ImageText)
		}
	}
	return sb.String()
}

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// citedReferences maps the [n] citations in the answer back to chunk
// metadata. If the model cited nothing recognisable, every retrieved chunk
// is referenced so the caller can still verify the answer.
func citedReferences(answer string, chunks []types.ScoredChunk) []types.Reference {
	seen := make(map[int]bool)
	var refs []types.Reference
	for _, match := range citationPattern.FindAllStringSubmatch(answer, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n < 1 || n > len(chunks) || seen[n] {
			continue
		}
		seen[n] = true
		chunk := chunks[n-1]
		refs = append(refs, types.Reference{
			Document: chunk.Document,
			Page:     chunk.Page,
			ChunkID:  chunk.ID,
		})
	}

	if len(refs) == 0 {
		for _, chunk := range chunks {
			refs = append(refs, types.Reference{
				Document: chunk.Document,
				Page:     chunk.Page,
				ChunkID:  chunk.ID,
			})
		}
	}
	return refs
}
