package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caovinh/manual-rag-be/types"
)

type fakeSearcher struct {
	results []types.ScoredChunk
	err     error
	calls   int
}

func (f *fakeSearcher) Search(_ context.Context, _ string, limit int) ([]types.ScoredChunk, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.results) > limit {
		return f.results[:limit], nil
	}
	return f.results, nil
}

type fakeAI struct {
	answer string
	err    error
	prompt string
	calls  int
	block  bool // wait for ctx cancellation instead of answering
}

func (f *fakeAI) Chat(ctx context.Context, _ string, messages []types.Message) (string, error) {
	f.calls++
	if len(messages) > 0 {
		f.prompt = messages[len(messages)-1].Content
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.answer, f.err
}

func retrievedChunks() []types.ScoredChunk {
	return []types.ScoredChunk{
		{
			Chunk:    types.Chunk{ID: 11, Page: 42, Ordinal: 3, Text: "Remove the caliper bolts."},
			Document: "BrakeManual.pdf",
			Score:    9.1,
		},
		{
			Chunk:    types.Chunk{ID: 12, Page: 43, Ordinal: 4, Text: "Torque to 28 Nm.", ImageText: "caliper diagram"},
			Document: "BrakeManual.pdf",
			Score:    7.5,
		},
	}
}

func TestAnswer_NoResultsReturnsDesignatedAnswer(t *testing.T) {
	ai := &fakeAI{answer: "should never be used"}
	svc := NewQueryService(&fakeSearcher{}, ai, 5, time.Second)

	resp, err := svc.Answer(context.Background(), "how do I replace the brake pads?")
	require.NoError(t, err)
	assert.Equal(t, NoDocumentationAnswer, resp.Answer)
	assert.NotNil(t, resp.References)
	assert.Empty(t, resp.References)
	assert.Zero(t, ai.calls, "the model must not be called without excerpts")
}

func TestAnswer_MapsCitationsToReferences(t *testing.T) {
	ai := &fakeAI{answer: "Remove the bolts [1], then torque to 28 Nm [2]. See [2] again."}
	svc := NewQueryService(&fakeSearcher{results: retrievedChunks()}, ai, 5, time.Second)

	resp, err := svc.Answer(context.Background(), "brake pads?")
	require.NoError(t, err)

	require.Len(t, resp.References, 2)
	assert.Equal(t, types.Reference{Document: "BrakeManual.pdf", Page: 42, ChunkID: 11}, resp.References[0])
	assert.Equal(t, types.Reference{Document: "BrakeManual.pdf", Page: 43, ChunkID: 12}, resp.References[1])
}

func TestAnswer_UncitedAnswerReferencesAllChunks(t *testing.T) {
	ai := &fakeAI{answer: "Remove the bolts and torque them afterwards."}
	svc := NewQueryService(&fakeSearcher{results: retrievedChunks()}, ai, 5, time.Second)

	resp, err := svc.Answer(context.Background(), "brake pads?")
	require.NoError(t, err)
	assert.Len(t, resp.References, 2)
}

func TestAnswer_IgnoresOutOfRangeCitations(t *testing.T) {
	ai := &fakeAI{answer: "Torque to 28 Nm [2]. More detail in [7] and [0]."}
	svc := NewQueryService(&fakeSearcher{results: retrievedChunks()}, ai, 5, time.Second)

	resp, err := svc.Answer(context.Background(), "brake pads?")
	require.NoError(t, err)
	require.Len(t, resp.References, 1)
	assert.Equal(t, int64(12), resp.References[0].ChunkID)
}

func TestAnswer_PromptCarriesDocumentAndPage(t *testing.T) {
	ai := &fakeAI{answer: "ok [1]"}
	svc := NewQueryService(&fakeSearcher{results: retrievedChunks()}, ai, 5, time.Second)

	_, err := svc.Answer(context.Background(), "brake pads?")
	require.NoError(t, err)

	assert.Contains(t, ai.prompt, "brake pads?")
	assert.Contains(t, ai.prompt, "[1] BrakeManual.pdf, page 42:")
	assert.Contains(t, ai.prompt, "Remove the caliper bolts.")
	assert.Contains(t, ai.prompt, "caliper diagram")
}

func TestAnswer_SearcherFailureIsRetrievalError(t *testing.T) {
	svc := NewQueryService(&fakeSearcher{err: errors.New("disk gone")}, &fakeAI{}, 5, time.Second)

	_, err := svc.Answer(context.Background(), "anything")
	require.Error(t, err)

	var qerr *types.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, types.ErrorKindRetrieval, qerr.Kind)
}

func TestAnswer_ModelFailureIsGenerationError(t *testing.T) {
	ai := &fakeAI{err: errors.New("upstream 500")}
	svc := NewQueryService(&fakeSearcher{results: retrievedChunks()}, ai, 5, time.Second)

	_, err := svc.Answer(context.Background(), "brake pads?")
	require.Error(t, err)

	var qerr *types.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, types.ErrorKindGeneration, qerr.Kind)
}

func TestAnswer_ModelTimeoutIsGenerationError(t *testing.T) {
	ai := &fakeAI{block: true}
	svc := NewQueryService(&fakeSearcher{results: retrievedChunks()}, ai, 5, 20*time.Millisecond)

	_, err := svc.Answer(context.Background(), "brake pads?")
	require.Error(t, err)

	var qerr *types.QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, types.ErrorKindGeneration, qerr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAnswer_TopKDefaultsWhenUnset(t *testing.T) {
	searcher := &fakeSearcher{results: retrievedChunks()}
	svc := NewQueryService(searcher, &fakeAI{answer: "ok"}, 0, time.Second)
	assert.Equal(t, 5, svc.topK)
}
