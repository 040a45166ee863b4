package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caovinh/manual-rag-be/service"
	"github.com/caovinh/manual-rag-be/types"
)

type stubSearcher struct {
	results []types.ScoredChunk
	err     error
}

func (s *stubSearcher) Search(context.Context, string, int) ([]types.ScoredChunk, error) {
	return s.results, s.err
}

type stubAI struct {
	answer string
	err    error
}

func (s *stubAI) Chat(context.Context, string, []types.Message) (string, error) {
	return s.answer, s.err
}

func newTestHandler(searcher *stubSearcher, ai *stubAI) http.Handler {
	qs := service.NewQueryService(searcher, ai, 5, time.Second)
	return NewQueryHandler(qs).HandleQuery()
}

func postQuery(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/query", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var resp types.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHandleQuery_Success(t *testing.T) {
	searcher := &stubSearcher{results: []types.ScoredChunk{{
		Chunk:    types.Chunk{ID: 3, Page: 42, Text: "Remove the caliper bolts."},
		Document: "BrakeManual.pdf",
	}}}
	h := newTestHandler(searcher, &stubAI{answer: "Remove the bolts [1]."})

	rec := postQuery(t, h, `{"question":"how do I replace the brake pads?"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp types.QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Remove the bolts [1].", resp.Answer)
	require.Len(t, resp.References, 1)
	assert.Equal(t, "BrakeManual.pdf", resp.References[0].Document)
	assert.Equal(t, 42, resp.References[0].Page)
}

func TestHandleQuery_NoDocumentsIsStillOK(t *testing.T) {
	h := newTestHandler(&stubSearcher{}, &stubAI{})

	rec := postQuery(t, h, `{"question":"anything at all"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.QueryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, service.NoDocumentationAnswer, resp.Answer)
	assert.Empty(t, resp.References)
}

func TestHandleQuery_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(&stubSearcher{}, &stubAI{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/query", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, types.ErrorKindBadRequest, decodeError(t, rec).ErrorKind)
}

func TestHandleQuery_InvalidBody(t *testing.T) {
	h := newTestHandler(&stubSearcher{}, &stubAI{})

	rec := postQuery(t, h, `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, types.ErrorKindBadRequest, decodeError(t, rec).ErrorKind)
}

func TestHandleQuery_EmptyQuestion(t *testing.T) {
	h := newTestHandler(&stubSearcher{}, &stubAI{})

	rec := postQuery(t, h, `{"question":"   "}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, types.ErrorKindBadRequest, decodeError(t, rec).ErrorKind)
}

func TestHandleQuery_RetrievalFailure(t *testing.T) {
	h := newTestHandler(&stubSearcher{err: errors.New("database is locked")}, &stubAI{})

	rec := postQuery(t, h, `{"question":"brake pads"}`)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, types.ErrorKindRetrieval, decodeError(t, rec).ErrorKind)
}

func TestHandleQuery_GenerationFailure(t *testing.T) {
	searcher := &stubSearcher{results: []types.ScoredChunk{{
		Chunk:    types.Chunk{ID: 1, Page: 1, Text: "something"},
		Document: "a.pdf",
	}}}
	h := newTestHandler(searcher, &stubAI{err: errors.New("model unavailable")})

	rec := postQuery(t, h, `{"question":"brake pads"}`)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, types.ErrorKindGeneration, decodeError(t, rec).ErrorKind)
}
