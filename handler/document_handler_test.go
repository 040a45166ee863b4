package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caovinh/manual-rag-be/types"
)

type stubChunkStore struct {
	docs []types.Document
	err  error
}

func (s *stubChunkStore) PutDocument(context.Context, *types.Document, []types.Chunk) (int64, error) {
	return 0, nil
}

func (s *stubChunkStore) GetChunksByDocument(context.Context, int64) ([]types.Chunk, error) {
	return nil, nil
}

func (s *stubChunkStore) AllDocuments(context.Context) ([]types.Document, error) {
	return s.docs, s.err
}

func (s *stubChunkStore) DeleteDocument(context.Context, int64) error {
	return nil
}

func TestListDocuments(t *testing.T) {
	store := &stubChunkStore{docs: []types.Document{
		{ID: 1, Filename: "BrakeManual.pdf", IngestedAt: 1700000000, PageCount: 120},
	}}
	h := NewDocumentHandler(store, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	h.ListDocuments().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string           `json:"status"`
		Data   []types.Document `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "success", resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "BrakeManual.pdf", resp.Data[0].Filename)
}

func TestListDocuments_EmptyStoreIsEmptyList(t *testing.T) {
	h := NewDocumentHandler(&stubChunkStore{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	h.ListDocuments().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestListDocuments_StoreFailure(t *testing.T) {
	h := NewDocumentHandler(&stubChunkStore{err: errors.New("locked")}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	rec := httptest.NewRecorder()
	h.ListDocuments().ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServeDocument_FindsTimestampedCopy(t *testing.T) {
	uploadDir := t.TempDir()
	stored := filepath.Join(uploadDir, "BrakeManual_1700000000.pdf")
	require.NoError(t, os.WriteFile(stored, []byte("%PDF-1.4 test"), 0644))

	h := NewDocumentHandler(&stubChunkStore{}, uploadDir)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pdf?file=BrakeManual.pdf", nil)
	rec := httptest.NewRecorder()
	h.ServeDocument().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "%PDF-1.4 test")
}

func TestServeDocument_RejectsNonPDF(t *testing.T) {
	h := NewDocumentHandler(&stubChunkStore{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pdf?file=secrets.txt", nil)
	rec := httptest.NewRecorder()
	h.ServeDocument().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeDocument_MissingFile(t *testing.T) {
	h := NewDocumentHandler(&stubChunkStore{}, t.TempDir())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pdf?file=Nope.pdf", nil)
	rec := httptest.NewRecorder()
	h.ServeDocument().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFindFileWithTimestamp(t *testing.T) {
	uploadDir := t.TempDir()
	for _, name := range []string{
		"BrakeManual_1700000000.pdf",
		"EngineManual.pdf",
		"notes_123.pdf", // suffix too short to be a timestamp
	} {
		require.NoError(t, os.WriteFile(filepath.Join(uploadDir, name), []byte("x"), 0644))
	}

	h := NewDocumentHandler(&stubChunkStore{}, uploadDir)

	name, err := h.findFileWithTimestamp("BrakeManual.pdf")
	require.NoError(t, err)
	assert.Equal(t, "BrakeManual_1700000000.pdf", name)

	// Exact match without a timestamp suffix still works.
	name, err = h.findFileWithTimestamp("EngineManual.pdf")
	require.NoError(t, err)
	assert.Equal(t, "EngineManual.pdf", name)

	_, err = h.findFileWithTimestamp("notes.pdf")
	assert.Error(t, err)
}
