package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/caovinh/manual-rag-be/database"
	"github.com/caovinh/manual-rag-be/types"
)

// DocumentHandler lists ingested documents and serves the stored source
// PDFs so a client can show the cited page to the user.
type DocumentHandler struct {
	store     database.ChunkStore
	uploadDir string
}

func NewDocumentHandler(store database.ChunkStore, uploadDir string) *DocumentHandler {
	return &DocumentHandler{
		store:     store,
		uploadDir: uploadDir,
	}
}

// ListDocuments returns every ingested document with its metadata.
func (h *DocumentHandler) ListDocuments() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		docs, err := h.store.AllDocuments(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(types.ErrorResponse{
				ErrorKind: types.ErrorKindRetrieval,
				Message:   "failed to list documents",
			})
			return
		}
		if docs == nil {
			docs = []types.Document{}
		}

		json.NewEncoder(w).Encode(types.DataResponse{
			Status: "success",
			Data:   docs,
		})
	})
}

// ServeDocument streams a stored source PDF back to the client.
func (h *DocumentHandler) ServeDocument() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		requestedName := r.URL.Query().Get("file")
		if requestedName == "" {
			http.Error(w, "File parameter is required", http.StatusBadRequest)
			return
		}
		if filepath.Ext(requestedName) != ".pdf" {
			http.Error(w, "Only PDF files are allowed", http.StatusBadRequest)
			return
		}

		// Stored copies carry a timestamp suffix added at ingestion.
		actualFile, err := h.findFileWithTimestamp(requestedName)
		if err != nil {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", requestedName))
		http.ServeFile(w, r, filepath.Join(h.uploadDir, actualFile))
	})
}

func (h *DocumentHandler) findFileWithTimestamp(requestedName string) (string, error) {
	files, err := os.ReadDir(h.uploadDir)
	if err != nil {
		return "", err
	}

	baseName := strings.TrimSuffix(requestedName, ".pdf")
	for _, file := range files {
		name := file.Name()
		if !strings.HasSuffix(name, ".pdf") {
			continue
		}

		nameWithoutExt := strings.TrimSuffix(name, ".pdf")
		if nameWithoutExt == baseName {
			return name, nil
		}

		lastUnderscoreIdx := strings.LastIndex(nameWithoutExt, "_")
		if lastUnderscoreIdx == -1 {
			continue
		}

		// Unix timestamps are 10 (seconds) or 13 (millis) digits
		timestampPart := nameWithoutExt[lastUnderscoreIdx+1:]
		fileBaseName := nameWithoutExt[:lastUnderscoreIdx]
		if len(timestampPart) == 10 || len(timestampPart) == 13 {
			if _, err := strconv.ParseInt(timestampPart, 10, 64); err == nil {
				if fileBaseName == baseName {
					return name, nil
				}
			}
		}
	}

	return "", fmt.Errorf("file not found: %s", requestedName)
}
