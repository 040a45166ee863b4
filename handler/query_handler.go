package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/caovinh/manual-rag-be/service"
	"github.com/caovinh/manual-rag-be/types"
)

// QueryHandler exposes the query service as a JSON endpoint.
type QueryHandler struct {
	queryService *service.QueryService
}

func NewQueryHandler(queryService *service.QueryService) *QueryHandler {
	return &QueryHandler{
		queryService: queryService,
	}
}

func (h *QueryHandler) HandleQuery() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.Method != http.MethodPost {
			h.sendError(w, types.ErrorKindBadRequest, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req types.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.sendError(w, types.ErrorKindBadRequest, "Invalid request body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			h.sendError(w, types.ErrorKindBadRequest, "Question is required", http.StatusBadRequest)
			return
		}

		resp, err := h.queryService.Answer(r.Context(), req.Question)
		if err != nil {
			var qerr *types.QueryError
			if errors.As(err, &qerr) {
				h.sendError(w, qerr.Kind, qerr.Message, statusForKind(qerr.Kind))
				return
			}
			h.sendError(w, types.ErrorKindGeneration, err.Error(), http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	})
}

func statusForKind(kind string) int {
	switch kind {
	case types.ErrorKindBadRequest:
		return http.StatusBadRequest
	case types.ErrorKindRetrieval:
		return http.StatusServiceUnavailable
	case types.ErrorKindGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *QueryHandler) sendError(w http.ResponseWriter, kind, message string, status int) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(types.ErrorResponse{
		ErrorKind: kind,
		Message:   message,
	})
}
