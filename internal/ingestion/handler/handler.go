// Package handler exposes the ingestion HTTP endpoint.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/theoseek/theoseek/internal/ingestion"
	"github.com/theoseek/theoseek/internal/ingestion/publisher"
	"github.com/theoseek/theoseek/internal/ingestion/validator"
	"github.com/theoseek/theoseek/pkg/logger"
)

// Handler serves the document ingestion API.
type Handler struct {
	publisher   *publisher.Publisher
	maxBodySize int64
	logger      *slog.Logger
}

// New creates a Handler over pub.
func New(pub *publisher.Publisher, maxBodySize int) *Handler {
	if maxBodySize <= 0 {
		maxBodySize = 4 << 20
	}
	return &Handler{
		publisher:   pub,
		maxBodySize: int64(maxBodySize),
		logger:      slog.Default().With("component", "ingestion-handler"),
	}
}

// Ingest accepts one document, validates it, and hands it to the
// publisher.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	var req ingestion.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := validator.ValidateIngestRequest(&req); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": vErr.Fields,
			})
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.publisher.Ingest(ctx, &req)
	if err != nil {
		log.Error("ingest failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "ingest failed")
		return
	}

	log.Info("document accepted", "doc_id", resp.DocumentID)
	h.writeJSON(w, http.StatusAccepted, resp)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
