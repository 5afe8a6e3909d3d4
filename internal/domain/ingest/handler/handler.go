// Package handler exposes the ingestion endpoints as JSON over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/common"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/mapping"
	"github.com/toyiyo/nimble-pnl-sub009/internal/domain/ingest/service"
	"github.com/toyiyo/nimble-pnl-sub009/pkg/observability"
)

// maxBodyBytes caps request bodies; statement exports are small text files.
const maxBodyBytes int64 = 10 << 20 // 10 MiB

// IngestHandler serves the statement ingestion API.
type IngestHandler struct {
	svc    *service.IngestService
	logger *slog.Logger
}

// NewIngestHandler constructs a new handler.
func NewIngestHandler(svc *service.IngestService, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{
		svc:    svc,
		logger: logger,
	}
}

// Register wires the ingestion routes onto the mux.
func (h *IngestHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/ingest/analyze", h.Analyze)
	mux.HandleFunc("POST /v1/ingest/mapping/validate", h.ValidateMapping)
	mux.HandleFunc("POST /v1/ingest/mapping/confirm", h.ConfirmMapping)
	mux.HandleFunc("POST /v1/ingest/normalize", h.Normalize)
}

type errorResponse struct {
	Error string `json:"error"`
}

type validateMappingRequest struct {
	Mappings []mapping.ColumnMapping `json:"mappings"`
}

type confirmMappingResponse struct {
	Validation mapping.ValidationResult `json:"validation"`
	Saved      bool                     `json:"saved"`
}

// Analyze inspects a parsed statement file and returns the review payload.
func (h *IngestHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	var input service.AnalyzeInput
	if !h.decode(w, r, &input) {
		return
	}
	if len(input.Headers) == 0 {
		h.writeError(w, http.StatusBadRequest, "headers are required")
		return
	}

	result, err := h.svc.Analyze(r.Context(), input)
	if err != nil {
		h.logger.Error("analyze failed", "error", err, "file", input.FileName)
		h.writeError(w, http.StatusInternalServerError, "failed to analyze file")
		return
	}

	for _, m := range result.Mappings {
		observability.RecordMappingSuggestion(string(m.Confidence))
	}
	observability.RecordTransferPairs(len(result.Transfers))

	h.writeJSON(w, http.StatusOK, result)
}

// ValidateMapping checks a mapping set and returns every problem found.
// A 200 response carries the result whether or not the set is valid.
func (h *IngestHandler) ValidateMapping(w http.ResponseWriter, r *http.Request) {
	var req validateMappingRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.writeJSON(w, http.StatusOK, h.svc.ValidateMapping(req.Mappings))
}

// ConfirmMapping persists a reviewed mapping set for its header fingerprint.
func (h *IngestHandler) ConfirmMapping(w http.ResponseWriter, r *http.Request) {
	var input service.ConfirmMappingInput
	if !h.decode(w, r, &input) {
		return
	}

	validation, err := h.svc.ConfirmMapping(r.Context(), input)
	switch {
	case errors.Is(err, common.ErrInvalidMapping):
		h.writeJSON(w, http.StatusUnprocessableEntity, confirmMappingResponse{Validation: validation})
		return
	case errors.Is(err, common.ErrBadRequest):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("confirm mapping failed", "error", err, "fingerprint", input.Fingerprint)
		h.writeError(w, http.StatusInternalServerError, "failed to save mapping")
		return
	}

	h.writeJSON(w, http.StatusOK, confirmMappingResponse{Validation: validation, Saved: true})
}

// Normalize converts rows into transactions using a confirmed mapping set.
func (h *IngestHandler) Normalize(w http.ResponseWriter, r *http.Request) {
	var input service.NormalizeInput
	if !h.decode(w, r, &input) {
		return
	}

	result, err := h.svc.Normalize(r.Context(), input)
	if errors.Is(err, common.ErrInvalidMapping) {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("normalize failed", "error", err, "file", input.FileName)
		h.writeError(w, http.StatusInternalServerError, "failed to normalize rows")
		return
	}

	observability.RecordNormalizedRows(len(result.Transactions), len(result.Flagged))

	h.writeJSON(w, http.StatusOK, result)
}

// decode reads a JSON body into dst, writing a 400 response on failure.
func (h *IngestHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *IngestHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *IngestHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}
