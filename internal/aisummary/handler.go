package aisummary

import (
	"encoding/json"
	"log/slog"
	"net/http"

	sperrors "github.com/cord19search/searchplatform/pkg/errors"
)

// AbstractSource supplies the source text a summary is generated from.
// Satisfied by *searchengine.Engine.
type AbstractSource interface {
	Abstract(cordUID string) (string, bool)
}

// Handler exposes the summary cache/service over HTTP.
type Handler struct {
	service *Service
	source  AbstractSource
	logger  *slog.Logger
}

// NewHandler wires a Service to an AbstractSource for the summary
// endpoint.
func NewHandler(service *Service, source AbstractSource) *Handler {
	return &Handler{
		service: service,
		source:  source,
		logger:  slog.Default().With("component", "aisummary-http"),
	}
}

type summaryResponse struct {
	CordUID string `json:"cord_uid"`
	Summary string `json:"summary"`
}

// Get implements GET /api/v1/summary/{cord_uid}. Authorization is
// derived from the presence of an API-key header; there is no user
// system in scope, so any caller presenting the header is authorized.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	cordUID := r.PathValue("cord_uid")
	if cordUID == "" {
		h.writeError(w, http.StatusBadRequest, "cord_uid is required")
		return
	}
	abstract, ok := h.source.Abstract(cordUID)
	if !ok {
		h.writeError(w, http.StatusNotFound, "no metadata for cord_uid")
		return
	}
	authorized := r.Header.Get("X-API-Key") != ""
	summary, err := h.service.GetOrGenerate(r.Context(), cordUID, abstract, authorized)
	if err != nil {
		h.writeError(w, sperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, summaryResponse{CordUID: cordUID, Summary: summary})
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
