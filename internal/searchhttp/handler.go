// Package searchhttp exposes the engine's search, suggest, and reload
// operations over net/http, grounded in the reference searcher/handler
// package's shape (writeJSON/writeError helpers, structured request
// logging, analytics tracking) but backed by a single searchengine.Engine
// instead of a shard router.
package searchhttp

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cord19search/searchplatform/internal/analytics"
	"github.com/cord19search/searchplatform/internal/searchengine"
	"github.com/cord19search/searchplatform/pkg/logger"
	"github.com/cord19search/searchplatform/pkg/metrics"
	"github.com/cord19search/searchplatform/pkg/middleware"
	"github.com/cord19search/searchplatform/pkg/tracing"
)

// Handler serves the search, suggest, and reload endpoints.
type Handler struct {
	engine    *searchengine.Engine
	collector *analytics.Collector
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New wires an Engine (and optional analytics/metrics collaborators)
// into a Handler.
func New(engine *searchengine.Engine, collector *analytics.Collector, m *metrics.Metrics) *Handler {
	return &Handler{
		engine:    engine,
		collector: collector,
		metrics:   m,
		logger:    slog.Default().With("component", "search-http"),
	}
}

type searchResponse struct {
	Query    string      `json:"query"`
	K        int         `json:"k"`
	Segments int         `json:"segments"`
	Found    int         `json:"found"`
	Results  []resultDTO `json:"results"`
}

type resultDTO struct {
	Score       float64 `json:"score"`
	Segment     int     `json:"segment"`
	DocID       uint32  `json:"docId"`
	CordUID     string  `json:"cord_uid"`
	Title       string  `json:"title"`
	JSONRelPath string  `json:"json_relpath"`
	URL         string  `json:"url,omitempty"`
	PublishTime string  `json:"publish_time,omitempty"`
	Author      string  `json:"author,omitempty"`
}

// Search implements GET /api/v1/search?q=&k=. Malformed parameters
// (non-numeric or non-positive k) are rejected here, per spec.md's
// HTTP-boundary error handling.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := tracing.StartSpan(r.Context(), "http.search", middleware.GetRequestID(r.Context()))
	log := logger.FromContext(ctx)

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}

	k := 10
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = parsed
	}

	span.SetAttr("query", query)
	result := h.engine.Search(ctx, query, k)
	latencyMs := time.Since(start).Milliseconds()
	span.SetAttr("found", result.Found)
	span.End()
	span.Log()

	log.Info("search completed", "query", query, "found", result.Found, "returned", len(result.Results), "latency_ms", latencyMs)
	if h.metrics != nil {
		h.metrics.ObserveSearchLatency(float64(latencyMs) / 1000)
	}
	if h.collector != nil {
		h.collector.Track(analytics.SearchEvent{
			Type:         analytics.EventSearch,
			Query:        query,
			TotalHits:    result.Found,
			Returned:     len(result.Results),
			LatencyMs:    latencyMs,
			SegmentCount: result.Segments,
			Timestamp:    time.Now().UTC(),
			RequestID:    middleware.GetRequestID(ctx),
		})
	}

	resp := searchResponse{
		Query:    result.Query,
		K:        result.K,
		Segments: result.Segments,
		Found:    result.Found,
		Results:  make([]resultDTO, len(result.Results)),
	}
	for i, hit := range result.Results {
		resp.Results[i] = resultDTO{
			Score:       hit.Score,
			Segment:     hit.SegIndex,
			DocID:       hit.DocID,
			CordUID:     hit.CordUID,
			Title:       hit.Title,
			JSONRelPath: hit.JSONPath,
			URL:         hit.URL,
			PublishTime: hit.Publish,
			Author:      hit.Author,
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type suggestResponse struct {
	Query       string   `json:"query"`
	Limit       int      `json:"limit"`
	Suggestions []string `json:"suggestions"`
}

// Suggest implements GET /api/v1/suggest?q=&k=.
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("q")
	if prefix == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	k := 10
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed < 1 {
			h.writeError(w, http.StatusBadRequest, "k must be a positive integer")
			return
		}
		k = parsed
	}
	result := h.engine.Suggest(prefix, k)
	h.writeJSON(w, http.StatusOK, suggestResponse{
		Query:       result.Query,
		Limit:       result.Limit,
		Suggestions: result.Suggestions,
	})
}

type reloadResponse struct {
	Reloaded bool `json:"reloaded"`
	Segments int  `json:"segments"`
}

// Reload implements POST /api/v1/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	ok := h.engine.Reload()
	if h.metrics != nil {
		h.metrics.IncReloadTotal(ok)
	}
	h.writeJSON(w, http.StatusOK, reloadResponse{Reloaded: ok, Segments: h.engine.SegmentCount()})
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
