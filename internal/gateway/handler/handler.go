package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"

	"github.com/cord19search/searchplatform/internal/auth/apikey"
	apperrors "github.com/cord19search/searchplatform/pkg/errors"
	"github.com/cord19search/searchplatform/pkg/grpc"
	"github.com/cord19search/searchplatform/pkg/postgres"
	"github.com/cord19search/searchplatform/pkg/proto"
	"github.com/cord19search/searchplatform/pkg/resilience"
)

// Config holds the URLs of backend services that the gateway proxies to.
type Config struct {
	IngestionURL    string
	SearcherURL     string
	SearcherRPCAddr string
}

// Handler implements the API gateway's HTTP endpoints.
// It proxies requests to backend services and provides direct
// document retrieval and API key management via PostgreSQL.
type Handler struct {
	ingestionProxy  *httputil.ReverseProxy
	searchProxy     *httputil.ReverseProxy
	searcherRPCAddr string
	searcherBreaker *resilience.CircuitBreaker
	db              *postgres.Client
	keyValidator    *apikey.Validator
	logger          *slog.Logger
}

// New creates a gateway Handler that proxies to the given backend URLs.
func New(cfg Config, db *postgres.Client, keyValidator *apikey.Validator) *Handler {
	return &Handler{
		ingestionProxy:  newProxy(cfg.IngestionURL),
		searchProxy:     newProxy(cfg.SearcherURL),
		searcherRPCAddr: cfg.SearcherRPCAddr,
		searcherBreaker: resilience.NewCircuitBreaker("searcher-rpc", resilience.CircuitBreakerConfig{}),
		db:              db,
		keyValidator:    keyValidator,
		logger:          slog.Default().With("component", "gateway-handler"),
	}
}

func newProxy(target string) *httputil.ReverseProxy {
	u, _ := url.Parse(target)
	return httputil.NewSingleHostReverseProxy(u)
}

// ---------- Proxy handlers ----------

// ProxyIngest forwards document ingestion requests to the ingestion service.
func (h *Handler) ProxyIngest(w http.ResponseWriter, r *http.Request) {
	h.ingestionProxy.ServeHTTP(w, r)
}

// ProxySearch forwards search queries to the search service.
func (h *Handler) ProxySearch(w http.ResponseWriter, r *http.Request) {
	h.searchProxy.ServeHTTP(w, r)
}

// ProxyAnalytics forwards analytics requests to the search service.
func (h *Handler) ProxyAnalytics(w http.ResponseWriter, r *http.Request) {
	h.searchProxy.ServeHTTP(w, r)
}

// indexStatsRPCTimeout bounds a single Engine.Stats round trip. The RPC is
// a same-datacenter TCP call with no large payload, so a stalled dial or
// a hung searcher should surface as a failure well before an external
// caller's own timeout.
const indexStatsRPCTimeout = 3 * time.Second

// IndexStats calls the search service's internal RPC endpoint to report
// live engine state, avoiding a public HTTP hop for an admin-only view.
func (h *Handler) IndexStats(w http.ResponseWriter, r *http.Request) {
	var resp proto.EngineStatsResponse
	err := h.searcherBreaker.Execute(func() error {
		return resilience.WithTimeout(r.Context(), indexStatsRPCTimeout, "gateway.searcher-rpc", func(ctx context.Context) error {
			client, err := grpc.Dial(h.searcherRPCAddr)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Call("Engine.Stats", proto.EngineStatsRequest{}, &resp)
		})
	})
	if err != nil {
		h.logger.Error("engine stats rpc failed", "addr", h.searcherRPCAddr, "error", err)
		h.writeError(w, http.StatusServiceUnavailable, "engine stats unavailable")
		return
	}
	if resp.SegmentCount == 0 {
		err := apperrors.New(apperrors.ErrSegmentUnavailable, http.StatusServiceUnavailable, "no segments loaded")
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// ---------- Direct data handlers ----------

// GetDocument retrieves a single document's intake metadata from
// PostgreSQL by cord_uid.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	cordUID := r.PathValue("cord_uid")
	if cordUID == "" {
		h.writeError(w, http.StatusBadRequest, "cord_uid is required")
		return
	}

	var doc struct {
		CordUID     string     `json:"cord_uid"`
		Title       string     `json:"title"`
		JSONRelPath string     `json:"json_relpath"`
		Status      string     `json:"status"`
		CreatedAt   time.Time  `json:"created_at"`
		IndexedAt   *time.Time `json:"indexed_at,omitempty"`
	}

	err := h.db.DB.QueryRowContext(r.Context(),
		`SELECT cord_uid, title, json_relpath, status, created_at, indexed_at
		 FROM documents WHERE cord_uid = $1`, cordUID,
	).Scan(&doc.CordUID, &doc.Title, &doc.JSONRelPath, &doc.Status, &doc.CreatedAt, &doc.IndexedAt)

	if err == sql.ErrNoRows {
		h.writeError(w, http.StatusNotFound, "document not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch document", "cord_uid", cordUID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}

	h.writeJSON(w, http.StatusOK, doc)
}

// ListDocuments returns a paginated list of document metadata.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	rows, err := h.db.DB.QueryContext(r.Context(),
		`SELECT cord_uid, title, status, created_at
		 FROM documents ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	defer rows.Close()

	type docSummary struct {
		CordUID   string    `json:"cord_uid"`
		Title     string    `json:"title"`
		Status    string    `json:"status"`
		CreatedAt time.Time `json:"created_at"`
	}

	docs := make([]docSummary, 0)
	for rows.Next() {
		var d docSummary
		if err := rows.Scan(&d.CordUID, &d.Title, &d.Status, &d.CreatedAt); err != nil {
			h.logger.Error("failed to scan document row", "error", err)
			continue
		}
		docs = append(docs, d)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
		"limit":     limit,
		"offset":    offset,
	})
}

// ---------- Admin handlers ----------

// CreateAPIKey creates a new API key and returns the raw key (shown once).
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
		ExpiresIn string `json:"expires_in,omitempty"` // Go duration, e.g. "720h"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.RateLimit <= 0 {
		req.RateLimit = 100
	}

	var expiresAt *time.Time
	if req.ExpiresIn != "" {
		d, err := time.ParseDuration(req.ExpiresIn)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "invalid expires_in duration")
			return
		}
		t := time.Now().Add(d)
		expiresAt = &t
	}

	key, err := h.keyValidator.CreateKey(r.Context(), req.Name, req.RateLimit, expiresAt)
	if err != nil {
		h.logger.Error("failed to create api key", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create api key")
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"api_key": key,
		"name":    req.Name,
		"message": "store this key securely — it cannot be retrieved again",
	})
}

// ListAPIKeys returns all active API keys (without hashes).
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.keyValidator.ListKeys(r.Context())
	if err != nil {
		h.logger.Error("failed to list api keys", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list api keys")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"keys":  keys,
		"count": len(keys),
	})
}

// ---------- Health ----------

// Health returns the gateway's health status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "gateway"})
}

// ---------- Helpers ----------

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
