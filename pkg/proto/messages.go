// Package proto defines the shared message types used for internal RPC
// communication between services in the search platform.
//
// These types are hand-written for zero-dependency usage over the
// platform's lightweight JSON-over-TCP RPC layer (see pkg/grpc), rather
// than generated from .proto files.
package proto

// ---------- Common ----------

// HealthCheckResponse mirrors the gRPC health check spec.
type HealthCheckResponse struct {
	Status string `json:"status"` // SERVING, NOT_SERVING, UNKNOWN
}

// ---------- Search ----------

// SearchRequest is the input to the Search RPC.
type SearchRequest struct {
	Query string `json:"query"`
	Limit int32  `json:"limit"`
}

// SearchResponse is the output of the Search RPC.
type SearchResponse struct {
	Query     string         `json:"query"`
	TotalHits int32          `json:"total_hits"`
	Results   []SearchResult `json:"results"`
	LatencyMs int64          `json:"latency_ms"`
}

// SearchResult is a single scored document in the result set.
type SearchResult struct {
	CordUID string  `json:"cord_uid"`
	Title   string  `json:"title"`
	Score   float32 `json:"score"`
}

// SuggestRequest is the input to the Suggest RPC.
type SuggestRequest struct {
	Prefix   string `json:"prefix"`
	MaxItems int32  `json:"max_items"`
}

// SuggestResponse is the output of the Suggest RPC.
type SuggestResponse struct {
	Suggestions []string `json:"suggestions"`
}

// ---------- Engine stats ----------

// EngineStatsRequest carries no filters; the engine has a single,
// unsharded state to report on.
type EngineStatsRequest struct{}

// EngineStatsResponse mirrors searchengine.Engine's live state, exposed
// over RPC so the gateway can report index health without an extra HTTP
// hop through the public search API.
type EngineStatsResponse struct {
	SegmentCount    int32 `json:"segment_count"`
	SemanticEnabled bool  `json:"semantic_enabled"`
}

// ReloadRequest triggers Engine.Reload.
type ReloadRequest struct{}

// ReloadResponse confirms the reload outcome.
type ReloadResponse struct {
	Success      bool  `json:"success"`
	SegmentCount int32 `json:"segment_count"`
}
