package analytics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHandlerStatsReturnsAggregatedSnapshot(t *testing.T) {
	agg := NewAggregator(nil)
	agg.recordSearchEvent(SearchEvent{Query: "coronavirus", TotalHits: 5, LatencyMs: 10, CacheHit: true})
	h := NewHandler(agg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analytics", nil)
	h.Stats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var stats AggregatedStats
	if err := json.Unmarshal(rr.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if stats.TotalSearches != 1 {
		t.Errorf("TotalSearches = %d, want 1", stats.TotalSearches)
	}
}
