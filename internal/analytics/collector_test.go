package analytics

import (
	"net/http/httptest"
	"testing"
)

func TestCollectorTrackDropsWhenBufferFull(t *testing.T) {
	c := NewCollector(nil, 2)

	c.Track(SearchEvent{Query: "a"})
	c.Track(SearchEvent{Query: "b"})
	// Buffer capacity is 2 and Start was never called to drain it, so this
	// third Track must be dropped rather than block.
	c.Track(SearchEvent{Query: "c"})

	if len(c.eventCh) != 2 {
		t.Errorf("eventCh len = %d, want 2 (buffer full, extra event dropped)", len(c.eventCh))
	}
}

func TestNewCollectorDefaultsBufferSize(t *testing.T) {
	c := NewCollector(nil, 0)
	if cap(c.eventCh) != 10000 {
		t.Errorf("default buffer size = %d, want 10000", cap(c.eventCh))
	}
}

func TestHandlerStatsWritesJSON(t *testing.T) {
	agg := NewAggregator(nil)
	agg.recordSearchEvent(SearchEvent{Query: "coronavirus", TotalHits: 1})
	h := NewHandler(agg)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/analytics", nil)
	h.Stats(rr, req)

	if rr.Code != 200 {
		t.Errorf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}
