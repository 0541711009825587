package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cord19search/searchplatform/pkg/grpc"
	"github.com/cord19search/searchplatform/pkg/proto"
)

func startStatsRPCServer(t *testing.T, resp proto.EngineStatsResponse) string {
	t.Helper()
	s := grpc.NewServer()
	s.Register("Engine.Stats", func(ctx context.Context, req json.RawMessage) (any, error) {
		return resp, nil
	})
	go s.Serve("127.0.0.1:0")
	t.Cleanup(s.Stop)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if addr := s.Addr(); addr != "" {
			return addr
		}
		if time.Now().After(deadline) {
			t.Fatal("rpc server did not start listening in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHealthReturnsOK(t *testing.T) {
	h := New(Config{}, nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)

	h.Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Code = %d, want 200", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %q, want ok", body["status"])
	}
}

func TestIndexStatsReturnsUpstreamStats(t *testing.T) {
	addr := startStatsRPCServer(t, proto.EngineStatsResponse{SegmentCount: 3, SemanticEnabled: true})
	h := New(Config{SearcherRPCAddr: addr}, nil, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
	h.IndexStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200, body=%s", rr.Code, rr.Body.String())
	}
	var resp proto.EngineStatsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.SegmentCount != 3 || !resp.SemanticEnabled {
		t.Errorf("resp = %+v, want {SegmentCount:3 SemanticEnabled:true}", resp)
	}
}

func TestIndexStatsReturns503WhenNoSegmentsLoaded(t *testing.T) {
	addr := startStatsRPCServer(t, proto.EngineStatsResponse{SegmentCount: 0})
	h := New(Config{SearcherRPCAddr: addr}, nil, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
	h.IndexStats(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Code = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestIndexStatsReturns503WhenRPCUnreachable(t *testing.T) {
	h := New(Config{SearcherRPCAddr: "127.0.0.1:1"}, nil, nil)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/admin/stats", nil)
	h.IndexStats(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Code = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestProxySearchForwardsToBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("search-backend-response"))
	}))
	defer backend.Close()

	h := New(Config{SearcherURL: backend.URL}, nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/search?q=covid", nil)
	h.ProxySearch(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200", rr.Code)
	}
	if rr.Body.String() != "search-backend-response" {
		t.Errorf("body = %q, want proxied backend response", rr.Body.String())
	}
}

func TestProxyIngestForwardsToBackend(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer backend.Close()

	h := New(Config{IngestionURL: backend.URL}, nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/documents", nil)
	h.ProxyIngest(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Errorf("Code = %d, want %d", rr.Code, http.StatusAccepted)
	}
}
