package searchhttp

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/cord19search/searchplatform/internal/ingestion"
	"github.com/cord19search/searchplatform/internal/searchengine"
	"github.com/cord19search/searchplatform/internal/segment"
)

func buildTestEngine(t *testing.T) *searchengine.Engine {
	t.Helper()
	dir := t.TempDir()
	batcher := ingestion.NewBatcher()
	batcher.Add(ingestion.RawDocument{
		CordUID:     "ug7v899j",
		Title:       "Clinical features of coronavirus disease",
		Abstract:    "A study of COVID-19 patients and spike protein antibodies.",
		JSONRelPath: "pdf_json/ug7v899j.json",
	})
	batcher.Add(ingestion.RawDocument{
		CordUID:     "ejv2xln0",
		Title:       "Unrelated agricultural topic",
		Abstract:    "Something about crop rotation.",
		JSONRelPath: "pdf_json/ejv2xln0.json",
	})
	recs, postings := batcher.Drain()
	segDir := filepath.Join(dir, "segments", "seg_0")
	b := &segment.Builder{BarrelCount: 2}
	if err := b.Build(segDir, recs, postings); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := segment.WriteManifest(filepath.Join(dir, "manifest.bin"), []string{"seg_0"}); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	e := searchengine.New(dir, "")
	if !e.Reload() {
		t.Fatal("Reload failed")
	}
	return e
}

func TestSearchReturnsMatchingDocuments(t *testing.T) {
	h := New(buildTestEngine(t), nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/search?q=coronavirus+spike", nil)

	h.Search(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200, body=%s", rr.Code, rr.Body.String())
	}
}

func TestSearchMissingQueryReturns400(t *testing.T) {
	h := New(buildTestEngine(t), nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/search", nil)

	h.Search(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearchInvalidKReturns400(t *testing.T) {
	h := New(buildTestEngine(t), nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/search?q=coronavirus&k=notanumber", nil)

	h.Search(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSearchNegativeKReturns400(t *testing.T) {
	h := New(buildTestEngine(t), nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/search?q=coronavirus&k=-1", nil)

	h.Search(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestSuggestReturnsCompletions(t *testing.T) {
	h := New(buildTestEngine(t), nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/suggest?q=coro", nil)

	h.Suggest(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200, body=%s", rr.Code, rr.Body.String())
	}
}

func TestSuggestMissingQueryReturns400(t *testing.T) {
	h := New(buildTestEngine(t), nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/suggest", nil)

	h.Suggest(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Code = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestReloadReportsSegmentCount(t *testing.T) {
	h := New(buildTestEngine(t), nil, nil)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/reload", nil)

	h.Reload(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %d, want 200, body=%s", rr.Code, rr.Body.String())
	}
}
