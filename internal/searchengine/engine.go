// Package searchengine composes the segment, autocomplete, semantic and
// metadata components (C3..C5, C7) into the single owner that serves
// search, suggest, and reload, grounded in the reference indexer.Engine
// but redesigned as an explicit owner instead of a global singleton, per
// the reference implementation's own noted design flaw.
package searchengine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cord19search/searchplatform/internal/autocomplete"
	"github.com/cord19search/searchplatform/internal/metadata"
	"github.com/cord19search/searchplatform/internal/segment"
	"github.com/cord19search/searchplatform/internal/semantic"
	"github.com/cord19search/searchplatform/internal/textutil"
	"github.com/cord19search/searchplatform/pkg/tracing"
)

// SemanticParams holds the query-expansion parameters applied at the
// engine boundary.
type SemanticParams struct {
	PerTerm       int
	GlobalTopK    int
	MinSim        float64
	Alpha         float64
	MaxTotalTerms int
}

// DefaultSemanticParams matches the reference implementation's defaults.
var DefaultSemanticParams = SemanticParams{
	PerTerm:       3,
	GlobalTopK:    5,
	MinSim:        0.55,
	Alpha:         0.6,
	MaxTotalTerms: 40,
}

// Engine is the sole owner of live index state: the segment list, the
// autocomplete trie, the semantic index, and the metadata sidecar. A
// single mutex guards all of it; search, suggest, and reload all hold it
// for their entire duration, so a reload's swap is always observed
// atomically by concurrent readers.
type Engine struct {
	mtx sync.Mutex

	dir            string
	embeddingsPath string
	semanticParams SemanticParams

	segments []*segment.Segment
	segNames []string
	trie     *autocomplete.Trie
	semIdx   *semantic.Index
	meta     *metadata.Sidecar

	logger *slog.Logger
}

// candidateEmbeddingNames are checked, in order, inside the index
// directory when no explicit embeddings path is configured.
var candidateEmbeddingNames = []string{"embeddings.vec", "embeddings.txt", "glove.txt", "vectors.txt"}

// New creates an Engine rooted at dir (expected to contain manifest.bin,
// metadata.csv, and a segments/ directory). It does not load anything;
// call Reload to populate it.
func New(dir string, embeddingsPath string) *Engine {
	return &Engine{
		dir:            dir,
		embeddingsPath: embeddingsPath,
		semanticParams: DefaultSemanticParams,
		logger:         slog.Default().With("component", "searchengine"),
	}
}

// SegmentCount returns the number of live segments. Safe to call
// concurrently.
func (e *Engine) SegmentCount() int {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return len(e.segments)
}

// Reload reads the manifest (or falls back to scanning segments/ for
// seg_* directories), loads each named segment, rebuilds the
// autocomplete trie and semantic index from the merged vocabulary, and
// atomically swaps in the new state. Any segment load failure aborts the
// reload, leaving the previous state untouched, and returns false.
func (e *Engine) Reload() bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	names, err := e.resolveSegmentNames()
	if err != nil {
		e.logger.Error("reload: resolving segment names", "error", err)
		return false
	}

	newSegments := make([]*segment.Segment, 0, len(names))
	ok := true
	for _, name := range names {
		s, err := segment.Open(filepath.Join(e.dir, "segments", name))
		if err != nil {
			e.logger.Error("reload: loading segment", "segment", name, "error", err)
			ok = false
			break
		}
		newSegments = append(newSegments, s)
	}
	if !ok {
		for _, s := range newSegments {
			s.Close()
		}
		return false
	}

	scores := make(map[string]float64)
	vocab := make(map[string]struct{})
	for _, s := range newSegments {
		for term, entry := range s.Terms() {
			scores[term] += float64(entry.DF)
			vocab[term] = struct{}{}
		}
	}
	trie := autocomplete.Build(scores, autocomplete.DefaultKNode)

	embPath := e.resolveEmbeddingsPath()
	semIdx := semantic.Load(embPath, vocab)

	var meta *metadata.Sidecar
	metaPath := filepath.Join(e.dir, "metadata.csv")
	if _, statErr := os.Stat(metaPath); statErr == nil {
		loaded, loadErr := metadata.Load(metaPath)
		if loadErr != nil {
			e.logger.Warn("reload: metadata sidecar not loaded", "error", loadErr)
		} else {
			meta = loaded
		}
	}

	for _, s := range e.segments {
		s.Close()
	}
	e.segments = newSegments
	e.segNames = names
	e.trie = trie
	e.semIdx = semIdx
	e.meta = meta
	e.logger.Info("reload complete", "segments", len(newSegments))
	return true
}

func (e *Engine) resolveSegmentNames() ([]string, error) {
	names, err := segment.ReadManifest(filepath.Join(e.dir, "manifest.bin"))
	if err == nil {
		return names, nil
	}
	entries, direrr := os.ReadDir(filepath.Join(e.dir, "segments"))
	if direrr != nil {
		return nil, direrr
	}
	var scanned []string
	for _, en := range entries {
		if en.IsDir() && strings.HasPrefix(en.Name(), "seg_") {
			scanned = append(scanned, en.Name())
		}
	}
	sort.Strings(scanned)
	return scanned, nil
}

func (e *Engine) resolveEmbeddingsPath() string {
	if p := os.Getenv("EMBEDDINGS_PATH"); p != "" {
		return p
	}
	if e.embeddingsPath != "" {
		return e.embeddingsPath
	}
	for _, name := range candidateEmbeddingNames {
		p := filepath.Join(e.dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(e.dir, candidateEmbeddingNames[0])
}

// SearchResult is the shape returned to the HTTP layer.
type SearchResult struct {
	Query    string
	K        int
	Segments int
	Found    int
	Results  []Hit
}

// Search tokenizes query, optionally expands it via the semantic index,
// scores every segment with BM25, and returns the top-K hits merged
// deterministically across segments.
func (e *Engine) Search(ctx context.Context, query string, k int) SearchResult {
	_, span := tracing.StartChildSpan(ctx, "searchengine.Search")
	defer span.End()

	e.mtx.Lock()
	defer e.mtx.Unlock()

	K := clamp(k, 1, 100)
	baseTerms := textutil.QueryTerms(query)
	if len(baseTerms) == 0 || len(e.segments) == 0 {
		return SearchResult{Query: query, K: K, Segments: len(e.segments), Found: 0, Results: []Hit{}}
	}

	weighted := e.expandTerms(baseTerms)

	var candidates []Hit
	distinctDocs := make(map[string]struct{})
	for segIdx, s := range e.segments {
		scores := make(map[segment.DocID]float64)
		stats := s.Stats()
		for _, wt := range weighted {
			entry, ok := s.Lookup(wt.Term)
			if !ok || entry.DF == 0 {
				continue
			}
			idfVal := idf(stats.N, entry.DF)
			postings, err := s.ReadPostings(entry)
			if err != nil {
				e.logger.Error("search: reading postings", "term", wt.Term, "error", err)
				continue
			}
			for _, p := range postings {
				doc, ok := s.Doc(p.DocID)
				if !ok {
					continue
				}
				scores[p.DocID] += termScore(wt.Weight, idfVal, p.TF, doc.DocLen, stats.AvgDL)
			}
		}
		for docID, sc := range scores {
			if sc <= 0 {
				continue
			}
			doc, ok := s.Doc(docID)
			if !ok {
				continue
			}
			distinctDocs[doc.CordUID] = struct{}{}
			hit := Hit{Score: sc, SegIndex: segIdx, DocID: docID, CordUID: doc.CordUID, Title: doc.Title, JSONPath: doc.JSONRelPath}
			if e.meta != nil {
				if rm, ok := e.meta.Lookup(doc.CordUID); ok {
					hit.URL = rm.URL
					hit.Publish = rm.PublishTime
					hit.Author = rm.Author
				}
			}
			candidates = append(candidates, hit)
		}
	}

	results := topK(candidates, K)
	return SearchResult{
		Query:    query,
		K:        K,
		Segments: len(e.segments),
		Found:    len(distinctDocs),
		Results:  results,
	}
}

func (e *Engine) expandTerms(baseTerms []string) []semantic.WeightedTerm {
	if e.semIdx != nil && e.semIdx.Enabled() {
		p := e.semanticParams
		return e.semIdx.Expand(baseTerms, p.PerTerm, p.GlobalTopK, p.MinSim, p.Alpha, p.MaxTotalTerms)
	}
	out := make([]semantic.WeightedTerm, len(baseTerms))
	for i, t := range baseTerms {
		out[i] = semantic.WeightedTerm{Term: t, Weight: 1.0}
	}
	return out
}

// SuggestResult is the shape returned to the HTTP layer.
type SuggestResult struct {
	Query       string
	Limit       int
	Suggestions []string
}

// Suggest is a thin wrapper over the autocomplete trie, clamping k to
// [1, 10] as required at the engine boundary.
func (e *Engine) Suggest(prefix string, k int) SuggestResult {
	e.mtx.Lock()
	defer e.mtx.Unlock()

	limit := clamp(k, 1, 10)
	var suggestions []string
	if e.trie != nil {
		suggestions = e.trie.Suggest(prefix, limit)
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return SuggestResult{Query: prefix, Limit: limit, Suggestions: suggestions}
}

// SemanticEnabled reports whether an embeddings file was loaded on the
// last successful reload.
func (e *Engine) SemanticEnabled() bool {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	return e.semIdx != nil && e.semIdx.Enabled()
}

// Abstract returns the abstract text for a cord_uid from the metadata
// sidecar, if one is loaded and the row exists. Used by the AI-summary
// endpoint to source text to summarize.
func (e *Engine) Abstract(cordUID string) (string, bool) {
	e.mtx.Lock()
	defer e.mtx.Unlock()
	if e.meta == nil {
		return "", false
	}
	record, ok := e.meta.Fetch(cordUID)
	if !ok {
		return "", false
	}
	return record.Abstract, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
