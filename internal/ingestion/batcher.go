package ingestion

import (
	"sync"

	"github.com/cord19search/searchplatform/internal/segment"
	"github.com/cord19search/searchplatform/internal/textutil"
)

// Batcher accumulates RawDocuments in memory until a segment is built
// from them, assigning dense 0-based DocIDs in arrival order. It mirrors
// the reference indexer.Engine's mem-index accumulation, but produces
// the C1 on-disk segment shape directly instead of a JSON in-memory
// index.
type Batcher struct {
	mu       sync.Mutex
	docs     []segment.DocRecord
	postings map[string][]segment.Posting
}

// NewBatcher creates an empty batch.
func NewBatcher() *Batcher {
	return &Batcher{postings: make(map[string][]segment.Posting)}
}

// Add tokenizes title+abstract with the same rules the query path uses
// (minus the query-only length-2 filter, matching the ingest-side
// tokenization spec.md describes) and appends the resulting postings to
// the batch.
func (b *Batcher) Add(doc RawDocument) {
	tokens := textutil.FilterStopWords(textutil.Tokenize(doc.Title + " " + doc.Abstract))

	b.mu.Lock()
	defer b.mu.Unlock()

	docID := segment.DocID(len(b.docs))
	tf := make(map[string]uint32, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	for term, count := range tf {
		b.postings[term] = append(b.postings[term], segment.Posting{DocID: docID, TF: count})
	}
	b.docs = append(b.docs, segment.DocRecord{
		CordUID:     doc.CordUID,
		Title:       doc.Title,
		JSONRelPath: doc.JSONRelPath,
		DocLen:      uint32(len(tokens)),
	})
}

// Len returns the number of documents accumulated so far.
func (b *Batcher) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.docs)
}

// Drain returns the accumulated docs and postings and resets the batch
// to empty. Postings within each term's run are already sorted
// ascending by DocID because Add assigns DocIDs in strictly increasing
// arrival order.
func (b *Batcher) Drain() ([]segment.DocRecord, map[string][]segment.Posting) {
	b.mu.Lock()
	defer b.mu.Unlock()
	docs := b.docs
	postings := b.postings
	b.docs = nil
	b.postings = make(map[string][]segment.Posting)
	return docs, postings
}
