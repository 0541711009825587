package searchengine

import "container/heap"

// Hit is one scored search result, tagged with its origin
// (segment_index, docId) for deterministic tie-breaking and result
// hydration.
type Hit struct {
	Score     float64
	SegIndex  int
	DocID     uint32
	CordUID   string
	Title     string
	JSONPath  string
	URL       string
	Publish   string
	Author    string
}

// topKHeap is a bounded min-heap of size K ordered by score ascending,
// so the minimum is always at the root and cheap to evict, adapted from
// the reference merger's scoredDocHeap.
type topKHeap []Hit

func (h topKHeap) Len() int { return len(h) }

func (h topKHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	if h[i].SegIndex != h[j].SegIndex {
		return h[i].SegIndex > h[j].SegIndex
	}
	return h[i].DocID > h[j].DocID
}

func (h topKHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topKHeap) Push(x any) {
	*h = append(*h, x.(Hit))
}

func (h *topKHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topK maintains a bounded min-heap of size k across all candidate hits
// and returns them sorted descending by (score desc, segIndex asc,
// docId asc), matching the deterministic tie-break the engine requires.
func topK(candidates []Hit, k int) []Hit {
	h := &topKHeap{}
	heap.Init(h)
	for _, c := range candidates {
		heap.Push(h, c)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	result := make([]Hit, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(Hit)
	}
	return result
}
