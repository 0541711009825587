package analytics

import "testing"

func TestAggregatorRecordsSearchEvents(t *testing.T) {
	agg := NewAggregator(nil)
	agg.recordSearchEvent(SearchEvent{Query: "coronavirus", TotalHits: 5, LatencyMs: 10, CacheHit: true})
	agg.recordSearchEvent(SearchEvent{Query: "coronavirus", TotalHits: 5, LatencyMs: 20, CacheHit: false})
	agg.recordSearchEvent(SearchEvent{Query: "spike protein", TotalHits: 0, LatencyMs: 5, CacheHit: false})

	stats := agg.Stats()
	if stats.TotalSearches != 3 {
		t.Errorf("TotalSearches = %d, want 3", stats.TotalSearches)
	}
	if stats.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", stats.CacheHits)
	}
	if stats.CacheMisses != 2 {
		t.Errorf("CacheMisses = %d, want 2", stats.CacheMisses)
	}
	if stats.ZeroResultCount != 1 {
		t.Errorf("ZeroResultCount = %d, want 1", stats.ZeroResultCount)
	}
	wantAvg := float64(10+20+5) / 3
	if stats.AvgLatencyMs != wantAvg {
		t.Errorf("AvgLatencyMs = %v, want %v", stats.AvgLatencyMs, wantAvg)
	}
}

func TestAggregatorTracksTopQueries(t *testing.T) {
	agg := NewAggregator(nil)
	for i := 0; i < 3; i++ {
		agg.recordSearchEvent(SearchEvent{Query: "coronavirus", TotalHits: 1})
	}
	agg.recordSearchEvent(SearchEvent{Query: "spike protein", TotalHits: 1})

	stats := agg.Stats()
	if len(stats.TopQueries) == 0 {
		t.Fatal("expected at least one top query")
	}
	if stats.TopQueries[0].Query != "coronavirus" || stats.TopQueries[0].Count != 3 {
		t.Errorf("TopQueries[0] = %+v, want {coronavirus 3}", stats.TopQueries[0])
	}
}

func TestAggregatorTracksZeroResultQueries(t *testing.T) {
	agg := NewAggregator(nil)
	agg.recordSearchEvent(SearchEvent{Query: "obscure gibberish", TotalHits: 0})

	stats := agg.Stats()
	if len(stats.ZeroResultQueries) != 1 || stats.ZeroResultQueries[0].Query != "obscure gibberish" {
		t.Errorf("ZeroResultQueries = %v, want a single entry for 'obscure gibberish'", stats.ZeroResultQueries)
	}
}

func TestAggregatorRecordsIndexEvents(t *testing.T) {
	agg := NewAggregator(nil)
	agg.recordIndexEvent(IndexEvent{CordUID: "ug7v899j"})
	agg.recordIndexEvent(IndexEvent{CordUID: "02tnwd4m"})

	stats := agg.Stats()
	if stats.TotalDocIndexed != 2 {
		t.Errorf("TotalDocIndexed = %d, want 2", stats.TotalDocIndexed)
	}
}

func TestPercentileComputation(t *testing.T) {
	sorted := []int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if p50 := percentile(sorted, 50); p50 != 60 {
		t.Errorf("percentile(50) = %d, want 60", p50)
	}
	if p99 := percentile(sorted, 99); p99 != 100 {
		t.Errorf("percentile(99) = %d, want 100", p99)
	}
	if p := percentile(nil, 50); p != 0 {
		t.Errorf("percentile(nil) = %d, want 0", p)
	}
}

func TestTopNTruncatesAndOrdersByCount(t *testing.T) {
	counts := map[string]int64{"a": 1, "b": 5, "c": 3}
	got := topN(counts, 2)
	if len(got) != 2 {
		t.Fatalf("topN returned %d entries, want 2", len(got))
	}
	if got[0].Query != "b" || got[1].Query != "c" {
		t.Errorf("topN = %v, want [b c] ordered by count desc", got)
	}
}
