package aisummary

import (
	"context"
	"errors"
	"testing"
	"time"

	sperrors "github.com/cord19search/searchplatform/pkg/errors"
)

type stubSummarizer struct {
	calls int
	out   string
	err   error
}

func (s *stubSummarizer) Summarize(_ context.Context, _ string, _ string) (string, error) {
	s.calls++
	return s.out, s.err
}

func TestGetOrGenerateDeniesUnauthorized(t *testing.T) {
	stub := &stubSummarizer{out: "a summary"}
	svc := NewService(NewCache(10, time.Minute), stub)

	_, err := svc.GetOrGenerate(context.Background(), "ug7v899j", "an abstract.", false)
	if err == nil {
		t.Fatal("expected an error for unauthorized access")
	}
	if !errors.Is(err, sperrors.ErrUnauthorized) {
		t.Errorf("error = %v, want wrapping ErrUnauthorized", err)
	}
	if stub.calls != 0 {
		t.Errorf("summarizer called %d times, want 0 (denial should short-circuit)", stub.calls)
	}
	if svc.Stats().Snapshot().Denied != 1 {
		t.Errorf("Denied = %d, want 1", svc.Stats().Snapshot().Denied)
	}
}

func TestGetOrGenerateCachesOnMiss(t *testing.T) {
	stub := &stubSummarizer{out: "generated summary"}
	svc := NewService(NewCache(10, time.Minute), stub)

	got, err := svc.GetOrGenerate(context.Background(), "ug7v899j", "an abstract.", true)
	if err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	if got != "generated summary" {
		t.Errorf("summary = %q, want %q", got, "generated summary")
	}
	if stub.calls != 1 {
		t.Errorf("summarizer called %d times, want 1", stub.calls)
	}

	got2, err := svc.GetOrGenerate(context.Background(), "ug7v899j", "an abstract.", true)
	if err != nil {
		t.Fatalf("GetOrGenerate (second call): %v", err)
	}
	if got2 != "generated summary" {
		t.Errorf("cached summary = %q, want %q", got2, "generated summary")
	}
	if stub.calls != 1 {
		t.Errorf("summarizer called %d times after cache hit, want still 1", stub.calls)
	}

	snap := svc.Stats().Snapshot()
	if snap.Misses != 1 || snap.Hits != 1 || snap.Generated != 1 {
		t.Errorf("Snapshot = %+v, want {Hits:1 Misses:1 Generated:1}", snap)
	}
}

func TestGetOrGenerateDoesNotCacheSummarizerError(t *testing.T) {
	stub := &stubSummarizer{err: errors.New("summarizer unavailable")}
	svc := NewService(NewCache(10, time.Minute), stub)

	_, err := svc.GetOrGenerate(context.Background(), "ug7v899j", "an abstract.", true)
	if err == nil {
		t.Fatal("expected an error from the summarizer")
	}

	stub.err = nil
	stub.out = "recovered summary"
	got, err := svc.GetOrGenerate(context.Background(), "ug7v899j", "an abstract.", true)
	if err != nil {
		t.Fatalf("GetOrGenerate after recovery: %v", err)
	}
	if got != "recovered summary" {
		t.Errorf("summary = %q, want %q (error result must not have been cached)", got, "recovered summary")
	}
	if stub.calls != 2 {
		t.Errorf("summarizer called %d times, want 2", stub.calls)
	}
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	c := NewCache(10, time.Nanosecond)
	c.Put("ug7v899j", "stale summary")
	time.Sleep(time.Millisecond)
	if _, ok := c.Get("ug7v899j"); ok {
		t.Error("Get returned an entry past its TTL")
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, time.Hour)
	c.Put("a", "summary-a")
	c.Put("b", "summary-b")
	c.Get("a") // touch a, making b the LRU entry
	c.Put("c", "summary-c")

	if _, ok := c.Get("b"); ok {
		t.Error("expected 'b' to have been evicted as least-recently-used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("expected 'a' to survive eviction")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("expected 'c' to be present")
	}
}

func TestExtractiveSummarizerTruncatesToFirstSentence(t *testing.T) {
	s := NewExtractiveSummarizer()
	got, err := s.Summarize(context.Background(), "ug7v899j", "First sentence. Second sentence.")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "First sentence." {
		t.Errorf("Summarize = %q, want %q", got, "First sentence.")
	}
}

func TestExtractiveSummarizerEmptyAbstract(t *testing.T) {
	s := NewExtractiveSummarizer()
	got, err := s.Summarize(context.Background(), "ug7v899j", "   ")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if got != "" {
		t.Errorf("Summarize(empty) = %q, want empty", got)
	}
}
