package searchengine

import (
	"math"
	"testing"
)

func TestIDFDecreasesAsDocumentFrequencyIncreases(t *testing.T) {
	rare := idf(1000, 2)
	common := idf(1000, 500)
	if rare <= common {
		t.Errorf("idf(rare)=%v should exceed idf(common)=%v", rare, common)
	}
}

func TestIDFStaysNonNegativeForNearUniversalTerms(t *testing.T) {
	// The +1 inside the log (Lucene-style) keeps idf non-negative even
	// for a term appearing in almost every document, unlike the classic
	// Robertson-Sparck-Jones formulation.
	got := idf(10, 9)
	if got < 0 {
		t.Errorf("idf(10,9) = %v, want non-negative", got)
	}
	if got >= idf(10, 1) {
		t.Errorf("idf(10,9) = %v should still be smaller than idf(10,1) = %v", got, idf(10, 1))
	}
}

func TestTermScoreZeroWhenAvgdlZero(t *testing.T) {
	if got := termScore(1.0, 2.0, 3, 10, 0); got != 0 {
		t.Errorf("termScore with avgdl=0 = %v, want 0", got)
	}
}

func TestTermScoreScalesWithWeight(t *testing.T) {
	full := termScore(1.0, 1.5, 5, 100, 100)
	half := termScore(0.5, 1.5, 5, 100, 100)
	if math.Abs(full-2*half) > 1e-9 {
		t.Errorf("termScore should scale linearly with w: full=%v, 2*half=%v", full, 2*half)
	}
}

func TestTermScorePenalizesLongerDocuments(t *testing.T) {
	short := termScore(1.0, 1.5, 5, 50, 100)
	long := termScore(1.0, 1.5, 5, 500, 100)
	if long >= short {
		t.Errorf("termScore for a document longer than average should score lower: short=%v long=%v", short, long)
	}
}

func TestTermScoreIncreasesWithTermFrequencyButSaturates(t *testing.T) {
	low := termScore(1.0, 1.5, 1, 100, 100)
	high := termScore(1.0, 1.5, 100, 100, 100)
	if high <= low {
		t.Errorf("higher term frequency should score higher: low=%v high=%v", low, high)
	}
	// k1 bounds the marginal contribution of additional occurrences.
	veryHigh := termScore(1.0, 1.5, 100000, 100, 100)
	if veryHigh-high > high {
		t.Errorf("termScore growth should saturate as tf grows large: high=%v veryHigh=%v", high, veryHigh)
	}
}
