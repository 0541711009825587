package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Builder assembles one segment directory from an in-memory batch: a
// document table and a term -> postings map. It is the write side of the
// format Segment.Open reads, used by the ingestion pipeline (and by
// tests to produce fixture segments).
type Builder struct {
	// BarrelCount selects barrel sharding. 0 or 1 means a single
	// monolithic inv.bin; N>1 splits postings across barrel_0..N-1 by
	// termId % N, assigning termId in ascending lexicographic term order.
	BarrelCount int
}

// Build writes dir/{lexicon.bin,docs.bin,inv.bin|barrel_*.bin}. postings
// values must already be sorted ascending by DocID; Build does not
// re-sort them since the ingestion batcher accumulates them in DocID
// order.
func (b *Builder) Build(dir string, docs []DocRecord, postings map[string][]Posting) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}

	var totalLen uint64
	for _, d := range docs {
		totalLen += uint64(d.DocLen)
	}
	var avgdl float64
	if len(docs) > 0 {
		avgdl = float64(totalLen) / float64(len(docs))
	}
	if err := WriteDocs(filepath.Join(dir, "docs.bin"), docs, avgdl); err != nil {
		return fmt.Errorf("writing docs: %w", err)
	}

	terms := make([]string, 0, len(postings))
	for t := range postings {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	barrelCount := b.BarrelCount
	if barrelCount < 1 {
		barrelCount = 1
	}
	runs := make([][][]Posting, barrelCount)
	lex := make(map[string]LexiconEntry, len(terms))
	barrelOf := make(map[string]int, len(terms))
	for termID, term := range terms {
		barrel := termID % barrelCount
		barrelOf[term] = barrel
		runs[barrel] = append(runs[barrel], postings[term])
	}

	offsetsByBarrel := make([][]uint64, barrelCount)
	for barrel := 0; barrel < barrelCount; barrel++ {
		path := filepath.Join(dir, barrelFileName(barrelCount, barrel))
		offsets, err := WritePostings(path, runs[barrel])
		if err != nil {
			return fmt.Errorf("writing barrel %d: %w", barrel, err)
		}
		offsetsByBarrel[barrel] = offsets
	}

	runIndexInBarrel := make(map[int]int, barrelCount)
	for _, term := range terms {
		barrel := barrelOf[term]
		idx := runIndexInBarrel[barrel]
		runIndexInBarrel[barrel] = idx + 1
		run := postings[term]
		lex[term] = LexiconEntry{
			DF:       uint32(len(run)),
			BarrelID: uint32(barrel),
			Offset:   offsetsByBarrel[barrel][idx],
			Count:    uint32(len(run)),
		}
	}

	if err := WriteLexicon(filepath.Join(dir, "lexicon.bin"), lex); err != nil {
		return fmt.Errorf("writing lexicon: %w", err)
	}
	return nil
}

func barrelFileName(barrelCount, barrel int) string {
	if barrelCount <= 1 {
		return "inv.bin"
	}
	return fmt.Sprintf("barrel_%d.bin", barrel)
}
