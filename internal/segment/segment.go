package segment

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sperrors "github.com/cord19search/searchplatform/pkg/errors"
)

// Segment is an immutable, in-memory handle to one on-disk segment. All
// posting reads are positional (os.File.ReadAt), so a single Segment may
// be shared and read concurrently by any number of searches without
// external locking.
type Segment struct {
	Name    string
	lexicon map[string]LexiconEntry
	docs    []DocRecord
	stats   Stats
	barrels []*os.File // len==1 for monolithic inv.bin, len==N for barrels
}

// Open loads a segment directory produced by a Builder. It fails fatally
// (wrapping ErrSegmentCorrupt) if any file is malformed or a lexicon
// entry's offset+count range exceeds its barrel file.
func Open(dir string) (*Segment, error) {
	name := filepath.Base(dir)
	lex, err := ReadLexicon(filepath.Join(dir, "lexicon.bin"))
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", name, err)
	}
	docs, avgdl, err := ReadDocs(filepath.Join(dir, "docs.bin"))
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", name, err)
	}
	barrels, err := openBarrels(dir)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", name, err)
	}
	s := &Segment{
		Name:    name,
		lexicon: lex,
		docs:    docs,
		stats:   Stats{N: uint32(len(docs)), AvgDL: avgdl},
		barrels: barrels,
	}
	if err := s.validate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("segment %s: %w", name, err)
	}
	return s, nil
}

func openBarrels(dir string) ([]*os.File, error) {
	if _, err := os.Stat(filepath.Join(dir, "inv.bin")); err == nil {
		f, err := os.Open(filepath.Join(dir, "inv.bin"))
		if err != nil {
			return nil, err
		}
		return []*os.File{f}, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "barrel_") && strings.HasSuffix(e.Name(), ".bin") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no inv.bin or barrel files found", sperrors.ErrSegmentCorrupt)
	}
	// Order barrel_<id>.bin by numeric id so index i is barrel i: comparing
	// lengths first puts barrel_9.bin before barrel_10.bin.
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) < len(names[j])
		}
		return names[i] < names[j]
	})
	barrels := make([]*os.File, len(names))
	for i, n := range names {
		f, err := os.Open(filepath.Join(dir, n))
		if err != nil {
			for _, opened := range barrels[:i] {
				if opened != nil {
					opened.Close()
				}
			}
			return nil, err
		}
		barrels[i] = f
	}
	return barrels, nil
}

// validate enforces the segment-level invariants: postings sorted and
// unique by DocID, df matching posting count, and offset+count ranges
// staying within their barrel file.
func (s *Segment) validate() error {
	for term, e := range s.lexicon {
		barrelIdx := int(e.BarrelID)
		if barrelIdx >= len(s.barrels) {
			return fmt.Errorf("%w: term %q barrelId %d out of range", sperrors.ErrSegmentCorrupt, term, e.BarrelID)
		}
		fi, err := s.barrels[barrelIdx].Stat()
		if err != nil {
			return err
		}
		endByte := int64(e.Offset+uint64(e.Count)) * postingSize
		if endByte > fi.Size() {
			return fmt.Errorf("%w: term %q offset+count exceeds barrel size", sperrors.ErrSegmentCorrupt, term)
		}
		if e.DF != e.Count {
			return fmt.Errorf("%w: term %q df %d != posting count %d", sperrors.ErrSegmentCorrupt, term, e.DF, e.Count)
		}
	}
	return nil
}

// Lookup returns the lexicon entry for term, if present.
func (s *Segment) Lookup(term string) (LexiconEntry, bool) {
	e, ok := s.lexicon[term]
	return e, ok
}

// ReadPostings returns the entry's posting run, sorted ascending by
// DocID as required by the on-disk contract.
func (s *Segment) ReadPostings(e LexiconEntry) ([]Posting, error) {
	return ReadPostingsAt(s.barrels[e.BarrelID], e.Offset, e.Count)
}

// Doc returns the document record for id.
func (s *Segment) Doc(id DocID) (DocRecord, bool) {
	if int(id) >= len(s.docs) {
		return DocRecord{}, false
	}
	return s.docs[id], true
}

// Stats returns the segment's document count and average document
// length.
func (s *Segment) Stats() Stats {
	return s.stats
}

// Terms returns every term in the segment's lexicon, unordered. Used to
// build the merged autocomplete/semantic vocabulary on reload.
func (s *Segment) Terms() map[string]LexiconEntry {
	return s.lexicon
}

// Close releases the segment's open barrel file handles.
func (s *Segment) Close() error {
	var firstErr error
	for _, f := range s.barrels {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
