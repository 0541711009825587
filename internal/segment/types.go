// Package segment implements the on-disk binary format for one immutable
// index segment (manifest, lexicon, document table, postings) and the
// in-memory handle used to serve lookups against it. The format is
// grounded in the layout produced by the reference CORD-19 indexer
// (lexicon.txt / inverted_index.txt / barrel_N.idx), but stores every
// field as fixed-width little-endian binary instead of text.
package segment

// DocID is a segment-local, dense, 0-based document identifier.
type DocID = uint32

// TermID is a segment-local identifier assigned at build time; it exists
// only to decide barrel placement (barrelId = termID % barrelCount) and
// is not persisted on disk. Lookups at read time key off the term string
// and use the barrelId already recorded in the lexicon entry.
type TermID = uint32

// LexiconEntry locates one term's posting run within a segment.
type LexiconEntry struct {
	DF       uint32
	BarrelID uint32
	Offset   uint64
	Count    uint32
}

// Posting is one (DocID, term frequency) pair.
type Posting struct {
	DocID DocID
	TF    uint32
}

// DocRecord is one row of a segment's document table.
type DocRecord struct {
	CordUID     string
	Title       string
	JSONRelPath string
	DocLen      uint32
}

// Stats holds the aggregate values that BM25 scoring needs about a
// segment as a whole.
type Stats struct {
	N     uint32
	AvgDL float64
}
