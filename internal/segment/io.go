package segment

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	sperrors "github.com/cord19search/searchplatform/pkg/errors"
)

// ReadManifest parses manifest.bin: u32 count; for each entry, u32 len
// followed by that many bytes of name. Segment names are returned in the
// order they were written, which callers must treat as significant.
func ReadManifest(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: manifest count: %v", sperrors.ErrSegmentCorrupt, err)
	}
	names := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: manifest entry %d: %v", sperrors.ErrSegmentCorrupt, i, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// WriteManifest writes segment names atomically (tmp file then rename),
// preserving the given order.
func WriteManifest(path string, names []string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeU32(w, uint32(len(names))); err != nil {
		f.Close()
		return err
	}
	for _, n := range names {
		if err := writeString(w, n); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// AppendManifest reads the existing manifest (treating a missing file as
// empty) and rewrites it with name appended.
func AppendManifest(path string, name string) error {
	names, err := ReadManifest(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	names = append(names, name)
	return WriteManifest(path, names)
}

// ReadLexicon parses lexicon.bin into a term -> LexiconEntry map. Entry
// order on disk is arbitrary; the reader is responsible for building the
// lookup index.
func ReadLexicon(path string) (map[string]LexiconEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("%w: lexicon count: %v", sperrors.ErrSegmentCorrupt, err)
	}
	lex := make(map[string]LexiconEntry, count)
	for i := uint32(0); i < count; i++ {
		term, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("%w: lexicon term %d: %v", sperrors.ErrSegmentCorrupt, i, err)
		}
		df, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: lexicon df: %v", sperrors.ErrSegmentCorrupt, err)
		}
		barrelID, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: lexicon barrelId: %v", sperrors.ErrSegmentCorrupt, err)
		}
		offset, err := readU64(r)
		if err != nil {
			return nil, fmt.Errorf("%w: lexicon offset: %v", sperrors.ErrSegmentCorrupt, err)
		}
		cnt, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("%w: lexicon count field: %v", sperrors.ErrSegmentCorrupt, err)
		}
		lex[term] = LexiconEntry{DF: df, BarrelID: barrelID, Offset: offset, Count: cnt}
	}
	return lex, nil
}

// WriteLexicon writes term -> LexiconEntry pairs to lexicon.bin. Iteration
// order of the map becomes the on-disk order, which readers must not rely
// on.
func WriteLexicon(path string, lex map[string]LexiconEntry) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeU32(w, uint32(len(lex))); err != nil {
		f.Close()
		return err
	}
	for term, e := range lex {
		if err := writeString(w, term); err != nil {
			f.Close()
			return err
		}
		if err := writeU32(w, e.DF); err != nil {
			f.Close()
			return err
		}
		if err := writeU32(w, e.BarrelID); err != nil {
			f.Close()
			return err
		}
		if err := writeU64(w, e.Offset); err != nil {
			f.Close()
			return err
		}
		if err := writeU32(w, e.Count); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ReadDocs parses docs.bin into the document table plus the trailing
// avgdl f32. If the trailer is absent (older files), avgdl is computed
// from the doc_len fields.
func ReadDocs(path string) ([]DocRecord, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	r := bufio.NewReader(f)
	n, err := readU32(r)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: docs count: %v", sperrors.ErrSegmentCorrupt, err)
	}
	docs := make([]DocRecord, 0, n)
	var totalLen uint64
	for i := uint32(0); i < n; i++ {
		uid, err := readString(r)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: doc %d uid: %v", sperrors.ErrSegmentCorrupt, i, err)
		}
		title, err := readString(r)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: doc %d title: %v", sperrors.ErrSegmentCorrupt, i, err)
		}
		path, err := readString(r)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: doc %d path: %v", sperrors.ErrSegmentCorrupt, i, err)
		}
		docLen, err := readU32(r)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: doc %d doc_len: %v", sperrors.ErrSegmentCorrupt, i, err)
		}
		docs = append(docs, DocRecord{CordUID: uid, Title: title, JSONRelPath: path, DocLen: docLen})
		totalLen += uint64(docLen)
	}
	var avgdl float64
	var trailer [4]byte
	if _, err := io.ReadFull(r, trailer[:]); err == nil {
		avgdl = float64(math.Float32frombits(binary.LittleEndian.Uint32(trailer[:])))
	} else if n > 0 {
		avgdl = float64(totalLen) / float64(n)
	}
	return docs, avgdl, nil
}

// WriteDocs writes the document table followed by the avgdl f32 trailer.
func WriteDocs(path string, docs []DocRecord, avgdl float64) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := writeU32(w, uint32(len(docs))); err != nil {
		f.Close()
		return err
	}
	for _, d := range docs {
		if err := writeString(w, d.CordUID); err != nil {
			f.Close()
			return err
		}
		if err := writeString(w, d.Title); err != nil {
			f.Close()
			return err
		}
		if err := writeString(w, d.JSONRelPath); err != nil {
			f.Close()
			return err
		}
		if err := writeU32(w, d.DocLen); err != nil {
			f.Close()
			return err
		}
	}
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], math.Float32bits(float32(avgdl)))
	if _, err := w.Write(trailer[:]); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// WritePostings writes one barrel file from an ordered slice of posting
// runs in a single pass and returns each run's starting offset, counted
// in postings (not bytes). Callers write one barrel file per call.
func WritePostings(path string, runs [][]Posting) (offsets []uint64, err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	offsets = make([]uint64, len(runs))
	var pos uint64
	for i, run := range runs {
		offsets[i] = pos
		for _, p := range run {
			if err := writeU32(w, p.DocID); err != nil {
				f.Close()
				return nil, err
			}
			if err := writeU32(w, p.TF); err != nil {
				f.Close()
				return nil, err
			}
			pos++
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return nil, err
	}
	return offsets, nil
}

const postingSize = 8 // two u32 fields

// ReadPostingsAt reads count postings starting at the given posting-index
// offset (not byte offset) from an already-open file via a positional
// read, so concurrent readers never share or mutate a file cursor.
func ReadPostingsAt(f *os.File, offset uint64, count uint32) ([]Posting, error) {
	if count == 0 {
		return nil, nil
	}
	buf := make([]byte, int(count)*postingSize)
	if _, err := f.ReadAt(buf, int64(offset)*postingSize); err != nil {
		return nil, fmt.Errorf("%w: reading postings: %v", sperrors.ErrSegmentCorrupt, err)
	}
	out := make([]Posting, count)
	for i := range out {
		base := i * postingSize
		out[i] = Posting{
			DocID: binary.LittleEndian.Uint32(buf[base : base+4]),
			TF:    binary.LittleEndian.Uint32(buf[base+4 : base+8]),
		}
	}
	return out, nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}
