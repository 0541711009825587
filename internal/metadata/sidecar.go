// Package metadata implements the lazy lookup of extra per-document
// fields (url, author, publish_time, abstract) from the CORD-19
// metadata.csv source file, grounded in the reference lexicon.cpp CSV
// parser and lookup-by-offset scheme.
package metadata

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// RowMeta is the byte-offset index plus the small inline subset of a
// metadata.csv row that is cheap enough to keep resident for every
// document.
type RowMeta struct {
	Offset      int64
	Length      int64
	URL         string
	PublishTime string
	Author      string
}

// Sidecar maps cord_uid to its row location and inline fields.
type Sidecar struct {
	path string
	rows map[string]RowMeta
	cols columnIndex
}

// columnIndex names the metadata.csv columns this sidecar cares about.
type columnIndex struct {
	cordUID, url, publishTime, authors, abstract int
}

// Load streams path once, recording each row's byte offset/length and
// extracting cord_uid, url, publish_time, and author inline. The CSV
// dialect is comma-separated with double-quoted fields; "" escapes a
// literal quote inside a quoted field.
func Load(path string) (*Sidecar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReaderSize(f, 1<<20)
	header, headerLen, err := readCSVLine(r)
	if err != nil {
		return nil, fmt.Errorf("reading metadata header: %w", err)
	}
	cols := indexColumns(header)

	sc := &Sidecar{path: path, rows: make(map[string]RowMeta), cols: cols}
	var offset int64 = int64(headerLen)
	for {
		fields, n, err := readCSVLine(r)
		if n == 0 && err != nil {
			break
		}
		rowOffset := offset
		offset += int64(n)
		if len(fields) == 0 {
			continue
		}
		uid := fieldAt(fields, cols.cordUID)
		if uid == "" {
			continue
		}
		sc.rows[uid] = RowMeta{
			Offset:      rowOffset,
			Length:      int64(n),
			URL:         firstBeforeSemicolon(fieldAt(fields, cols.url)),
			PublishTime: fieldAt(fields, cols.publishTime),
			Author:      fieldAt(fields, cols.authors),
		}
		if err != nil {
			break
		}
	}
	return sc, nil
}

// Lookup returns the cheap inline fields for a cord_uid, if present.
func (sc *Sidecar) Lookup(cordUID string) (RowMeta, bool) {
	m, ok := sc.rows[cordUID]
	return m, ok
}

// Record is a fully-hydrated metadata.csv row, including the abstract.
type Record struct {
	CordUID     string
	URL         string
	PublishTime string
	Author      string
	Abstract    string
}

// Fetch re-opens the source file, seeks to the row's recorded offset,
// and parses that single row into a full Record.
func (sc *Sidecar) Fetch(cordUID string) (Record, bool) {
	rm, ok := sc.rows[cordUID]
	if !ok {
		return Record{}, false
	}
	f, err := os.Open(sc.path)
	if err != nil {
		return Record{}, false
	}
	defer f.Close()
	buf := make([]byte, rm.Length)
	if _, err := f.ReadAt(buf, rm.Offset); err != nil {
		return Record{}, false
	}
	fields, _, err := readCSVLine(bufio.NewReader(strings.NewReader(string(buf))))
	if err != nil && len(fields) == 0 {
		return Record{}, false
	}

	return Record{
		CordUID:     cordUID,
		URL:         rm.URL,
		PublishTime: rm.PublishTime,
		Author:      rm.Author,
		Abstract:    fieldAt(fields, sc.cols.abstract),
	}, true
}

func indexColumns(header []string) columnIndex {
	c := columnIndex{-1, -1, -1, -1, -1}
	for i, name := range header {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "cord_uid":
			c.cordUID = i
		case "url":
			c.url = i
		case "publish_time":
			c.publishTime = i
		case "authors":
			c.authors = i
		case "abstract":
			c.abstract = i
		}
	}
	return c
}

func fieldAt(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func firstBeforeSemicolon(s string) string {
	if idx := strings.IndexByte(s, ';'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// readCSVLine reads one quote-aware CSV record (which may span multiple
// physical lines if a field contains an embedded newline) and returns
// the parsed fields, the number of bytes consumed, and any read error.
// A non-nil error with a non-empty fields slice means the final record
// in the file lacked a trailing newline.
func readCSVLine(r *bufio.Reader) ([]string, int, error) {
	var fields []string
	var field strings.Builder
	inQuotes := false
	consumed := 0
	sawAny := false

	for {
		b, err := r.ReadByte()
		if err != nil {
			if sawAny || field.Len() > 0 || len(fields) > 0 {
				fields = append(fields, field.String())
				return fields, consumed, err
			}
			return nil, consumed, err
		}
		consumed++
		sawAny = true

		switch {
		case inQuotes:
			if b == '"' {
				next, peekErr := r.Peek(1)
				if peekErr == nil && len(next) == 1 && next[0] == '"' {
					field.WriteByte('"')
					r.ReadByte()
					consumed++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(b)
		case b == '"':
			inQuotes = true
		case b == ',':
			fields = append(fields, field.String())
			field.Reset()
		case b == '\n':
			fields = append(fields, field.String())
			return fields, consumed, nil
		case b == '\r':
			// swallow; \n follows
		default:
			field.WriteByte(b)
		}
	}
}
