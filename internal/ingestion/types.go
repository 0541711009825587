// Package ingestion implements the segment-building side of the
// pipeline: batching raw documents consumed off Kafka, tokenizing them,
// and writing a new segment directory in the C1 on-disk format,
// grounded in the reference indexer.Engine's in-memory accumulation and
// flush-loop, and in original_source/backend/lexicon.cpp's document
// indexing pass.
package ingestion

// RawDocument is the payload carried on the document-ingest Kafka
// topic. It is not persisted by the query engine; it exists only to
// drive segment construction.
type RawDocument struct {
	CordUID     string `json:"cord_uid"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	JSONRelPath string `json:"json_relpath"`
}

// IndexCompleteEvent is published after a segment finishes writing, so
// the searcher's Kafka consumer knows to call Engine.Reload.
type IndexCompleteEvent struct {
	Segment  string `json:"segment"`
	DocCount int    `json:"doc_count"`
}

// IngestRequest is the JSON body accepted by the document intake HTTP
// endpoint.
type IngestRequest struct {
	CordUID     string `json:"cord_uid"`
	Title       string `json:"title"`
	Abstract    string `json:"abstract"`
	JSONRelPath string `json:"json_relpath"`
}

// IngestResponse is returned to the caller after a document is accepted.
type IngestResponse struct {
	CordUID string `json:"cord_uid"`
	Status  string `json:"status"`
}
