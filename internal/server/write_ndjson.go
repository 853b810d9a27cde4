package server

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

// NDJSONWriter streams batch records as newline-delimited JSON, flushing
// after each record when the destination supports it.
type NDJSONWriter struct {
	mu      sync.Mutex
	enc     *json.Encoder
	flusher http.Flusher
	records int
	failed  int
}

// NewNDJSONWriter wraps w. A w that implements http.Flusher is flushed after
// every record.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	flusher, _ := w.(http.Flusher)
	return &NDJSONWriter{enc: json.NewEncoder(w), flusher: flusher}
}

// WriteObject encodes v as one line.
func (w *NDJSONWriter) WriteObject(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(v); err != nil {
		return err
	}
	w.records++
	if rec, ok := v.(batchRecord); ok && !rec.OK {
		w.failed++
	}
	if w.flusher != nil {
		w.flusher.Flush()
	}
	return nil
}

// Counts reports how many records were written and how many of them were
// failed batch records.
func (w *NDJSONWriter) Counts() (records, failed int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.records, w.failed
}
