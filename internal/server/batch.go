package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"example.com/tscfg/internal/cfgbin"
	"example.com/tscfg/internal/common"
)

// maxBatchRequest bounds the JSON list of artifact ids.
const maxBatchRequest = 1 << 20

type batchRecord struct {
	Input  string       `json:"input"`
	Name   string       `json:"name,omitempty"`
	Sha256 string       `json:"sha256,omitempty"`
	OK     bool         `json:"ok"`
	Kind   string       `json:"kind,omitempty"`
	Error  string       `json:"error,omitempty"`
	Bin    *cfgbin.View `json:"bin,omitempty"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchRequest)
	var req struct {
		Inputs []string `json:"inputs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), statusForBodyError(err))
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	writer := NewNDJSONWriter(w)
	ctx := r.Context()
	err := runOrdered(len(req.Inputs), s.concurrency, func(i int) batchRecord {
		return s.decodeBatchInput(ctx, req.Inputs[i])
	}, func(rec batchRecord) error {
		return writer.WriteObject(rec)
	})
	records, failed := writer.Counts()
	if err != nil {
		common.Logf("batch stream stopped after %d of %d records: %v", records, len(req.Inputs), err)
		return
	}
	common.Logf("batch decoded %d inputs (%d failed)", records, failed)
}

func (s *Server) decodeBatchInput(ctx context.Context, input string) batchRecord {
	rec := batchRecord{Input: input}
	if err := ctx.Err(); err != nil {
		rec.Error = err.Error()
		rec.Kind = cfgbin.KindIO
		return rec
	}
	art, ok := s.getArtifact(input)
	if !ok {
		rec.Error = fmt.Sprintf("unknown artifact %q", input)
		rec.Kind = cfgbin.KindIO
		return rec
	}
	rec.Name = art.Name
	data, err := s.readArtifact(art)
	if err != nil {
		rec.Error = err.Error()
		rec.Kind = cfgbin.KindIO
		return rec
	}
	bin, digest, err := s.decodeInput(art.Name, data)
	rec.Sha256 = digest
	if err != nil {
		rec.Error = err.Error()
		rec.Kind = cfgbin.Kind(err)
		return rec
	}
	view := cfgbin.NewView(bin)
	rec.OK = true
	rec.Bin = &view
	return rec
}

// readArtifact reads a stored artifact, refusing anything over the upload
// limit.
func (s *Server) readArtifact(art Artifact) ([]byte, error) {
	f, err := os.Open(art.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.Mode().IsRegular() || info.Size() > s.maxUpload {
		return nil, fmt.Errorf("input %s exceeds %d bytes", art.Name, s.maxUpload)
	}
	data, err := io.ReadAll(io.LimitReader(f, s.maxUpload+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if int64(len(data)) > s.maxUpload {
		return nil, fmt.Errorf("input %s exceeds %d bytes", art.Name, s.maxUpload)
	}
	return data, nil
}

// runOrdered calls work for every index in [0, n) on at most workers
// goroutines and hands the results to emit in index order. Once emit fails
// the remaining results are drained without being emitted.
func runOrdered[T any](n, workers int, work func(i int) T, emit func(T) error) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 || workers > n {
		workers = n
	}
	results := make([]chan T, n)
	for i := range results {
		results[i] = make(chan T, 1)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] <- work(i)
			}
		}()
	}
	go func() {
		for i := 0; i < n; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	var firstErr error
	for i := 0; i < n; i++ {
		v := <-results[i]
		if firstErr == nil {
			firstErr = emit(v)
		}
	}
	wg.Wait()
	return firstErr
}
