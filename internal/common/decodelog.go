package common

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DecodeEntry records the outcome of decoding one input.
type DecodeEntry struct {
	File   string    `json:"file"`
	Sha256 string    `json:"sha256,omitempty"`
	Size   int64     `json:"size"`
	OK     bool      `json:"ok"`
	Kind   string    `json:"kind,omitempty"`
	Error  string    `json:"error,omitempty"`
	PkgNum int       `json:"pkgNum,omitempty"`
	Ts     time.Time `json:"ts"`
}

// DecodeLog provides append-only access to a JSONL audit log.
type DecodeLog struct {
	path string
	mu   sync.Mutex
}

// NewDecodeLog returns a DecodeLog that writes to the provided path.
func NewDecodeLog(path string) *DecodeLog {
	return &DecodeLog{path: path}
}

// Path returns the backing file path for the log.
func (l *DecodeLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append writes entry as one JSON line.
func (l *DecodeLog) Append(entry DecodeEntry) error {
	if l == nil {
		return errors.New("nil decode log")
	}
	if entry.File == "" {
		return errors.New("decode entry missing file")
	}
	if entry.Ts.IsZero() {
		entry.Ts = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	dir := filepath.Dir(l.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return err
	}
	return f.Sync()
}

// ReadDecodeLog loads every entry from the supplied JSONL file.
func ReadDecodeLog(path string) ([]DecodeEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	var entries []DecodeEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var entry DecodeEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
