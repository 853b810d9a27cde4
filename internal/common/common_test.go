package common

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestDecodeLogAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "decode.jsonl")
	l := NewDecodeLog(path)
	if l.Path() != path {
		t.Fatalf("Path = %q, want %q", l.Path(), path)
	}
	entries := []DecodeEntry{
		{File: "a.bin", Size: 120, OK: true, PkgNum: 2},
		{File: "b.bin", Size: 9, Kind: "invalid_size", Error: "invalid size: header needs 10 bytes, have 9"},
	}
	for _, e := range entries {
		if err := l.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	got, err := ReadDecodeLog(path)
	if err != nil {
		t.Fatalf("ReadDecodeLog: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("entries = %d, want 2", len(got))
	}
	if !got[0].OK || got[0].PkgNum != 2 || got[0].Ts.IsZero() {
		t.Fatalf("entry 0 = %+v", got[0])
	}
	if got[1].OK || got[1].Kind != "invalid_size" {
		t.Fatalf("entry 1 = %+v", got[1])
	}
	if err := l.Append(DecodeEntry{}); err == nil {
		t.Fatalf("expected error for entry without file")
	}
	var nilLog *DecodeLog
	if err := nilLog.Append(entries[0]); err == nil {
		t.Fatalf("expected error for nil log")
	}
}

func TestReadDecodeLogRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	if err := os.WriteFile(path, []byte("{\"file\":\"a\"}\nnot json\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadDecodeLog(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestMetricsConcurrent(t *testing.T) {
	m := NewMetrics()
	m.SetTotalBytes(1000)
	m.Start()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				m.AddFailed(10)
				return
			}
			m.AddDecoded(100, 3)
		}(i)
	}
	wg.Wait()
	m.Stop()
	s := m.Snapshot()
	if s.Files != 10 || s.Failures != 2 || s.Packages != 24 {
		t.Fatalf("snapshot = %+v", s)
	}
	if s.Bytes != 820 {
		t.Fatalf("Bytes = %d, want 820", s.Bytes)
	}
	if c := s.Completion(); c < 0.81 || c > 0.83 {
		t.Fatalf("Completion = %f", c)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KiB"},
		{5 << 20, "5.00 MiB"},
	}
	for _, tc := range tests {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Fatalf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStartProgressPrinter(t *testing.T) {
	m := NewMetrics()
	m.Start()
	m.AddDecoded(2048, 1)
	var buf syncBuffer
	stop := StartProgressPrinter(&buf, m, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	stop()
	if !strings.Contains(buf.String(), "Processed: 2.00 KiB files=1 failed=0") {
		t.Fatalf("progress output = %q", buf.String())
	}
}

func TestSha256Hex(t *testing.T) {
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sha256Hex([]byte("abc")); got != want {
		t.Fatalf("Sha256Hex = %s", got)
	}
	path := filepath.Join(t.TempDir(), "abc")
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, digest, err := ReadFileDigest(path)
	if err != nil || string(data) != "abc" || digest != want {
		t.Fatalf("ReadFileDigest = %q %s %v", data, digest, err)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
