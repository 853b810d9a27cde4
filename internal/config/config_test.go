package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile %s: %v", name, err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tscfgd.yaml", `
port: 9090
storageDir: store
maxUploadMB: 4
concurrency: 3
logs:
  maxSizeMB: 10
  compress: true
report:
  title: Panel configs
  qrSize: 96
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.MaxUploadMB != 4 || cfg.Concurrency != 3 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.StorageDir != filepath.Join(dir, "store") {
		t.Fatalf("StorageDir = %q", cfg.StorageDir)
	}
	if cfg.Logs.Directory != filepath.Join(dir, "store", "logs") {
		t.Fatalf("Logs.Directory = %q", cfg.Logs.Directory)
	}
	if cfg.AuditLog != filepath.Join(dir, "store", "decode.jsonl") {
		t.Fatalf("AuditLog = %q", cfg.AuditLog)
	}
	if cfg.Logs.MaxSizeMB != 10 || !cfg.Logs.Compress || cfg.Logs.MaxBackups != 5 || cfg.Logs.MaxAgeDays != 7 {
		t.Fatalf("Logs = %+v", cfg.Logs)
	}
	if cfg.Report.Title != "Panel configs" || cfg.Report.QRSize != 96 {
		t.Fatalf("Report = %+v", cfg.Report)
	}
	if cfg.MaxUploadBytes() != 4<<20 {
		t.Fatalf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tscfgd.toml", `
port = 7000
storageDir = "/var/lib/tscfg"
auditLog = "audit/decode.jsonl"

[logs]
directory = "/var/log/tscfg"
maxBackups = 2

[report]
author = "line 3"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 7000 || cfg.StorageDir != "/var/lib/tscfg" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.AuditLog != filepath.Join(dir, "audit", "decode.jsonl") {
		t.Fatalf("AuditLog = %q", cfg.AuditLog)
	}
	if cfg.Logs.Directory != "/var/log/tscfg" || cfg.Logs.MaxBackups != 2 {
		t.Fatalf("Logs = %+v", cfg.Logs)
	}
	if cfg.Report.Author != "line 3" || cfg.Report.Title != "Cfg Bin Report" {
		t.Fatalf("Report = %+v", cfg.Report)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		file string
		body string
		want string
	}{
		{name: "unknown extension", file: "c.ini", body: "port=1", want: "not supported"},
		{name: "bad yaml", file: "c.yaml", body: "port: [", want: "parse failed"},
		{name: "bad toml", file: "c.toml", body: "port = ", want: "parse failed"},
		{name: "port range", file: "p.yaml", body: "port: 70000", want: "port out of range"},
		{name: "negative upload", file: "u.yaml", body: "maxUploadMB: -1", want: "maxUploadMB"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, tc.file, tc.body)
			_, err := Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want containing %q", err, tc.want)
			}
		})
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Port != 8080 || cfg.MaxUploadMB != 16 || cfg.Concurrency <= 0 {
		t.Fatalf("Default = %+v", cfg)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}
