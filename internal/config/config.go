package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Directory  string `yaml:"directory" toml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB" toml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays" toml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups" toml:"maxBackups"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

type ReportConfig struct {
	Title  string `yaml:"title" toml:"title"`
	Author string `yaml:"author" toml:"author"`
	QRSize int    `yaml:"qrSize" toml:"qrSize"`
}

type Config struct {
	Port        int          `yaml:"port" toml:"port"`
	StorageDir  string       `yaml:"storageDir" toml:"storageDir"`
	MaxUploadMB int          `yaml:"maxUploadMB" toml:"maxUploadMB"`
	Concurrency int          `yaml:"concurrency" toml:"concurrency"`
	AuditLog    string       `yaml:"auditLog" toml:"auditLog"`
	Logs        LogConfig    `yaml:"logs" toml:"logs"`
	Report      ReportConfig `yaml:"report" toml:"report"`
}

// Load reads a YAML (.yaml, .yml) or TOML (.toml) config file, fills in
// defaults and resolves relative paths against the file's directory.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("config format not supported: %s", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	cfg.ApplyDefaults()
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

func (c *Config) resolvePaths(baseDir string) {
	resolve := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" {
			return ""
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}
	c.StorageDir = resolve(c.StorageDir)
	c.AuditLog = resolve(c.AuditLog)
	c.Logs.Directory = resolve(c.Logs.Directory)
}

func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.StorageDir == "" {
		c.StorageDir = filepath.Join(".", "data")
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 16
	}
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.NumCPU()
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(c.StorageDir, "decode.jsonl")
	}
	if c.Logs.Directory == "" {
		c.Logs.Directory = filepath.Join(c.StorageDir, "logs")
	}
	if c.Logs.MaxSizeMB <= 0 {
		c.Logs.MaxSizeMB = 25
	}
	if c.Logs.MaxAgeDays <= 0 {
		c.Logs.MaxAgeDays = 7
	}
	if c.Logs.MaxBackups <= 0 {
		c.Logs.MaxBackups = 5
	}
	if c.Report.Title == "" {
		c.Report.Title = "Cfg Bin Report"
	}
	if c.Report.QRSize <= 0 {
		c.Report.QRSize = 128
	}
}

func Validate(cfg Config) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("config port out of range: %d", cfg.Port)
	}
	if cfg.MaxUploadMB < 0 {
		return fmt.Errorf("config maxUploadMB must not be negative: %d", cfg.MaxUploadMB)
	}
	if strings.TrimSpace(cfg.StorageDir) == "" {
		return errors.New("config missing storageDir")
	}
	return nil
}

// MaxUploadBytes converts MaxUploadMB to bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}
