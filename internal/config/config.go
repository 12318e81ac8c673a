// Package config loads the YAML run configuration of the processhits CLI.
//
// A config file fills in everything a run needs; command-line flags that
// were set explicitly override the file. Byte sizes accept human notation
// ("512MiB", "2GB") and string values are expanded against the environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned for config values that fail validation.
var ErrInvalid = errors.New("config: invalid value")

// InputConfig names the four input arrays.
type InputConfig struct {
	Scores         string `yaml:"scores"`
	Indices        string `yaml:"indices"`
	QueryBoundary  string `yaml:"query_boundary"`
	TargetBoundary string `yaml:"target_boundary"`
	QueryKind      string `yaml:"query_kind,omitempty"`
	TargetKind     string `yaml:"target_kind,omitempty"`
}

// OutputConfig describes where and how the table is written.
type OutputConfig struct {
	Path        string `yaml:"path"`
	Format      string `yaml:"format,omitempty"`
	Precision   int    `yaml:"precision,omitempty"`
	IDBase      int64  `yaml:"id_base,omitempty"`
	Header      bool   `yaml:"header,omitempty"`
	Summary     string `yaml:"summary,omitempty"`
	LedgerTable string `yaml:"ledger_table,omitempty"`
	Region      string `yaml:"region,omitempty"`
}

// MinIOConfig holds connection settings for minio:// outputs.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
	Secure    bool   `yaml:"secure,omitempty"`
}

// LimitsConfig caps resource usage. Sizes are human-readable strings.
type LimitsConfig struct {
	Memory string `yaml:"memory,omitempty"`
	IO     string `yaml:"io,omitempty"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Config is the complete run configuration.
type Config struct {
	Input   InputConfig  `yaml:"input"`
	Output  OutputConfig `yaml:"output"`
	Bias    float32      `yaml:"bias"`
	Threads int          `yaml:"threads,omitempty"`
	Mode    string       `yaml:"mode,omitempty"`
	Limits  LimitsConfig `yaml:"limits,omitempty"`
	MinIO   MinIOConfig  `yaml:"minio,omitempty"`
	Log     LogConfig    `yaml:"log,omitempty"`
}

// DefaultConfig returns the settings used when neither file nor flag sets a value.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			QueryKind:  "offsets",
			TargetKind: "offsets",
		},
		Output: OutputConfig{
			Format:    "tsv",
			Precision: 7,
		},
		Threads: 1,
		Mode:    "all",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path on top of DefaultConfig. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, leaving absent keys untouched, and expands
// environment references in string values.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate checks values that the library would otherwise reject later
// with a less specific message.
func (c *Config) Validate() error {
	if c.Threads < 1 {
		return fmt.Errorf("%w: threads must be at least 1, got %d", ErrInvalid, c.Threads)
	}
	if c.Output.Path == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalid)
	}
	for name, v := range map[string]string{
		"scores":          c.Input.Scores,
		"indices":         c.Input.Indices,
		"query_boundary":  c.Input.QueryBoundary,
		"target_boundary": c.Input.TargetBoundary,
	} {
		if v == "" {
			return fmt.Errorf("%w: input %s is required", ErrInvalid, name)
		}
	}
	if _, err := c.MemoryLimit(); err != nil {
		return err
	}
	if _, err := c.IOLimit(); err != nil {
		return err
	}
	return nil
}

// MemoryLimit returns the parsed memory limit in bytes (0 means unlimited).
func (c *Config) MemoryLimit() (int64, error) {
	return ParseSize("memory limit", c.Limits.Memory)
}

// IOLimit returns the parsed output limit in bytes per second (0 means unlimited).
func (c *Config) IOLimit() (int64, error) {
	return ParseSize("io limit", strings.TrimSuffix(c.Limits.IO, "/s"))
}

// ParseSize parses a human byte size such as "8GiB". Empty means 0.
func ParseSize(what, s string) (int64, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %w", ErrInvalid, what, s, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("%w: %s %q is too large", ErrInvalid, what, s)
	}
	return int64(n), nil
}
