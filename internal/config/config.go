package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	LogDir    string `toml:"log_dir"`
	AuditDir  string `toml:"audit_dir"`
	MirrorDir string `toml:"mirror_dir"`
}

// Matcher contains the resolution cascade thresholds.
type Matcher struct {
	AutoAcceptScore  float64 `toml:"auto_accept_score"`
	AutoAcceptMargin float64 `toml:"auto_accept_margin"`
	SuggestScore     float64 `toml:"suggest_score"`
	MaxSuggestions   int     `toml:"max_suggestions"`
	FuzzyPoolSize    int     `toml:"fuzzy_pool_size"`
	FuzzyMinScore    float64 `toml:"fuzzy_min_score"`
}

// Pipeline contains timing and concurrency settings for resolution.
type Pipeline struct {
	InlineTimeoutMS    int     `toml:"inline_timeout_ms"`
	FallbackTimeoutMS  int     `toml:"fallback_timeout_ms"`
	PendingTimeoutMS   int     `toml:"pending_timeout_ms"`
	PendingCapacity    int     `toml:"pending_capacity"`
	HeavyHypotheses    int     `toml:"heavy_hypotheses"`
	FastPathConfidence float64 `toml:"fast_path_confidence"`
	ASRWeight          float64 `toml:"asr_weight"`
}

// Audit contains configuration for the audit trail.
type Audit struct {
	QueueCapacity   int `toml:"queue_capacity"`
	RetentionDays   int `toml:"retention_days"`
	MirrorTailLines int `toml:"mirror_tail_lines"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for vink.
//
// Configuration sections by subsystem:
//   - Paths: data, log, audit, and mirror directories
//   - Matcher: cascade acceptance and suggestion thresholds
//   - Pipeline: inline budgets, pending queue sizing, confidence blending
//   - Audit: audit queue capacity, retention, mirror tail bound
//   - Logging: log format, level, and retention
type Config struct {
	Paths    Paths    `toml:"paths"`
	Matcher  Matcher  `toml:"matcher"`
	Pipeline Pipeline `toml:"pipeline"`
	Audit    Audit    `toml:"audit"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vink/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vink.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for operation. MirrorDir is
// never created: it points at removable media and its absence simply
// disables the mirror.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.AuditDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SnapshotPath returns the catalog snapshot location inside DataDir.
func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Paths.DataDir, "catalog.snapshot")
}

// AliasDBPath returns the learned-alias database location inside DataDir.
func (c *Config) AliasDBPath() string {
	return filepath.Join(c.Paths.DataDir, "aliases.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
