// Package config loads ttgraph's runtime configuration from environment
// variables, with an optional YAML overlay file for settings that are
// awkward to express as env vars.
//
// Example:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every ttgraph runtime setting. It is organized into
// sections the way a larger engine's configuration would be, even though
// ttgraph itself only has a handful of knobs today, so a new section has
// an obvious home.
type Config struct {
	Commit    CommitConfig
	Snapshot  SnapshotConfig
	Telemetry TelemetryConfig
	Logging   LoggingConfig
}

// CommitConfig controls the commit engine's default behavior.
type CommitConfig struct {
	// CheckedByDefault makes callers that ask for "the configured
	// default" use CommitChecked instead of Commit.
	CheckedByDefault bool
	// EagerGroupIndexing controls whether Registry builds its group
	// index as variants are registered (the only mode ttgraph currently
	// implements) versus lazily on first query; reserved for a future
	// lazy-index strategy.
	EagerGroupIndexing bool
}

// SnapshotConfig controls pkg/snapshot's optional on-disk cache.
type SnapshotConfig struct {
	Directory            string
	BadgerCacheDirectory string
}

// TelemetryConfig controls pkg/telemetry instrumentation.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

// LoggingConfig controls pkg/glog.
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadFromEnv builds a Config from TTGRAPH_* environment variables,
// falling back to sensible defaults for anything unset.
func LoadFromEnv() *Config {
	return &Config{
		Commit: CommitConfig{
			CheckedByDefault:   envBool("TTGRAPH_COMMIT_CHECKED_BY_DEFAULT", false),
			EagerGroupIndexing: envBool("TTGRAPH_EAGER_GROUP_INDEX", true),
		},
		Snapshot: SnapshotConfig{
			Directory:            envString("TTGRAPH_SNAPSHOT_DIR", "./snapshots"),
			BadgerCacheDirectory: envString("TTGRAPH_SNAPSHOT_CACHE_DIR", "./snapshots/cache"),
		},
		Telemetry: TelemetryConfig{
			Enabled:     envBool("TTGRAPH_TELEMETRY_ENABLED", false),
			ServiceName: envString("TTGRAPH_TELEMETRY_SERVICE_NAME", "ttgraph"),
		},
		Logging: LoggingConfig{
			Level:  envString("TTGRAPH_LOG_LEVEL", "info"),
			Format: envString("TTGRAPH_LOG_FORMAT", "text"),
		},
	}
}

// LoadYAMLOverlay reads a YAML file and merges any fields it sets on top
// of cfg, leaving fields the file does not mention untouched. A missing
// file is not an error: an overlay is optional.
func LoadYAMLOverlay(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: reading overlay %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("config: parsing overlay %s: %w", path, err)
	}
	mergeNonZero(cfg, &overlay)
	return nil
}

// mergeNonZero overlays non-empty string fields and explicitly-true bools
// from src onto dst. It is intentionally shallow: ttgraph's config has no
// nested structs deep enough to need a generic reflection-based merge.
func mergeNonZero(dst, src *Config) {
	if src.Commit.CheckedByDefault {
		dst.Commit.CheckedByDefault = true
	}
	if src.Snapshot.Directory != "" {
		dst.Snapshot.Directory = src.Snapshot.Directory
	}
	if src.Snapshot.BadgerCacheDirectory != "" {
		dst.Snapshot.BadgerCacheDirectory = src.Snapshot.BadgerCacheDirectory
	}
	if src.Telemetry.Enabled {
		dst.Telemetry.Enabled = true
	}
	if src.Telemetry.ServiceName != "" {
		dst.Telemetry.ServiceName = src.Telemetry.ServiceName
	}
	if src.Logging.Level != "" {
		dst.Logging.Level = src.Logging.Level
	}
	if src.Logging.Format != "" {
		dst.Logging.Format = src.Logging.Format
	}
}

// Validate reports an error for a logging level or format outside the
// supported set, or an empty snapshot directory. LoadFromEnv does not
// check these itself, so such values can come from TTGRAPH_* variables as
// well as from a YAML overlay.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: invalid logging format %q", c.Logging.Format)
	}
	if c.Snapshot.Directory == "" {
		return fmt.Errorf("config: snapshot directory must not be empty")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
