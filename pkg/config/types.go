package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent strata configuration stored as
// config.toml in the .strata/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version    int              `toml:"version"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Analyzer   AnalyzerConfig   `toml:"analyzer"`
	Storage    StorageConfig    `toml:"storage"`
	Audit      AuditConfig      `toml:"audit"`
	Checkpoint CheckpointConfig `toml:"checkpoint"`
	Report     ReportConfig     `toml:"report"`
}

// PipelineConfig holds batch orchestration settings.
type PipelineConfig struct {
	Mode              string  `toml:"mode,omitempty"`
	BatchSize         int     `toml:"batch_size,omitempty"`
	MaxBatchDrift     float64 `toml:"max_batch_drift,omitempty"`
	RollbackOnFailure bool    `toml:"rollback_on_failure"`
	Workers           int     `toml:"workers,omitempty"`
}

// AnalyzerConfig holds drift analysis tuning.
type AnalyzerConfig struct {
	WindowSize          int      `toml:"window_size,omitempty"`
	ConfidenceThreshold float64  `toml:"confidence_threshold,omitempty"`
	AuthorConfidenceBar float64  `toml:"author_confidence_bar,omitempty"`
	RelevanceKeywords   []string `toml:"relevance_keywords,omitempty"`
}

// StorageConfig holds partition store settings.
type StorageConfig struct {
	Provider       string `toml:"provider,omitempty"`
	SQLitePath     string `toml:"sqlite_path,omitempty"`
	PostgresTarget string `toml:"postgres_target,omitempty"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Sink         string   `toml:"sink,omitempty"`
	Verbosity    string   `toml:"verbosity,omitempty"`
	JSONLPath    string   `toml:"jsonl_path,omitempty"`
	KafkaBrokers []string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `toml:"kafka_topic,omitempty"`
}

// CheckpointConfig holds checkpoint chain settings.
type CheckpointConfig struct {
	Dir string `toml:"dir,omitempty"`
}

// ReportConfig holds run report settings.
type ReportConfig struct {
	Path string `toml:"path,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"pipeline.mode": {
		get: func(c *Config) string { return c.Pipeline.Mode },
		set: func(c *Config, v string) error { c.Pipeline.Mode = v; return nil },
	},
	"pipeline.batch_size": {
		get: func(c *Config) string { return strconv.Itoa(c.Pipeline.BatchSize) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for pipeline.batch_size: %w", err)
			}
			c.Pipeline.BatchSize = n
			return nil
		},
	},
	"pipeline.max_batch_drift": {
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Pipeline.MaxBatchDrift, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for pipeline.max_batch_drift: %w", err)
			}
			c.Pipeline.MaxBatchDrift = f
			return nil
		},
	},
	"pipeline.rollback_on_failure": {
		get: func(c *Config) string { return strconv.FormatBool(c.Pipeline.RollbackOnFailure) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for pipeline.rollback_on_failure: %w", err)
			}
			c.Pipeline.RollbackOnFailure = b
			return nil
		},
	},
	"pipeline.workers": {
		get: func(c *Config) string { return strconv.Itoa(c.Pipeline.Workers) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for pipeline.workers: %w", err)
			}
			c.Pipeline.Workers = n
			return nil
		},
	},
	"analyzer.window_size": {
		get: func(c *Config) string { return strconv.Itoa(c.Analyzer.WindowSize) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for analyzer.window_size: %w", err)
			}
			c.Analyzer.WindowSize = n
			return nil
		},
	},
	"analyzer.confidence_threshold": {
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Analyzer.ConfidenceThreshold, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for analyzer.confidence_threshold: %w", err)
			}
			c.Analyzer.ConfidenceThreshold = f
			return nil
		},
	},
	"analyzer.author_confidence_bar": {
		get: func(c *Config) string {
			return strconv.FormatFloat(c.Analyzer.AuthorConfidenceBar, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for analyzer.author_confidence_bar: %w", err)
			}
			c.Analyzer.AuthorConfidenceBar = f
			return nil
		},
	},
	"analyzer.relevance_keywords": {
		get: func(c *Config) string { return strings.Join(c.Analyzer.RelevanceKeywords, ",") },
		set: func(c *Config, v string) error {
			c.Analyzer.RelevanceKeywords = splitList(v)
			return nil
		},
	},
	"storage.provider": {
		get: func(c *Config) string { return c.Storage.Provider },
		set: func(c *Config, v string) error { c.Storage.Provider = v; return nil },
	},
	"storage.sqlite_path": {
		get: func(c *Config) string { return c.Storage.SQLitePath },
		set: func(c *Config, v string) error { c.Storage.SQLitePath = v; return nil },
	},
	"storage.postgres_target": {
		get: func(c *Config) string { return c.Storage.PostgresTarget },
		set: func(c *Config, v string) error { c.Storage.PostgresTarget = v; return nil },
	},
	"audit.sink": {
		get: func(c *Config) string { return c.Audit.Sink },
		set: func(c *Config, v string) error { c.Audit.Sink = v; return nil },
	},
	"audit.verbosity": {
		get: func(c *Config) string { return c.Audit.Verbosity },
		set: func(c *Config, v string) error { c.Audit.Verbosity = v; return nil },
	},
	"audit.jsonl_path": {
		get: func(c *Config) string { return c.Audit.JSONLPath },
		set: func(c *Config, v string) error { c.Audit.JSONLPath = v; return nil },
	},
	"audit.kafka_brokers": {
		get: func(c *Config) string { return strings.Join(c.Audit.KafkaBrokers, ",") },
		set: func(c *Config, v string) error {
			c.Audit.KafkaBrokers = splitList(v)
			return nil
		},
	},
	"audit.kafka_topic": {
		get: func(c *Config) string { return c.Audit.KafkaTopic },
		set: func(c *Config, v string) error { c.Audit.KafkaTopic = v; return nil },
	},
	"checkpoint.dir": {
		get: func(c *Config) string { return c.Checkpoint.Dir },
		set: func(c *Config, v string) error { c.Checkpoint.Dir = v; return nil },
	},
	"report.path": {
		get: func(c *Config) string { return c.Report.Path },
		set: func(c *Config, v string) error { c.Report.Path = v; return nil },
	},
}

// splitList parses a comma-separated list, trimming whitespace and
// dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
