package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/threadworksco/strata/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the STRATA_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (STRATA_PIPELINE_MODE, STRATA_STORAGE_PROVIDER, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: STRATA_PIPELINE_BATCH_SIZE, STRATA_AUDIT_SINK, etc.
	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Pipeline
	v.SetDefault("pipeline.mode", d.Pipeline.Mode)
	v.SetDefault("pipeline.batch_size", d.Pipeline.BatchSize)
	v.SetDefault("pipeline.max_batch_drift", d.Pipeline.MaxBatchDrift)
	v.SetDefault("pipeline.rollback_on_failure", d.Pipeline.RollbackOnFailure)
	v.SetDefault("pipeline.workers", d.Pipeline.Workers)

	// Analyzer
	v.SetDefault("analyzer.window_size", d.Analyzer.WindowSize)
	v.SetDefault("analyzer.confidence_threshold", d.Analyzer.ConfidenceThreshold)
	v.SetDefault("analyzer.author_confidence_bar", d.Analyzer.AuthorConfidenceBar)
	v.SetDefault("analyzer.relevance_keywords", d.Analyzer.RelevanceKeywords)

	// Storage
	v.SetDefault("storage.provider", d.Storage.Provider)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_target", d.Storage.PostgresTarget)

	// Audit
	v.SetDefault("audit.sink", d.Audit.Sink)
	v.SetDefault("audit.verbosity", d.Audit.Verbosity)
	v.SetDefault("audit.jsonl_path", d.Audit.JSONLPath)
	v.SetDefault("audit.kafka_brokers", d.Audit.KafkaBrokers)
	v.SetDefault("audit.kafka_topic", d.Audit.KafkaTopic)

	// Checkpoint
	v.SetDefault("checkpoint.dir", d.Checkpoint.Dir)

	// Report
	v.SetDefault("report.path", d.Report.Path)
}
