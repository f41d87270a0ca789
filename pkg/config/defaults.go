package config

const (
	defaultMode              = "batch"
	defaultBatchSize         = 16
	defaultMaxBatchDrift     = 35.0
	defaultRollbackOnFailure = true
	defaultWorkers           = 1

	defaultWindowSize          = 10
	defaultConfidenceThreshold = 75.0
	defaultAuthorConfidenceBar = 70.0

	defaultStorageProvider = "sqlite"

	defaultAuditSink      = "jsonl"
	defaultAuditVerbosity = "standard"
	defaultKafkaTopic     = "strata-audit"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values. Path fields
// stay empty here; commands resolve them against the .strata/ directory.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Pipeline: PipelineConfig{
			Mode:              defaultMode,
			BatchSize:         defaultBatchSize,
			MaxBatchDrift:     defaultMaxBatchDrift,
			RollbackOnFailure: defaultRollbackOnFailure,
			Workers:           defaultWorkers,
		},
		Analyzer: AnalyzerConfig{
			WindowSize:          defaultWindowSize,
			ConfidenceThreshold: defaultConfidenceThreshold,
			AuthorConfidenceBar: defaultAuthorConfidenceBar,
		},
		Storage: StorageConfig{
			Provider: defaultStorageProvider,
		},
		Audit: AuditConfig{
			Sink:       defaultAuditSink,
			Verbosity:  defaultAuditVerbosity,
			KafkaTopic: defaultKafkaTopic,
		},
	}
}
