// Package processcmder provides the `strata process` CLI command.
package processcmder

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/threadworksco/strata/pkg/audit"
	"github.com/threadworksco/strata/pkg/checkpoint"
	"github.com/threadworksco/strata/pkg/cliui"
	"github.com/threadworksco/strata/pkg/config"
	"github.com/threadworksco/strata/pkg/dotdir"
	"github.com/threadworksco/strata/pkg/drift"
	"github.com/threadworksco/strata/pkg/export"
	"github.com/threadworksco/strata/pkg/logger"
	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/pipeline"
	"github.com/threadworksco/strata/pkg/router"
	"github.com/threadworksco/strata/pkg/thread"
)

const processLongDesc string = `Process conversation exports through the archaeology pipeline.

Each export file is parsed into threads, every message is scored for
confidence and analyzed for drift against its context window, and the
results are committed batch by batch into the tiered memory partitions.
Checkpoints guard each batch so failed or high-drift batches can be
rolled back.

Examples:
  strata process export.json
  strata process --mode dry_run export.json
  strata process --batch-size 32 --max-batch-drift 40 export.json
  strata process --storage-provider postgres --postgres "postgres://localhost/strata" export.json
  strata process --watch --report report.json export.json`

const processShortDesc string = "Process conversation exports into memory partitions"

type processCommander struct {
	mode                string
	batchSize           int
	maxBatchDrift       float64
	rollback            bool
	workers             int
	windowSize          int
	confidenceThreshold float64
	authorBar           float64
	relevanceKeywords   []string
	storageProvider     string
	sqlitePath          string
	postgresTarget      string
	auditSink           string
	verbosity           string
	jsonlPath           string
	kafkaBrokers        []string
	kafkaTopic          string
	checkpointDir       string
	reportPath          string
	watch               bool
	pretty              bool
}

// processFlags is the flag registry for the process command. Names,
// shorthands, and viper keys live here so they cannot drift if another
// command grows the same flag.
var processFlags = config.FlagSet{
	config.FlagMode: {
		Name: "mode", Shorthand: "m", ViperKey: "pipeline.mode",
		Description: "Pipeline mode: batch or dry_run",
	},
	config.FlagBatchSize: {
		Name: "batch-size", Shorthand: "b", ViperKey: "pipeline.batch_size",
		Description: "Threads per batch",
	},
	config.FlagMaxBatchDrift: {
		Name: "max-batch-drift", ViperKey: "pipeline.max_batch_drift",
		Description: "Aggregate drift limit before a batch is rolled back",
	},
	config.FlagRollback: {
		Name: "rollback", ViperKey: "pipeline.rollback_on_failure",
		Description: "Roll back batches that fail or breach the drift limit",
	},
	config.FlagWorkers: {
		Name: "workers", ViperKey: "pipeline.workers",
		Description: "Analysis workers per batch",
	},
	config.FlagWindowSize: {
		Name: "window-size", ViperKey: "analyzer.window_size",
		Description: "Context window size around each message",
	},
	config.FlagConfidenceThreshold: {
		Name: "confidence-threshold", ViperKey: "analyzer.confidence_threshold",
		Description: "Confidence bar for primary partition routing",
	},
	config.FlagAuthorBar: {
		Name: "author-confidence-bar", ViperKey: "analyzer.author_confidence_bar",
		Description: "Confidence bar for the source-author index",
	},
	config.FlagRelevanceKeywords: {
		Name: "relevance-keywords", ViperKey: "analyzer.relevance_keywords",
		Description: "Keywords for the subject-relevance index",
	},
	config.FlagStorageProvider: {
		Name: "storage-provider", ViperKey: "storage.provider",
		Description: "Partition store backend: memory, sqlite, or postgres",
	},
	config.FlagSQLite: {
		Name: "sqlite", Shorthand: "s", ViperKey: "storage.sqlite_path",
		Description: "Path to the SQLite partition database",
	},
	config.FlagPostgres: {
		Name: "postgres", ViperKey: "storage.postgres_target",
		Description: "PostgreSQL connection string",
	},
	config.FlagAuditSink: {
		Name: "audit-sink", ViperKey: "audit.sink",
		Description: "Audit sink: jsonl, kafka, memory, or none",
	},
	config.FlagVerbosity: {
		Name: "verbosity", ViperKey: "audit.verbosity",
		Description: "Audit verbosity: basic, standard, or comprehensive",
	},
	config.FlagJSONLPath: {
		Name: "audit-log", ViperKey: "audit.jsonl_path",
		Description: "Path to the JSONL audit log",
	},
	config.FlagKafkaBrokers: {
		Name: "kafka-brokers", ViperKey: "audit.kafka_brokers",
		Description: "Kafka broker addresses for the audit stream",
	},
	config.FlagKafkaTopic: {
		Name: "kafka-topic", ViperKey: "audit.kafka_topic",
		Description: "Kafka topic for the audit stream",
	},
	config.FlagCheckpointDir: {
		Name: "checkpoint-dir", ViperKey: "checkpoint.dir",
		Description: "Directory for the checkpoint chain",
	},
	config.FlagReportPath: {
		Name: "report", Shorthand: "r", ViperKey: "report.path",
		Description: "Write the run report as JSON to this path",
	},
}

// boundFlagKeys lists every registry key bound into viper in PreRun.
var boundFlagKeys = []string{
	config.FlagMode,
	config.FlagBatchSize,
	config.FlagMaxBatchDrift,
	config.FlagRollback,
	config.FlagWorkers,
	config.FlagWindowSize,
	config.FlagConfidenceThreshold,
	config.FlagAuthorBar,
	config.FlagRelevanceKeywords,
	config.FlagStorageProvider,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagAuditSink,
	config.FlagVerbosity,
	config.FlagJSONLPath,
	config.FlagKafkaBrokers,
	config.FlagKafkaTopic,
	config.FlagCheckpointDir,
	config.FlagReportPath,
}

// NewProcessCmd creates the process cobra command.
func NewProcessCmd() *cobra.Command {
	cmder := &processCommander{}

	cmd := &cobra.Command{
		Use:   "process <export>...",
		Short: processShortDesc,
		Long:  processLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	config.AddStringFlag(cmd, processFlags, config.FlagMode, &cmder.mode)
	config.AddIntFlag(cmd, processFlags, config.FlagBatchSize, &cmder.batchSize)
	config.AddFloatFlag(cmd, processFlags, config.FlagMaxBatchDrift, &cmder.maxBatchDrift)
	config.AddBoolFlag(cmd, processFlags, config.FlagRollback, &cmder.rollback)
	config.AddIntFlag(cmd, processFlags, config.FlagWorkers, &cmder.workers)
	config.AddIntFlag(cmd, processFlags, config.FlagWindowSize, &cmder.windowSize)
	config.AddFloatFlag(cmd, processFlags, config.FlagConfidenceThreshold, &cmder.confidenceThreshold)
	config.AddFloatFlag(cmd, processFlags, config.FlagAuthorBar, &cmder.authorBar)
	config.AddStringSliceFlag(cmd, processFlags, config.FlagRelevanceKeywords, &cmder.relevanceKeywords)
	config.AddStringFlag(cmd, processFlags, config.FlagStorageProvider, &cmder.storageProvider)
	config.AddStringFlag(cmd, processFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, processFlags, config.FlagPostgres, &cmder.postgresTarget)
	config.AddStringFlag(cmd, processFlags, config.FlagAuditSink, &cmder.auditSink)
	config.AddStringFlag(cmd, processFlags, config.FlagVerbosity, &cmder.verbosity)
	config.AddStringFlag(cmd, processFlags, config.FlagJSONLPath, &cmder.jsonlPath)
	config.AddStringSliceFlag(cmd, processFlags, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, processFlags, config.FlagKafkaTopic, &cmder.kafkaTopic)
	config.AddStringFlag(cmd, processFlags, config.FlagCheckpointDir, &cmder.checkpointDir)
	config.AddStringFlag(cmd, processFlags, config.FlagReportPath, &cmder.reportPath)
	cmd.Flags().BoolVarP(&cmder.watch, "watch", "w", false, "Reprocess whenever an input file changes")
	cmd.Flags().BoolVar(&cmder.pretty, "pretty", false, "Render the run report as formatted markdown")

	return cmd
}

func (c *processCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return err
	}
	config.BindRegisteredFlags(v, cmd, processFlags, boundFlagKeys)

	log := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(true),
		logger.WithWriter(cmd.ErrOrStderr()),
	)

	mode, ok := pipeline.ParseMode(v.GetString("pipeline.mode"))
	if !ok {
		return fmt.Errorf("invalid pipeline mode %q (batch or dry_run)", v.GetString("pipeline.mode"))
	}

	verbosity, ok := audit.ParseVerbosity(v.GetString("audit.verbosity"))
	if !ok {
		return fmt.Errorf("invalid audit verbosity %q (basic, standard, or comprehensive)", v.GetString("audit.verbosity"))
	}

	ddm := dotdir.NewManager()
	target, err := ddm.EnsureTarget(configDir)
	if err != nil {
		return err
	}

	sink, err := buildSink(v, target, verbosity)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	var store partition.Store
	if mode == pipeline.ModeBatch {
		store, err = buildStore(ctx, v, target)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	analyzer := drift.NewAnalyzer(drift.Config{
		WindowSize:          v.GetInt("analyzer.window_size"),
		ConfidenceThreshold: v.GetFloat64("analyzer.confidence_threshold"),
		Logger:              log,
		Sink:                sink,
	})

	rtr, err := router.NewRouter(router.Config{
		Store:               store,
		Sink:                sink,
		Logger:              log,
		AuthorConfidenceBar: v.GetFloat64("analyzer.author_confidence_bar"),
		RelevanceKeywords:   v.GetStringSlice("analyzer.relevance_keywords"),
		DryRun:              mode == pipeline.ModeDryRun,
	})
	if err != nil {
		return err
	}

	var cps checkpoint.Store
	if mode == pipeline.ModeBatch {
		dir := v.GetString("checkpoint.dir")
		if dir == "" {
			dir = filepath.Join(target, "checkpoints")
		}
		cps, err = checkpoint.NewFileStore(dir)
		if err != nil {
			return err
		}
	}

	orch, err := pipeline.New(pipeline.Config{
		Mode:              mode,
		BatchSize:         v.GetInt("pipeline.batch_size"),
		MaxBatchDrift:     v.GetFloat64("pipeline.max_batch_drift"),
		RollbackOnFailure: v.GetBool("pipeline.rollback_on_failure"),
		Workers:           v.GetInt("pipeline.workers"),
		Analyzer:          analyzer,
		Router:            rtr,
		Store:             store,
		Checkpoints:       cps,
		Sink:              sink,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	if prev, err := ddm.LoadRunState(configDir); err == nil && prev != nil {
		log.Debug("previous run",
			"run_id", prev.RunID,
			"finished_at", prev.FinishedAt,
			"threads_committed", prev.ThreadsCommitted,
		)
	}

	reportPath := v.GetString("report.path")

	runOnce := func() error {
		return c.processOnce(ctx, cmd, log, sink, orch, ddm, configDir, reportPath, args)
	}

	if err := runOnce(); err != nil {
		return err
	}

	if c.watch {
		return watchAndRun(ctx, log, args, runOnce)
	}

	return nil
}

// processOnce parses all inputs and drives one pipeline run.
func (c *processCommander) processOnce(
	ctx context.Context,
	cmd *cobra.Command,
	log *slog.Logger,
	sink audit.Sink,
	orch *pipeline.Orchestrator,
	ddm *dotdir.Manager,
	configDir string,
	reportPath string,
	args []string,
) error {
	parser := export.NewParser(export.Config{Logger: log, Sink: sink})

	var threads []*thread.Thread
	skipped := 0
	for _, path := range args {
		convs, err := export.NewFileSource(path).Fetch(ctx)
		if err != nil {
			return fmt.Errorf("reading export %s: %w", path, err)
		}

		parsed, sk := parser.Parse(ctx, convs)
		threads = append(threads, parsed...)
		skipped += sk
	}

	if skipped > 0 {
		log.Warn("skipped malformed conversations", "count", skipped)
	}
	log.Info("parsed exports", "files", len(args), "threads", len(threads))

	report, runErr := orch.Run(ctx, threads)
	if report != nil {
		c.printReport(cmd, log, report)

		if reportPath != "" {
			if err := report.WriteFile(reportPath); err != nil {
				log.Error("failed to write report", "path", reportPath, "error", err)
			}
		}

		state := &dotdir.RunState{
			RunID:            report.RunID,
			ReportPath:       reportPath,
			FinishedAt:       report.FinishedAt,
			ThreadsCommitted: report.ThreadsCommitted,
		}
		if err := ddm.SaveRunState(state, configDir); err != nil {
			log.Warn("failed to save run state", "error", err)
		}
	}

	if runErr == nil && report != nil && report.Failed() {
		return fmt.Errorf("run %s finished with a failed batch", report.RunID)
	}

	return runErr
}

// printReport writes the run digest to stdout, rendered as markdown when
// --pretty is set.
func (c *processCommander) printReport(cmd *cobra.Command, log *slog.Logger, report *pipeline.Report) {
	if c.pretty {
		rendered, err := cliui.RenderMarkdown(report.Markdown())
		if err == nil {
			fmt.Fprintln(cmd.OutOrStdout(), rendered)
			return
		}
		log.Warn("markdown rendering failed, falling back to plain output", "error", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.Summary())
}
