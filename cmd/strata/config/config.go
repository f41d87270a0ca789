// Package configcmder provides the config command for managing persistent
// strata configuration stored in the .strata/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent strata configuration.

Configuration is stored as config.toml in the .strata/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  pipeline.mode, pipeline.batch_size, pipeline.max_batch_drift,
  pipeline.rollback_on_failure, pipeline.workers,
  analyzer.window_size, analyzer.confidence_threshold,
  analyzer.author_confidence_bar, analyzer.relevance_keywords,
  storage.provider, storage.sqlite_path, storage.postgres_target,
  audit.sink, audit.verbosity, audit.jsonl_path,
  audit.kafka_brokers, audit.kafka_topic,
  checkpoint.dir, report.path

Use subcommands to get, set, or list configuration values:
  strata config set <key> <value>    Set a configuration value
  strata config get <key>            Get a configuration value
  strata config list                 List all configuration values

Examples:
  strata config set storage.provider postgres
  strata config set pipeline.batch_size 32
  strata config get audit.sink
  strata config list`

const configShortDesc string = "Manage persistent strata configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
