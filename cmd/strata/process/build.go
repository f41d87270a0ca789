package processcmder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/threadworksco/strata/pkg/audit"
	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/partition/inmemory"
	"github.com/threadworksco/strata/pkg/partition/postgres"
	"github.com/threadworksco/strata/pkg/partition/sqlite"
)

// buildStore constructs the partition store named by storage.provider.
// Relative paths resolve against the .strata/ target directory.
func buildStore(ctx context.Context, v *viper.Viper, target string) (partition.Store, error) {
	provider := v.GetString("storage.provider")

	switch provider {
	case "memory":
		return inmemory.NewStore(), nil

	case "sqlite":
		path := v.GetString("storage.sqlite_path")
		if path == "" {
			path = filepath.Join(target, "partitions.db")
		}
		return sqlite.NewStore(path)

	case "postgres":
		connStr := v.GetString("storage.postgres_target")
		if connStr == "" {
			return nil, errors.New("storage.postgres_target is required for the postgres provider")
		}
		return postgres.NewStore(ctx, connStr)

	default:
		return nil, fmt.Errorf("unknown storage provider %q (memory, sqlite, or postgres)", provider)
	}
}

// buildSink constructs the audit sink named by audit.sink, wrapped in a
// verbosity filter.
func buildSink(v *viper.Viper, target string, verbosity audit.Verbosity) (audit.Sink, error) {
	var base audit.Sink
	var err error

	switch name := v.GetString("audit.sink"); name {
	case "none":
		base = audit.NewNopSink()

	case "memory":
		base = audit.NewMemorySink()

	case "jsonl":
		path := v.GetString("audit.jsonl_path")
		if path == "" {
			path = filepath.Join(target, "audit.jsonl")
		}
		base, err = audit.NewJSONLSink(path)
		if err != nil {
			return nil, err
		}

	case "kafka":
		brokers := v.GetStringSlice("audit.kafka_brokers")
		base, err = audit.NewKafkaSink(brokers, v.GetString("audit.kafka_topic"))
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown audit sink %q (jsonl, kafka, memory, or none)", name)
	}

	return audit.NewFilterSink(base, verbosity), nil
}
