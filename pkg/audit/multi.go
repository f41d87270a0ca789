package audit

import (
	"context"
	"errors"
)

// MultiSink fans every event out to all wrapped sinks. Used to write the
// local JSONL log and stream to Kafka simultaneously.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink creates a sink dispatching to all provided sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (s *MultiSink) Append(ctx context.Context, e Event) error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *MultiSink) Close() error {
	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
