package audit

import "context"

// NopSink discards all events. Used when auditing is disabled.
type NopSink struct{}

// NewNopSink creates a no-op audit sink.
func NewNopSink() *NopSink {
	return &NopSink{}
}

func (NopSink) Append(context.Context, Event) error { return nil }

func (NopSink) Close() error { return nil }
