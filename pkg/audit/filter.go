package audit

import "context"

// FilterSink applies the configured verbosity before forwarding events to
// the wrapped sink:
//
//   - basic: only medium severity and above
//   - standard: every event, with structured detail stripped
//   - comprehensive: every event as emitted
type FilterSink struct {
	next  Sink
	level Verbosity
}

// NewFilterSink wraps next with a verbosity filter.
func NewFilterSink(next Sink, level Verbosity) *FilterSink {
	return &FilterSink{next: next, level: level}
}

func (s *FilterSink) Append(ctx context.Context, e Event) error {
	switch s.level {
	case VerbosityBasic:
		if e.Severity == SeverityInfo {
			return nil
		}
		e.Detail = nil
	case VerbosityStandard:
		e.Detail = nil
	}

	return s.next.Append(ctx, e)
}

func (s *FilterSink) Close() error {
	return s.next.Close()
}
