// Package audit provides the append-only decision log for the pipeline.
//
// Every component receives a Sink and records its decisions through it.
// Sinks must be safe for concurrent appends; ordering is established by a
// monotonic sequence counter assigned at append time, not by wall-clock
// timestamps, so entries stay ordered under clock skew.
package audit

import (
	"context"
	"time"
)

// SchemaVersionV1 is the first version of the audit record schema.
const SchemaVersionV1 = 1

// Severity grades an audit event.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Stage identifies which pipeline component emitted an event.
type Stage string

const (
	StageParser       Stage = "parser"
	StageAnalyzer     Stage = "analyzer"
	StageOrchestrator Stage = "orchestrator"
	StageRouter       Stage = "router"
	StageCheckpoint   Stage = "checkpoint"
)

// Verbosity controls how much of the audit stream is recorded.
type Verbosity string

const (
	VerbosityBasic         Verbosity = "basic"
	VerbosityStandard      Verbosity = "standard"
	VerbosityComprehensive Verbosity = "comprehensive"
)

// ParseVerbosity validates a verbosity string from configuration.
func ParseVerbosity(s string) (Verbosity, bool) {
	switch Verbosity(s) {
	case VerbosityBasic, VerbosityStandard, VerbosityComprehensive:
		return Verbosity(s), true
	default:
		return "", false
	}
}

// Event is one append-only audit record. Events are never mutated or
// deleted once appended.
type Event struct {
	SchemaVersion int       `json:"schema_version"`
	ID            string    `json:"id"`
	Seq           uint64    `json:"seq"`
	Timestamp     time.Time `json:"timestamp"`
	Type          string    `json:"type"`
	Severity      Severity  `json:"severity"`
	Stage         Stage     `json:"stage"`
	Description   string    `json:"description"`

	// Detail carries optional structured context (ids, counts). Only
	// recorded at comprehensive verbosity.
	Detail map[string]any `json:"detail,omitempty"`
}

// Sink accepts audit events. Implementations must be safe for concurrent
// use and must assign Seq monotonically.
type Sink interface {
	Append(ctx context.Context, e Event) error
	Close() error
}
