package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// JSONLSink appends events to a file, one JSON record per line. The file
// is opened in append-only mode so repeated runs accumulate rather than
// truncate.
type JSONLSink struct {
	mu  sync.Mutex
	f   *os.File
	w   *bufio.Writer
	seq uint64
}

// NewJSONLSink opens (or creates) the audit log at path.
func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating audit log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}

	return &JSONLSink{f: f, w: bufio.NewWriter(f)}, nil
}

// Append stamps the event with the next sequence number and writes it as
// one JSON line. Safe for concurrent callers.
func (s *JSONLSink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	stamp(&e, s.seq)

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	if _, err := s.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}

	return s.w.Flush()
}

// Close flushes and closes the underlying file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}

// stamp fills in the fields every sink assigns at append time.
func stamp(e *Event, seq uint64) {
	e.SchemaVersion = SchemaVersionV1
	e.Seq = seq
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
}
