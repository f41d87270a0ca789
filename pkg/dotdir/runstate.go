package dotdir

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	runStateFile = "lastrun.json"
)

// RunState is the persisted pointer to the most recent pipeline run. It
// lets the next process invocation report what happened last time and
// find the matching report file.
type RunState struct {
	// RunID is the id of the last completed run.
	RunID string `json:"run_id"`

	// ReportPath is where the run's report was written, if anywhere.
	ReportPath string `json:"report_path,omitempty"`

	// FinishedAt is when the run finished.
	FinishedAt time.Time `json:"finished_at"`

	// ThreadsCommitted is the number of threads the run committed.
	ThreadsCommitted int `json:"threads_committed"`
}

// LoadRunState loads the run state from a target .strata/lastrun.json.
// Returns nil, nil if no run state exists (first run).
// If overrideDir is non-empty, it is used instead of the default location.
func (m *Manager) LoadRunState(overrideDir string) (*RunState, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return nil, nil
	}

	path := filepath.Join(dir, runStateFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading run state: %w", err)
	}

	state := &RunState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing run state: %w", err)
	}

	return state, nil
}

// SaveRunState persists the run state to a target .strata/lastrun.json.
func (m *Manager) SaveRunState(state *RunState, overrideDir string) error {
	if state == nil {
		return errors.New("cannot save nil run state")
	}

	dir, err := m.EnsureTarget(overrideDir)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run state: %w", err)
	}

	path := filepath.Join(dir, runStateFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run state: %w", err)
	}

	return nil
}

// ClearRunState removes the run state file. Returns nil if the file
// doesn't exist (already cleared).
func (m *Manager) ClearRunState(overrideDir string) error {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return err
	}
	if dir == "" {
		return nil
	}

	path := filepath.Join(dir, runStateFile)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("removing run state: %w", err)
	}

	return nil
}
