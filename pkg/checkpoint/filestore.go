package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// FileStore writes one JSON file per checkpoint into a directory. A
// mutex keeps Append single-writer even when analysis runs in parallel.
type FileStore struct {
	mu   sync.Mutex
	dir  string
	last *Checkpoint
	seq  int
}

// NewFileStore creates the checkpoint directory if needed and resumes
// the chain from any existing checkpoints.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating checkpoint directory: %w", err)
	}

	s := &FileStore{dir: dir}

	existing, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		s.last = existing[len(existing)-1]
		s.seq = s.last.Seq
	}

	return s, nil
}

func (s *FileStore) Append(cp *Checkpoint) error {
	if cp == nil {
		return fmt.Errorf("cannot append nil checkpoint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last != nil {
		if cp.Batch < s.last.Batch {
			return fmt.Errorf("checkpoint chain violation: batch %d after batch %d",
				cp.Batch, s.last.Batch)
		}
		if cp.Timestamp.Before(s.last.Timestamp) {
			return fmt.Errorf("checkpoint chain violation: timestamp moved backwards")
		}
	}

	s.seq++
	cp.Seq = s.seq
	cp.Location = filepath.Join(s.dir, fmt.Sprintf("checkpoint-%06d.json", cp.Seq))

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	if err := os.WriteFile(cp.Location, data, 0o644); err != nil {
		return fmt.Errorf("writing checkpoint: %w", err)
	}

	s.last = cp
	return nil
}

func (s *FileStore) Latest() (*Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.last == nil {
		return nil, nil
	}

	cp := *s.last
	return &cp, nil
}

func (s *FileStore) List() ([]*Checkpoint, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading checkpoint directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "checkpoint-") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	chain := make([]*Checkpoint, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return nil, fmt.Errorf("reading checkpoint %s: %w", name, err)
		}

		cp := &Checkpoint{}
		if err := json.Unmarshal(data, cp); err != nil {
			return nil, fmt.Errorf("parsing checkpoint %s: %w", name, err)
		}
		chain = append(chain, cp)
	}

	return chain, nil
}
