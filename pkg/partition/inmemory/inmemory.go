// Package inmemory provides a map-backed partition store used in tests
// and dry-run mode.
package inmemory

import (
	"context"
	"errors"
	"sync"

	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/thread"
)

// Store implements partition.Store with in-memory maps.
type Store struct {
	mu        sync.RWMutex
	records   map[string]*partition.Record
	anchors   map[string]*thread.CorrectionAnchor
	anchorIDs []string
	authors   map[string]*partition.AuthorEntry
	relevance map[string]*partition.RelevanceEntry
}

// NewStore creates an empty in-memory partition store.
func NewStore() *Store {
	return &Store{
		records:   make(map[string]*partition.Record),
		anchors:   make(map[string]*thread.CorrectionAnchor),
		authors:   make(map[string]*partition.AuthorEntry),
		relevance: make(map[string]*partition.RelevanceEntry),
	}
}

func (s *Store) Upsert(_ context.Context, rec *partition.Record) (bool, error) {
	if rec == nil {
		return false, errors.New("cannot store nil record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.records[rec.MessageID]
	cp := *rec
	s.records[rec.MessageID] = &cp
	return !exists, nil
}

func (s *Store) Get(_ context.Context, messageID string) (*partition.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[messageID]
	if !ok {
		return nil, partition.NotFoundError{MessageID: messageID}
	}

	cp := *rec
	return &cp, nil
}

func (s *Store) ListByPartition(_ context.Context, dest thread.Destination) ([]*partition.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*partition.Record
	for _, rec := range s.records {
		if rec.Destination == dest {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) DeleteByThread(_ context.Context, threadID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if rec.ThreadID == threadID {
			delete(s.records, id)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Counts(_ context.Context) (map[thread.Destination]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[thread.Destination]int)
	for _, rec := range s.records {
		counts[rec.Destination]++
	}
	return counts, nil
}

func (s *Store) AddAnchor(_ context.Context, anchor *thread.CorrectionAnchor) error {
	if anchor == nil {
		return errors.New("cannot store nil anchor")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Anchors only accumulate.
	if _, exists := s.anchors[anchor.MessageID]; exists {
		return nil
	}

	cp := *anchor
	s.anchors[anchor.MessageID] = &cp
	s.anchorIDs = append(s.anchorIDs, anchor.MessageID)
	return nil
}

func (s *Store) ListAnchors(_ context.Context) ([]*thread.CorrectionAnchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*thread.CorrectionAnchor, 0, len(s.anchorIDs))
	for _, id := range s.anchorIDs {
		cp := *s.anchors[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) AddAuthorEntry(_ context.Context, entry *partition.AuthorEntry) error {
	if entry == nil {
		return errors.New("cannot store nil author entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.authors[entry.MessageID] = &cp
	return nil
}

func (s *Store) AddRelevanceEntry(_ context.Context, entry *partition.RelevanceEntry) error {
	if entry == nil {
		return errors.New("cannot store nil relevance entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.relevance[entry.MessageID+"/"+entry.Keyword] = &cp
	return nil
}

// AuthorEntryCount returns the size of the source-author index.
func (s *Store) AuthorEntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors)
}

// RelevanceEntryCount returns the size of the subject-relevance index.
func (s *Store) RelevanceEntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.relevance)
}

func (s *Store) Close() error {
	return nil
}
