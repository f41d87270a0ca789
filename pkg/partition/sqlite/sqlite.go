// Package sqlite provides a SQLite-backed partition store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/threadworksco/strata/pkg/partition"
	"github.com/threadworksco/strata/pkg/thread"
)

const schema = `
CREATE TABLE IF NOT EXISTS partition_records (
    message_id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    destination TEXT NOT NULL,
    tier TEXT NOT NULL,
    strategy TEXT NOT NULL,
    drift_score REAL NOT NULL,
    committed_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_thread ON partition_records(thread_id);
CREATE INDEX IF NOT EXISTS idx_records_destination ON partition_records(destination);

CREATE TABLE IF NOT EXISTS correction_anchors (
    message_id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    category TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    truth_value TEXT NOT NULL,
    confidence REAL NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS author_index (
    message_id TEXT PRIMARY KEY,
    thread_id TEXT NOT NULL,
    role TEXT NOT NULL,
    confidence REAL NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS relevance_index (
    message_id TEXT NOT NULL,
    thread_id TEXT NOT NULL,
    keyword TEXT NOT NULL,
    created_at DATETIME NOT NULL,
    PRIMARY KEY (message_id, keyword)
);
`

// Store implements partition.Store on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the partition database at dbPath.
// ":memory:" is accepted for tests.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening partition database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Upsert(ctx context.Context, rec *partition.Record) (bool, error) {
	if rec == nil {
		return false, errors.New("cannot store nil record")
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM partition_records WHERE message_id = ?", rec.MessageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking record: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO partition_records
			(message_id, thread_id, destination, tier, strategy, drift_score, committed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			destination = excluded.destination,
			tier = excluded.tier,
			strategy = excluded.strategy,
			drift_score = excluded.drift_score,
			committed_at = excluded.committed_at`,
		rec.MessageID, rec.ThreadID, rec.Destination, rec.Tier, rec.Strategy,
		rec.DriftScore, rec.CommittedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upserting record: %w", err)
	}

	return exists == 0, nil
}

func (s *Store) Get(ctx context.Context, messageID string) (*partition.Record, error) {
	rec := &partition.Record{}
	err := s.db.QueryRowContext(ctx, `
		SELECT message_id, thread_id, destination, tier, strategy, drift_score, committed_at
		FROM partition_records WHERE message_id = ?`, messageID,
	).Scan(&rec.MessageID, &rec.ThreadID, &rec.Destination, &rec.Tier,
		&rec.Strategy, &rec.DriftScore, &rec.CommittedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, partition.NotFoundError{MessageID: messageID}
	}
	if err != nil {
		return nil, fmt.Errorf("querying record: %w", err)
	}

	return rec, nil
}

func (s *Store) ListByPartition(ctx context.Context, dest thread.Destination) ([]*partition.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, thread_id, destination, tier, strategy, drift_score, committed_at
		FROM partition_records WHERE destination = ?`, dest)
	if err != nil {
		return nil, fmt.Errorf("querying partition: %w", err)
	}
	defer rows.Close()

	var out []*partition.Record
	for rows.Next() {
		rec := &partition.Record{}
		if err := rows.Scan(&rec.MessageID, &rec.ThreadID, &rec.Destination,
			&rec.Tier, &rec.Strategy, &rec.DriftScore, &rec.CommittedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		out = append(out, rec)
	}

	return out, rows.Err()
}

func (s *Store) DeleteByThread(ctx context.Context, threadID string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM partition_records WHERE thread_id = ?", threadID)
	if err != nil {
		return 0, fmt.Errorf("deleting thread records: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) Counts(ctx context.Context) (map[thread.Destination]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT destination, COUNT(1) FROM partition_records GROUP BY destination")
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}
	defer rows.Close()

	counts := make(map[thread.Destination]int)
	for rows.Next() {
		var dest thread.Destination
		var n int
		if err := rows.Scan(&dest, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[dest] = n
	}

	return counts, rows.Err()
}

func (s *Store) AddAnchor(ctx context.Context, anchor *thread.CorrectionAnchor) error {
	if anchor == nil {
		return errors.New("cannot store nil anchor")
	}

	// Anchors only accumulate: an existing row is left untouched.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO correction_anchors
			(message_id, thread_id, category, excerpt, truth_value, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO NOTHING`,
		anchor.MessageID, anchor.ThreadID, anchor.Category, anchor.Excerpt,
		anchor.TruthValue, anchor.Confidence, anchor.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("appending anchor: %w", err)
	}
	return nil
}

func (s *Store) ListAnchors(ctx context.Context) ([]*thread.CorrectionAnchor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message_id, thread_id, category, excerpt, truth_value, confidence, created_at
		FROM correction_anchors ORDER BY created_at, message_id`)
	if err != nil {
		return nil, fmt.Errorf("querying anchors: %w", err)
	}
	defer rows.Close()

	var out []*thread.CorrectionAnchor
	for rows.Next() {
		a := &thread.CorrectionAnchor{}
		if err := rows.Scan(&a.MessageID, &a.ThreadID, &a.Category, &a.Excerpt,
			&a.TruthValue, &a.Confidence, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning anchor: %w", err)
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (s *Store) AddAuthorEntry(ctx context.Context, entry *partition.AuthorEntry) error {
	if entry == nil {
		return errors.New("cannot store nil author entry")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO author_index (message_id, thread_id, role, confidence, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(message_id) DO UPDATE SET
			confidence = excluded.confidence`,
		entry.MessageID, entry.ThreadID, entry.Role, entry.Confidence, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting author entry: %w", err)
	}
	return nil
}

func (s *Store) AddRelevanceEntry(ctx context.Context, entry *partition.RelevanceEntry) error {
	if entry == nil {
		return errors.New("cannot store nil relevance entry")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relevance_index (message_id, thread_id, keyword, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(message_id, keyword) DO NOTHING`,
		entry.MessageID, entry.ThreadID, entry.Keyword, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting relevance entry: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
