// Package sqlite implements db.Store on SQLite via the pure-Go modernc
// driver. Documents are JSON rows keyed by (collection, id); a
// monotonically increasing sequence column preserves insertion order.
// Predicates are evaluated client-side after an ordered scan, matching the
// in-memory semantics exactly.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/leadforge/prospectdb"
	"github.com/leadforge/prospectdb/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store implements db.Store over a SQLite database file.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// NewStore opens (or creates) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// modernc sqlite serializes on a single connection; more would race on
	// the schema and on insertion sequencing.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: conn}, nil
}

// Ping checks the database handle.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady pings once; a local file either opens or it does not.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.Ping(ctx)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func encodeBody(doc prospectdb.Document) (string, error) {
	data, err := json.Marshal(map[string]any(doc))
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

func decodeBody(raw string) (prospectdb.Document, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return prospectdb.Document(m), nil
}

// loadAll reads a collection in insertion order.
func (s *Store) loadAll(ctx context.Context, collection string) ([]prospectdb.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents WHERE collection = ? ORDER BY seq`, collection)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	var docs []prospectdb.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return docs, nil
}

// Find returns all matching documents in insertion order.
func (s *Store) Find(ctx context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(ctx, collection, p)
}

func (s *Store) find(ctx context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error) {
	docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	var out []prospectdb.Document
	for _, doc := range docs {
		ok, err := p.Matches(doc)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, doc)
		}
	}
	return out, nil
}

// FindOne returns the first match in insertion order, or found=false.
func (s *Store) FindOne(ctx context.Context, collection string, p prospectdb.Predicate) (
	prospectdb.Document, bool, error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return nil, false, err
	}
	for _, doc := range docs {
		ok, err := p.Matches(doc)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return doc, true, nil
		}
	}
	return nil, false, nil
}

func (s *Store) insert(ctx context.Context, collection string, doc prospectdb.Document) (string, error) {
	stored := doc.Clone()
	id := stored.ID()
	if id == "" {
		id = prospectdb.NewID()
		stored[prospectdb.IDField] = id
	}
	body, err := encodeBody(stored)
	if err != nil {
		return "", err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`,
		collection, id, body,
	); err != nil {
		if isUniqueViolation(err) {
			return "", prospectdb.NewDuplicateID(id)
		}
		return "", &db.Error{Op: db.OpInsert, Err: err}
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name) VALUES (?)`, collection,
	); err != nil {
		return "", &db.Error{Op: db.OpInsert, Err: err}
	}
	return id, nil
}

// InsertOne appends a document, generating an identifier when absent.
func (s *Store) InsertOne(ctx context.Context, collection string, doc prospectdb.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(ctx, collection, doc)
}

// InsertMany inserts documents in order inside one transaction, so a single
// colliding identifier rolls back the whole batch.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []prospectdb.Document) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertMany(ctx, collection, docs)
}

func (s *Store) insertMany(ctx context.Context, collection string, docs []prospectdb.Document) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, &db.Error{Op: db.OpInsert, Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]string, len(docs))
	for i, doc := range docs {
		stored := doc.Clone()
		id := stored.ID()
		if id == "" {
			id = prospectdb.NewID()
			stored[prospectdb.IDField] = id
		}
		body, err := encodeBody(stored)
		if err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`,
			collection, id, body,
		); err != nil {
			if isUniqueViolation(err) {
				return nil, prospectdb.NewDuplicateID(id)
			}
			return nil, &db.Error{Op: db.OpInsert, Err: err}
		}
		ids[i] = id
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO collections (name) VALUES (?)`, collection,
	); err != nil {
		return nil, &db.Error{Op: db.OpInsert, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return nil, &db.Error{Op: db.OpInsert, Err: err}
	}
	return ids, nil
}

// UpdateOne merges changes into the first matching document. The identifier
// field is never overwritten.
func (s *Store) UpdateOne(
	ctx context.Context, collection string, p prospectdb.Predicate, changes prospectdb.Document,
) (prospectdb.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return nil, false, err
	}
	for _, doc := range docs {
		ok, err := p.Matches(doc)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		updated := doc.Clone()
		for k, v := range changes {
			if k == prospectdb.IDField {
				continue
			}
			updated[k] = v
		}
		body, err := encodeBody(updated)
		if err != nil {
			return nil, false, err
		}
		if _, err := s.db.ExecContext(ctx,
			`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`,
			body, collection, doc.ID(),
		); err != nil {
			return nil, false, &db.Error{Op: db.OpUpdate, Err: err}
		}
		return updated, true, nil
	}
	return nil, false, nil
}

func (s *Store) deleteByID(ctx context.Context, collection, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id,
	); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

// DeleteOne removes the first matching document.
func (s *Store) DeleteOne(ctx context.Context, collection string, p prospectdb.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return 0, err
	}
	for _, doc := range docs {
		ok, err := p.Matches(doc)
		if err != nil {
			return 0, err
		}
		if ok {
			if err := s.deleteByID(ctx, collection, doc.ID()); err != nil {
				return 0, err
			}
			return 1, nil
		}
	}
	return 0, nil
}

// DeleteMany removes all matching documents.
func (s *Store) DeleteMany(ctx context.Context, collection string, p prospectdb.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, doc := range docs {
		ok, err := p.Matches(doc)
		if err != nil {
			return deleted, err
		}
		if ok {
			if err := s.deleteByID(ctx, collection, doc.ID()); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of matching documents. The match-all case counts
// rows without decoding bodies.
func (s *Store) Count(ctx context.Context, collection string, p prospectdb.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(p) == 0 {
		var n int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection,
		).Scan(&n)
		if err != nil {
			return 0, &db.Error{Op: db.OpSelect, Err: err}
		}
		return n, nil
	}
	docs, err := s.find(ctx, collection, p)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// UpsertMany bulk-imports documents with per-document outcomes; a failure
// never aborts the rest of the batch.
func (s *Store) UpsertMany(
	ctx context.Context, collection string, docs []prospectdb.Document, policy prospectdb.ConflictPolicy,
) ([]prospectdb.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	outcomes := make([]prospectdb.UpsertOutcome, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID()
		inserted, err := s.insert(ctx, collection, doc)
		if err != nil {
			if policy == prospectdb.ConflictIgnoreDuplicates && errors.Is(err, prospectdb.ErrDuplicateID) {
				outcomes = append(outcomes, prospectdb.NewSkipped(id))
				continue
			}
			outcomes = append(outcomes, prospectdb.NewFailed(id, err))
			continue
		}
		outcomes = append(outcomes, prospectdb.NewInserted(inserted))
	}
	return outcomes, nil
}

// SeedIfEmpty seeds the collection only when it has no rows.
func (s *Store) SeedIfEmpty(ctx context.Context, collection string, docs []prospectdb.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, collection,
	).Scan(&n)
	if err != nil {
		return false, &db.Error{Op: db.OpSelect, Err: err}
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.insertMany(ctx, collection, docs); err != nil {
		return false, err
	}
	return true, nil
}

// Collections lists collection names in first-reference order.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM collections ORDER BY seq`)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return names, nil
}
