// Package memory adapts the embeddable prospectdb store to the db.Store
// contract. The core itself is single-threaded; this driver adds the mutex
// that makes each operation atomic from the HTTP handlers' point of view.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/leadforge/prospectdb"
	"github.com/leadforge/prospectdb/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Store implements db.Store over an in-process prospectdb.Store.
type Store struct {
	mu    sync.Mutex
	store *prospectdb.Store
}

// NewStore creates a memory store around a fresh prospectdb.Store.
func NewStore() *Store {
	return &Store{store: prospectdb.NewStore()}
}

// NewStoreWith wraps an existing prospectdb.Store. The caller must not keep
// using the wrapped store directly.
func NewStoreWith(s *prospectdb.Store) *Store {
	return &Store{store: s}
}

// Ping always succeeds: there is no remote to reach.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// Find returns all matching documents in insertion order.
func (s *Store) Find(_ context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).Find(p)
}

// FindOne returns the first match, or found=false.
func (s *Store) FindOne(_ context.Context, collection string, p prospectdb.Predicate) (
	prospectdb.Document, bool, error,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).FindOne(p)
}

// InsertOne appends a document and returns its identifier.
func (s *Store) InsertOne(_ context.Context, collection string, doc prospectdb.Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).InsertOne(doc)
}

// InsertMany inserts a batch, all or nothing.
func (s *Store) InsertMany(_ context.Context, collection string, docs []prospectdb.Document) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).InsertMany(docs)
}

// UpdateOne merges changes into the first match.
func (s *Store) UpdateOne(
	_ context.Context, collection string, p prospectdb.Predicate, changes prospectdb.Document,
) (prospectdb.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).UpdateOne(p, changes)
}

// DeleteOne removes the first match.
func (s *Store) DeleteOne(_ context.Context, collection string, p prospectdb.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).DeleteOne(p)
}

// DeleteMany removes all matches.
func (s *Store) DeleteMany(_ context.Context, collection string, p prospectdb.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).DeleteMany(p)
}

// Count returns the number of matching documents.
func (s *Store) Count(_ context.Context, collection string, p prospectdb.Predicate) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).Count(p)
}

// UpsertMany bulk-imports documents with per-document outcomes.
func (s *Store) UpsertMany(
	_ context.Context, collection string, docs []prospectdb.Document, policy prospectdb.ConflictPolicy,
) ([]prospectdb.UpsertOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Collection(collection).UpsertMany(docs, policy), nil
}

// SeedIfEmpty seeds the collection only when it is empty.
func (s *Store) SeedIfEmpty(_ context.Context, collection string, docs []prospectdb.Document) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SeedIfEmpty(collection, docs)
}

// Collections lists every collection referenced so far.
func (s *Store) Collections(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Names(), nil
}
