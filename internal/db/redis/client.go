// Package redis implements db.Store on Redis via rueidis. Documents are
// stored as JSON values, one key per document, with a per-collection list
// preserving insertion order. Predicate evaluation happens client-side, so
// the driver matches the in-memory semantics exactly.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/leadforge/prospectdb/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	KeyPrefix string
}

// Store implements db.Store via rueidis.
type Store struct {
	client rueidis.Client
	prefix string
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "prospectdb"
	}
	return &Store{client: client, prefix: prefix}, nil
}

// NewStoreForTest wraps an existing rueidis client (mock injection).
func NewStoreForTest(client rueidis.Client) *Store {
	return &Store{client: client, prefix: "prospectdb"}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// docKey is the storage key for one document.
func (s *Store) docKey(collection, id string) string {
	return s.prefix + ":" + collection + ":" + id
}

// orderKey is the insertion-order list for a collection.
func (s *Store) orderKey(collection string) string {
	return s.prefix + ":" + collection + ":__order"
}

// collectionsKey is the first-reference-ordered list of collection names.
func (s *Store) collectionsKey() string {
	return s.prefix + ":__collections"
}

// collectionsSetKey deduplicates collection names before pushing to the list.
func (s *Store) collectionsSetKey() string {
	return s.prefix + ":__collections_set"
}
