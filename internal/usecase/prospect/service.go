// Package prospect is the CRUD and query service for the CRM collections:
// clients, dossiers, offres, rendezvous, agents, statistiques.
package prospect

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/leadforge/prospectdb"
)

// ErrUnknownCollection signals an operation against a collection outside the
// configured set. The store itself auto-creates collections on first
// reference; rejecting unknown names here is what keeps a typo from
// silently creating a phantom collection.
var ErrUnknownCollection = errors.New("unknown collection")

// DefaultCollections is the CRM collection set used when the configuration
// does not override it.
var DefaultCollections = []string{
	"clients", "dossiers", "offres", "rendezvous", "agents", "statistiques",
}

// ListOptions shape the filter → sort → limit pipeline of a List call.
type ListOptions struct {
	SortBy     string
	Descending bool
	Limit      int
}

// CollectionInfo describes one known collection and its current size.
type CollectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Service handles prospecting record CRUD over a storage backend.
type Service struct {
	store Store
	known map[string]struct{}
	names []string
}

// New creates a prospect service restricted to the given collections.
// An empty set falls back to DefaultCollections.
func New(store Store, collections []string) *Service {
	if len(collections) == 0 {
		collections = DefaultCollections
	}
	known := make(map[string]struct{}, len(collections))
	for _, name := range collections {
		known[name] = struct{}{}
	}
	return &Service{store: store, known: known, names: collections}
}

func (s *Service) check(collection string) error {
	if _, ok := s.known[collection]; !ok {
		return fmt.Errorf("%q: %w", collection, ErrUnknownCollection)
	}
	return nil
}

// Create inserts a new record and returns its identifier.
func (s *Service) Create(ctx context.Context, collection string, doc prospectdb.Document) (string, error) {
	if err := s.check(collection); err != nil {
		return "", err
	}
	id, err := s.store.InsertOne(ctx, collection, doc)
	if err != nil {
		return "", fmt.Errorf("insert into %s: %w", collection, err)
	}
	return id, nil
}

// Get returns a record by identifier. A missing record is not an error.
func (s *Service) Get(ctx context.Context, collection, id string) (prospectdb.Document, bool, error) {
	if err := s.check(collection); err != nil {
		return nil, false, err
	}
	doc, found, err := s.store.FindOne(ctx, collection, prospectdb.Predicate{
		prospectdb.IDField: prospectdb.ByID(id),
	})
	if err != nil {
		return nil, false, fmt.Errorf("find in %s: %w", collection, err)
	}
	return doc, found, nil
}

// List runs the filter → sort → limit pipeline: the predicate narrows the
// collection, an optional stable sort reorders the result set, and limit
// truncates it. Without a sort the result keeps insertion order.
func (s *Service) List(
	ctx context.Context, collection string, p prospectdb.Predicate, opts ListOptions,
) ([]prospectdb.Document, error) {
	if err := s.check(collection); err != nil {
		return nil, err
	}
	docs, err := s.store.Find(ctx, collection, p)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}

	if opts.SortBy != "" {
		field := opts.SortBy
		sort.SliceStable(docs, func(i, j int) bool {
			cmp, ok := prospectdb.CompareValues(docs[i][field], docs[j][field])
			if !ok {
				// Mutually non-comparable values keep their relative order.
				return false
			}
			if opts.Descending {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}
	return docs, nil
}

// Update merges changes into the record with the given identifier.
func (s *Service) Update(ctx context.Context, collection, id string, changes prospectdb.Document) (
	prospectdb.Document, bool, error,
) {
	if err := s.check(collection); err != nil {
		return nil, false, err
	}
	doc, found, err := s.store.UpdateOne(ctx, collection,
		prospectdb.Predicate{prospectdb.IDField: prospectdb.ByID(id)}, changes)
	if err != nil {
		return nil, false, fmt.Errorf("update in %s: %w", collection, err)
	}
	return doc, found, nil
}

// Delete removes the record with the given identifier. Reports whether a
// record was removed.
func (s *Service) Delete(ctx context.Context, collection, id string) (bool, error) {
	if err := s.check(collection); err != nil {
		return false, err
	}
	n, err := s.store.DeleteOne(ctx, collection,
		prospectdb.Predicate{prospectdb.IDField: prospectdb.ByID(id)})
	if err != nil {
		return false, fmt.Errorf("delete in %s: %w", collection, err)
	}
	return n > 0, nil
}

// Count returns the number of records matching p.
func (s *Service) Count(ctx context.Context, collection string, p prospectdb.Predicate) (int, error) {
	if err := s.check(collection); err != nil {
		return 0, err
	}
	n, err := s.store.Count(ctx, collection, p)
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", collection, err)
	}
	return n, nil
}

// Overview reports every known collection with its current record count,
// in configuration order.
func (s *Service) Overview(ctx context.Context) ([]CollectionInfo, error) {
	infos := make([]CollectionInfo, 0, len(s.names))
	for _, name := range s.names {
		n, err := s.store.Count(ctx, name, nil)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		infos = append(infos, CollectionInfo{Name: name, Count: n})
	}
	return infos, nil
}
