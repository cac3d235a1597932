package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/leadforge/prospectdb"
	"github.com/leadforge/prospectdb/internal/db"
)

// loadAll fetches every document of a collection in insertion order.
func (s *Store) loadAll(ctx context.Context, collection string) (ids []string, docs []prospectdb.Document, err error) {
	cmd := s.client.B().Lrange().Key(s.orderKey(collection)).Start(0).Stop(-1).Build()
	ids, err = s.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	cmds := make([]rueidis.Completed, len(ids))
	for i, id := range ids {
		cmds[i] = s.client.B().Get().Key(s.docKey(collection, id)).Build()
	}
	results := s.client.DoMulti(ctx, cmds...)

	docs = make([]prospectdb.Document, 0, len(ids))
	kept := ids[:0]
	for i, res := range results {
		raw, err := res.ToString()
		if err != nil {
			if rueidis.IsRedisNil(err) {
				continue
			}
			return nil, nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("key %s: %w", ids[i], err)}
		}
		doc, err := decodeDoc(raw)
		if err != nil {
			return nil, nil, &db.Error{Op: db.OpGet, Err: fmt.Errorf("key %s: %w", ids[i], err)}
		}
		kept = append(kept, ids[i])
		docs = append(docs, doc)
	}
	return kept, docs, nil
}

// Find returns all matching documents in insertion order.
func (s *Store) Find(ctx context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error) {
	_, docs, err := s.loadAll(ctx, collection)
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
	_, docs, err := s.loadAll(ctx, collection)
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

// exists reports whether a document key is present.
func (s *Store) exists(ctx context.Context, collection, id string) (bool, error) {
	cmd := s.client.B().Exists().Key(s.docKey(collection, id)).Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n > 0, nil
}

// write stores a document value without touching the order list.
func (s *Store) write(ctx context.Context, collection, id string, doc prospectdb.Document) error {
	raw, err := encodeDoc(doc)
	if err != nil {
		return err
	}
	cmd := s.client.B().Set().Key(s.docKey(collection, id)).Value(raw).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// append writes a new document and registers it in the order list and the
// collections registry.
func (s *Store) append(ctx context.Context, collection, id string, doc prospectdb.Document) error {
	if err := s.write(ctx, collection, id, doc); err != nil {
		return err
	}
	push := s.client.B().Rpush().Key(s.orderKey(collection)).Element(id).Build()
	if err := s.client.Do(ctx, push).Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}
	return s.registerCollection(ctx, collection)
}

func (s *Store) registerCollection(ctx context.Context, collection string) error {
	add := s.client.B().Sadd().Key(s.collectionsSetKey()).Member(collection).Build()
	added, err := s.client.Do(ctx, add).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpSAdd, Err: err}
	}
	if added == 0 {
		return nil
	}
	push := s.client.B().Rpush().Key(s.collectionsKey()).Element(collection).Build()
	if err := s.client.Do(ctx, push).Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}
	return nil
}

// InsertOne appends a document, generating an identifier when absent.
func (s *Store) InsertOne(ctx context.Context, collection string, doc prospectdb.Document) (string, error) {
	stored := doc.Clone()
	id := stored.ID()
	if id == "" {
		id = prospectdb.NewID()
		stored[prospectdb.IDField] = id
	}
	exists, err := s.exists(ctx, collection, id)
	if err != nil {
		return "", err
	}
	if exists {
		return "", prospectdb.NewDuplicateID(id)
	}
	if err := s.append(ctx, collection, id, stored); err != nil {
		return "", err
	}
	return id, nil
}

// InsertMany inserts documents in order. Identifier collisions, against the
// backend or within the batch, fail before anything is written.
func (s *Store) InsertMany(ctx context.Context, collection string, docs []prospectdb.Document) ([]string, error) {
	prepared := make([]prospectdb.Document, len(docs))
	ids := make([]string, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		stored := doc.Clone()
		id := stored.ID()
		if id == "" {
			id = prospectdb.NewID()
			stored[prospectdb.IDField] = id
		}
		if _, dup := seen[id]; dup {
			return nil, prospectdb.NewDuplicateID(id)
		}
		seen[id] = struct{}{}
		exists, err := s.exists(ctx, collection, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, prospectdb.NewDuplicateID(id)
		}
		prepared[i] = stored
		ids[i] = id
	}
	for i, stored := range prepared {
		if err := s.append(ctx, collection, ids[i], stored); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// UpdateOne merges changes into the first matching document. The identifier
// field is never overwritten.
func (s *Store) UpdateOne(
	ctx context.Context, collection string, p prospectdb.Predicate, changes prospectdb.Document,
) (prospectdb.Document, bool, error) {
	ids, docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return nil, false, err
	}
	for i, doc := range docs {
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
		if err := s.write(ctx, collection, ids[i], updated); err != nil {
			return nil, false, err
		}
		return updated, true, nil
	}
	return nil, false, nil
}

// remove deletes a document value and its order list entry.
func (s *Store) remove(ctx context.Context, collection, id string) error {
	del := s.client.B().Del().Key(s.docKey(collection, id)).Build()
	if err := s.client.Do(ctx, del).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	rem := s.client.B().Lrem().Key(s.orderKey(collection)).Count(1).Element(id).Build()
	if err := s.client.Do(ctx, rem).Error(); err != nil {
		return &db.Error{Op: db.OpLRem, Err: err}
	}
	return nil
}

// DeleteOne removes the first matching document.
func (s *Store) DeleteOne(ctx context.Context, collection string, p prospectdb.Predicate) (int, error) {
	ids, docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return 0, err
	}
	for i, doc := range docs {
		ok, err := p.Matches(doc)
		if err != nil {
			return 0, err
		}
		if ok {
			if err := s.remove(ctx, collection, ids[i]); err != nil {
				return 0, err
			}
			return 1, nil
		}
	}
	return 0, nil
}

// DeleteMany removes all matching documents.
func (s *Store) DeleteMany(ctx context.Context, collection string, p prospectdb.Predicate) (int, error) {
	ids, docs, err := s.loadAll(ctx, collection)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for i, doc := range docs {
		ok, err := p.Matches(doc)
		if err != nil {
			return deleted, err
		}
		if ok {
			if err := s.remove(ctx, collection, ids[i]); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of matching documents. The match-all case reads
// the order list length without fetching values.
func (s *Store) Count(ctx context.Context, collection string, p prospectdb.Predicate) (int, error) {
	if len(p) == 0 {
		cmd := s.client.B().Llen().Key(s.orderKey(collection)).Build()
		n, err := s.client.Do(ctx, cmd).AsInt64()
		if err != nil {
			return 0, &db.Error{Op: db.OpLLen, Err: err}
		}
		return int(n), nil
	}
	docs, err := s.Find(ctx, collection, p)
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
	outcomes := make([]prospectdb.UpsertOutcome, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID()
		if id != "" {
			exists, err := s.exists(ctx, collection, id)
			if err != nil {
				return outcomes, err
			}
			if exists {
				if policy == prospectdb.ConflictIgnoreDuplicates {
					outcomes = append(outcomes, prospectdb.NewSkipped(id))
				} else {
					outcomes = append(outcomes, prospectdb.NewFailed(id, prospectdb.NewDuplicateID(id)))
				}
				continue
			}
		}
		inserted, err := s.InsertOne(ctx, collection, doc)
		if err != nil {
			outcomes = append(outcomes, prospectdb.NewFailed(id, err))
			continue
		}
		outcomes = append(outcomes, prospectdb.NewInserted(inserted))
	}
	return outcomes, nil
}

// SeedIfEmpty seeds the collection only when its order list is empty.
func (s *Store) SeedIfEmpty(ctx context.Context, collection string, docs []prospectdb.Document) (bool, error) {
	cmd := s.client.B().Llen().Key(s.orderKey(collection)).Build()
	n, err := s.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpLLen, Err: err}
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.InsertMany(ctx, collection, docs); err != nil {
		return false, err
	}
	return true, nil
}

// Collections lists collection names in first-reference order.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	cmd := s.client.B().Lrange().Key(s.collectionsKey()).Start(0).Stop(-1).Build()
	names, err := s.client.Do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}
	return names, nil
}
