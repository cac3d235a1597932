package prospectdb

// Collection is a named, insertion-ordered set of documents. Handles are
// obtained from a Store and stay valid for the Store's lifetime.
type Collection struct {
	name string
	docs []Document
	ids  map[string]struct{}
}

func newCollection(name string) *Collection {
	return &Collection{
		name: name,
		ids:  make(map[string]struct{}),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Len returns the number of documents in the collection.
func (c *Collection) Len() int { return len(c.docs) }

// Find returns all documents matching the predicate, in insertion order.
// Each call re-evaluates against current state; results are deep copies.
func (c *Collection) Find(p Predicate) ([]Document, error) {
	cp, err := p.compile()
	if err != nil {
		return nil, err
	}
	var out []Document
	for _, doc := range c.docs {
		if cp.matches(doc) {
			out = append(out, doc.Clone())
		}
	}
	return out, nil
}

// FindOne returns the first document matching the predicate in insertion
// order. A missing match is not an error: found is false.
func (c *Collection) FindOne(p Predicate) (Document, bool, error) {
	cp, err := p.compile()
	if err != nil {
		return nil, false, err
	}
	for _, doc := range c.docs {
		if cp.matches(doc) {
			return doc.Clone(), true, nil
		}
	}
	return nil, false, nil
}

// InsertOne appends a document and returns its identifier, generating one
// when absent. Fails with ErrDuplicateID when the supplied identifier
// already exists.
func (c *Collection) InsertOne(doc Document) (string, error) {
	stored := doc.Clone()
	id := stored.ID()
	if id == "" {
		id = NewID()
		stored[IDField] = id
	}
	if _, exists := c.ids[id]; exists {
		return "", NewDuplicateID(id)
	}
	c.docs = append(c.docs, stored)
	c.ids[id] = struct{}{}
	return id, nil
}

// InsertMany inserts documents in order, all or nothing: a single colliding
// identifier fails the whole batch with ErrDuplicateID and leaves the
// collection untouched.
func (c *Collection) InsertMany(docs []Document) ([]string, error) {
	prepared := make([]Document, len(docs))
	ids := make([]string, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		stored := doc.Clone()
		id := stored.ID()
		if id == "" {
			id = NewID()
			stored[IDField] = id
		}
		if _, exists := c.ids[id]; exists {
			return nil, NewDuplicateID(id)
		}
		if _, dup := seen[id]; dup {
			return nil, NewDuplicateID(id)
		}
		seen[id] = struct{}{}
		prepared[i] = stored
		ids[i] = id
	}
	for i, stored := range prepared {
		c.docs = append(c.docs, stored)
		c.ids[ids[i]] = struct{}{}
	}
	return ids, nil
}

// UpdateOne merges changes into the first matching document. The merge is
// shallow: fields absent from changes are untouched, a field explicitly set
// to nil becomes nil. The identifier is never overwritten. Returns the
// updated document, or found=false when nothing matched.
func (c *Collection) UpdateOne(p Predicate, changes Document) (Document, bool, error) {
	cp, err := p.compile()
	if err != nil {
		return nil, false, err
	}
	for i, doc := range c.docs {
		if !cp.matches(doc) {
			continue
		}
		updated := doc.Clone()
		for k, v := range changes {
			if k == IDField {
				continue
			}
			updated[k] = cloneValue(v)
		}
		c.docs[i] = updated
		return updated.Clone(), true, nil
	}
	return nil, false, nil
}

// DeleteOne removes the first matching document. Returns the count deleted,
// 0 or 1.
func (c *Collection) DeleteOne(p Predicate) (int, error) {
	cp, err := p.compile()
	if err != nil {
		return 0, err
	}
	for i, doc := range c.docs {
		if cp.matches(doc) {
			delete(c.ids, doc.ID())
			c.docs = append(c.docs[:i], c.docs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// DeleteMany removes all matching documents and returns the count deleted.
func (c *Collection) DeleteMany(p Predicate) (int, error) {
	cp, err := p.compile()
	if err != nil {
		return 0, err
	}
	kept := c.docs[:0]
	deleted := 0
	for _, doc := range c.docs {
		if cp.matches(doc) {
			delete(c.ids, doc.ID())
			deleted++
			continue
		}
		kept = append(kept, doc)
	}
	c.docs = kept
	return deleted, nil
}

// Count returns the number of matching documents. A nil predicate counts
// everything.
func (c *Collection) Count(p Predicate) (int, error) {
	if len(p) == 0 {
		return len(c.docs), nil
	}
	cp, err := p.compile()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, doc := range c.docs {
		if cp.matches(doc) {
			n++
		}
	}
	return n, nil
}

// UpsertMany bulk-inserts documents, one outcome per input in input order.
// Documents without an identifier are always inserted as new. With
// ConflictIgnoreDuplicates an existing identifier yields a skipped outcome;
// with ConflictFail it yields a failed outcome. A failure never aborts the
// rest of the batch.
func (c *Collection) UpsertMany(docs []Document, policy ConflictPolicy) []UpsertOutcome {
	outcomes := make([]UpsertOutcome, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID()
		if id != "" {
			if _, exists := c.ids[id]; exists {
				if policy == ConflictIgnoreDuplicates {
					outcomes = append(outcomes, NewSkipped(id))
				} else {
					outcomes = append(outcomes, NewFailed(id, NewDuplicateID(id)))
				}
				continue
			}
		}
		inserted, err := c.InsertOne(doc)
		if err != nil {
			outcomes = append(outcomes, NewFailed(id, err))
			continue
		}
		outcomes = append(outcomes, NewInserted(inserted))
	}
	return outcomes
}
