package prospectdb

// Store owns a set of named collections. Create one per logical database;
// there is no package-level singleton, so tests and multi-tenant hosts can
// run independent stores side by side.
type Store struct {
	collections map[string]*Collection
	order       []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]*Collection),
	}
}

// Collection returns the handle for name, creating an empty collection on
// first reference. It never fails; use Names to assert expected collections
// exist when typo protection matters.
func (s *Store) Collection(name string) *Collection {
	if c, ok := s.collections[name]; ok {
		return c
	}
	c := newCollection(name)
	s.collections[name] = c
	s.order = append(s.order, name)
	return c
}

// SeedIfEmpty inserts docs into the named collection only when it is
// currently empty, so startup seeding is safe to run unconditionally.
// Reports whether the seed was applied.
func (s *Store) SeedIfEmpty(name string, docs []Document) (bool, error) {
	c := s.Collection(name)
	if c.Len() > 0 {
		return false, nil
	}
	if _, err := c.InsertMany(docs); err != nil {
		return false, err
	}
	return true, nil
}

// Names returns every collection referenced so far, in first-reference
// order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Reset clears all collections and forgets their names.
func (s *Store) Reset() {
	s.collections = make(map[string]*Collection)
	s.order = nil
}
