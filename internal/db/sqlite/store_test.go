package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/leadforge/prospectdb"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "crm.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestStore_CRUDRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.InsertOne(ctx, "clients", prospectdb.Document{"nom": "Dupont", "prenom": "Jean"})
	if err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	doc, found, err := s.FindOne(ctx, "clients", prospectdb.Predicate{prospectdb.IDField: prospectdb.ByID(id)})
	if err != nil || !found {
		t.Fatalf("FindOne: found=%v err=%v", found, err)
	}
	if doc["nom"] != "Dupont" {
		t.Errorf("nom = %v, want Dupont", doc["nom"])
	}

	updated, found, err := s.UpdateOne(ctx, "clients",
		prospectdb.Predicate{prospectdb.IDField: prospectdb.ByID(id)},
		prospectdb.Document{"statut": "actif", "id": "hacked"},
	)
	if err != nil || !found {
		t.Fatalf("UpdateOne: found=%v err=%v", found, err)
	}
	if updated["statut"] != "actif" {
		t.Errorf("statut = %v, want actif", updated["statut"])
	}
	if updated.ID() != id {
		t.Errorf("id was overwritten: %v", updated.ID())
	}

	n, err := s.DeleteOne(ctx, "clients", prospectdb.Predicate{prospectdb.IDField: prospectdb.ByID(id)})
	if err != nil || n != 1 {
		t.Fatalf("DeleteOne: n=%d err=%v", n, err)
	}
	if _, found, _ := s.FindOne(ctx, "clients", prospectdb.Predicate{prospectdb.IDField: prospectdb.ByID(id)}); found {
		t.Error("document still present after delete")
	}
}

func TestStore_InsertionOrderSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crm.db")
	ctx := context.Background()

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, nom := range []string{"Bernard", "Abel", "Charles"} {
		if _, err := s.InsertOne(ctx, "clients", prospectdb.Document{"nom": nom}); err != nil {
			t.Fatalf("InsertOne: %v", err)
		}
	}
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	docs, err := s.Find(ctx, "clients", prospectdb.Predicate{})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	want := []string{"Bernard", "Abel", "Charles"}
	if len(docs) != len(want) {
		t.Fatalf("len = %d, want %d", len(docs), len(want))
	}
	for i := range want {
		if docs[i]["nom"] != want[i] {
			t.Fatalf("order broken after reopen: %v", docs)
		}
	}
}

func TestStore_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertOne(ctx, "clients", prospectdb.Document{"id": "c1"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	_, err := s.InsertOne(ctx, "clients", prospectdb.Document{"id": "c1"})
	if !errors.Is(err, prospectdb.ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}

	// Same id in a different collection is fine.
	if _, err := s.InsertOne(ctx, "agents", prospectdb.Document{"id": "c1"}); err != nil {
		t.Errorf("cross-collection insert: %v", err)
	}
}

func TestStore_InsertManyRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertOne(ctx, "clients", prospectdb.Document{"id": "c2"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	_, err := s.InsertMany(ctx, "clients", []prospectdb.Document{
		{"id": "c1"}, {"id": "c2"}, {"id": "c3"},
	})
	if !errors.Is(err, prospectdb.ErrDuplicateID) {
		t.Fatalf("err = %v, want ErrDuplicateID", err)
	}

	n, err := s.Count(ctx, "clients", nil)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("batch partially applied: Count = %d, want 1", n)
	}
}

func TestStore_PredicateQuery(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedDocs := []prospectdb.Document{
		{"statut": "rdv", "budget": 500.0},
		{"statut": "rdv", "budget": 1500.0},
		{"statut": "vente", "budget": 2500.0},
	}
	if _, err := s.InsertMany(ctx, "dossiers", seedDocs); err != nil {
		t.Fatalf("InsertMany: %v", err)
	}

	docs, err := s.Find(ctx, "dossiers", prospectdb.Predicate{
		"budget": prospectdb.GreaterOrEqual(1000),
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("len = %d, want 2", len(docs))
	}

	n, err := s.Count(ctx, "dossiers", prospectdb.Predicate{"statut": "rdv"})
	if err != nil || n != 2 {
		t.Errorf("Count = %d err=%v, want 2", n, err)
	}
}

func TestStore_UpsertManyIgnoreDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.InsertOne(ctx, "clients", prospectdb.Document{"id": "row3"}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}

	outcomes, err := s.UpsertMany(ctx, "clients", []prospectdb.Document{
		{"id": "row1"}, {"id": "row2"}, {"id": "row3"}, {"id": "row4"}, {"nom": "sans id"},
	}, prospectdb.ConflictIgnoreDuplicates)
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}

	var inserted, skipped int
	for _, o := range outcomes {
		switch o.Status() {
		case prospectdb.UpsertInserted:
			inserted++
		case prospectdb.UpsertSkipped:
			skipped++
		case prospectdb.UpsertFailed:
			t.Errorf("unexpected failure: %v", o.Err())
		}
	}
	if inserted != 4 || skipped != 1 {
		t.Errorf("inserted=%d skipped=%d, want 4 and 1", inserted, skipped)
	}
}

func TestStore_SeedIfEmptyAndCollections(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	docs := []prospectdb.Document{{"nom": "Alice"}, {"nom": "Bob"}}
	for i := 0; i < 2; i++ {
		if _, err := s.SeedIfEmpty(ctx, "agents", docs); err != nil {
			t.Fatalf("SeedIfEmpty: %v", err)
		}
	}
	n, err := s.Count(ctx, "agents", nil)
	if err != nil || n != len(docs) {
		t.Errorf("Count = %d err=%v, want %d", n, err, len(docs))
	}

	if _, err := s.InsertOne(ctx, "clients", prospectdb.Document{}); err != nil {
		t.Fatalf("InsertOne: %v", err)
	}
	names, err := s.Collections(ctx)
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}
	if len(names) != 2 || names[0] != "agents" || names[1] != "clients" {
		t.Errorf("Collections = %v, want [agents clients]", names)
	}
}
