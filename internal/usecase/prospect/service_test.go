package prospect

import (
	"context"
	"errors"
	"testing"

	"github.com/leadforge/prospectdb"
)

// --- Mocks ---

type mockStore struct {
	findDocs   []prospectdb.Document
	findErr    error
	findOneDoc prospectdb.Document
	findOneOK  bool
	insertedID string
	insertErr  error
	updateDoc  prospectdb.Document
	updateOK   bool
	deleteN    int
	countN     int
	countErr   error

	lastCollection string
	lastPredicate  prospectdb.Predicate
}

func (m *mockStore) Find(_ context.Context, c string, p prospectdb.Predicate) ([]prospectdb.Document, error) {
	m.lastCollection, m.lastPredicate = c, p
	return m.findDocs, m.findErr
}

func (m *mockStore) FindOne(_ context.Context, c string, p prospectdb.Predicate) (prospectdb.Document, bool, error) {
	m.lastCollection, m.lastPredicate = c, p
	return m.findOneDoc, m.findOneOK, nil
}

func (m *mockStore) InsertOne(_ context.Context, c string, _ prospectdb.Document) (string, error) {
	m.lastCollection = c
	return m.insertedID, m.insertErr
}

func (m *mockStore) UpdateOne(
	_ context.Context, c string, p prospectdb.Predicate, _ prospectdb.Document,
) (prospectdb.Document, bool, error) {
	m.lastCollection, m.lastPredicate = c, p
	return m.updateDoc, m.updateOK, nil
}

func (m *mockStore) DeleteOne(_ context.Context, c string, p prospectdb.Predicate) (int, error) {
	m.lastCollection, m.lastPredicate = c, p
	return m.deleteN, nil
}

func (m *mockStore) Count(_ context.Context, c string, p prospectdb.Predicate) (int, error) {
	m.lastCollection, m.lastPredicate = c, p
	return m.countN, m.countErr
}

func TestService_RejectsUnknownCollection(t *testing.T) {
	svc := New(&mockStore{}, []string{"clients"})
	ctx := context.Background()

	_, err := svc.Create(ctx, "client", prospectdb.Document{})
	if !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Create: err = %v, want ErrUnknownCollection", err)
	}
	if _, err := svc.List(ctx, "dossiers", nil, ListOptions{}); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("List: err = %v, want ErrUnknownCollection", err)
	}
	if _, _, err := svc.Get(ctx, "", "x"); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Get: err = %v, want ErrUnknownCollection", err)
	}
}

func TestService_DefaultCollections(t *testing.T) {
	store := &mockStore{insertedID: "d1"}
	svc := New(store, nil)

	id, err := svc.Create(context.Background(), "dossiers", prospectdb.Document{"statut": "nouveau"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != "d1" {
		t.Errorf("id = %q, want d1", id)
	}
}

func TestService_GetBuildsIDPredicate(t *testing.T) {
	store := &mockStore{findOneDoc: prospectdb.Document{"id": "c1"}, findOneOK: true}
	svc := New(store, nil)

	doc, found, err := svc.Get(context.Background(), "clients", "c1")
	if err != nil || !found {
		t.Fatalf("Get: found=%v err=%v", found, err)
	}
	if doc.ID() != "c1" {
		t.Errorf("doc = %v", doc)
	}
	if _, hasID := store.lastPredicate[prospectdb.IDField]; !hasID {
		t.Errorf("predicate = %v, want id clause", store.lastPredicate)
	}
}

func TestService_ListSortPipeline(t *testing.T) {
	store := &mockStore{findDocs: []prospectdb.Document{
		{"nom": "Bernard"}, {"nom": "Abel"}, {"nom": "Charles"},
	}}
	svc := New(store, nil)
	ctx := context.Background()

	docs, err := svc.List(ctx, "clients", nil, ListOptions{SortBy: "nom"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"Abel", "Bernard", "Charles"}
	for i := range want {
		if docs[i]["nom"] != want[i] {
			t.Fatalf("sorted = %v, want %v", docs, want)
		}
	}

	// Unsorted keeps what the store returned (insertion order).
	store.findDocs = []prospectdb.Document{{"nom": "Bernard"}, {"nom": "Abel"}}
	docs, err = svc.List(ctx, "clients", nil, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if docs[0]["nom"] != "Bernard" {
		t.Errorf("unsorted order changed: %v", docs)
	}
}

func TestService_ListSortDescendingAndLimit(t *testing.T) {
	store := &mockStore{findDocs: []prospectdb.Document{
		{"budget": 100.0}, {"budget": 900.0}, {"budget": 500.0},
	}}
	svc := New(store, nil)

	docs, err := svc.List(context.Background(), "dossiers", nil, ListOptions{
		SortBy: "budget", Descending: true, Limit: 2,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 || docs[0]["budget"] != 900.0 || docs[1]["budget"] != 500.0 {
		t.Errorf("docs = %v, want [900 500]", docs)
	}
}

func TestService_Delete(t *testing.T) {
	store := &mockStore{deleteN: 1}
	svc := New(store, nil)

	removed, err := svc.Delete(context.Background(), "clients", "c1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !removed {
		t.Error("expected removed = true")
	}

	store.deleteN = 0
	removed, err = svc.Delete(context.Background(), "clients", "c1")
	if err != nil || removed {
		t.Errorf("second delete: removed=%v err=%v, want false, nil", removed, err)
	}
}

func TestService_Overview(t *testing.T) {
	store := &mockStore{countN: 3}
	svc := New(store, []string{"clients", "dossiers"})

	infos, err := svc.Overview(context.Background())
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "clients" || infos[1].Name != "dossiers" {
		t.Errorf("infos = %v", infos)
	}
	if infos[0].Count != 3 {
		t.Errorf("count = %d, want 3", infos[0].Count)
	}
}
