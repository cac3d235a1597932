package prospectdb

import (
	"errors"
	"testing"
	"time"
)

func TestPredicate_Literals(t *testing.T) {
	doc := Document{
		"id":     "c1",
		"nom":    "Dupont",
		"actif":  true,
		"budget": 1500.0,
		"visites": []any{
			map[string]any{"type": "video"},
		},
		"agent": nil,
	}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"empty matches all", Predicate{}, true},
		{"string equal", Predicate{"nom": "Dupont"}, true},
		{"string not equal", Predicate{"nom": "Martin"}, false},
		{"bool equal", Predicate{"actif": true}, true},
		{"numeric cross-type", Predicate{"budget": 1500}, true},
		{"nested deep equality", Predicate{"visites": []any{map[string]any{"type": "video"}}}, true},
		{"nested deep mismatch", Predicate{"visites": []any{map[string]any{"type": "tel"}}}, false},
		{"nil matches explicit null", Predicate{"agent": nil}, true},
		{"nil matches missing field", Predicate{"superviseur": nil}, true},
		{"missing field never equal", Predicate{"superviseur": "s1"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.p.Matches(doc)
			if err != nil {
				t.Fatalf("Matches: %v", err)
			}
			if got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPredicate_Ranges(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	doc := Document{
		"budget": 1500.0,
		"date":   jan,
		"statut": "rdv",
	}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"gte match", Predicate{"budget": GreaterOrEqual(1000)}, true},
		{"gte boundary", Predicate{"budget": GreaterOrEqual(1500)}, true},
		{"gte miss", Predicate{"budget": GreaterOrEqual(2000)}, false},
		{"lte match", Predicate{"budget": LessOrEqual(2000)}, true},
		{"lte miss", Predicate{"budget": LessOrEqual(1000)}, false},
		{"between", Predicate{"budget": Between(1000, 2000)}, true},
		{"between miss", Predicate{"budget": Between(1600, 2000)}, false},
		{"date gte", Predicate{"date": GreaterOrEqual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))}, true},
		{"date range string bound", Predicate{"date": Between("2024-01-01", "2024-01-31")}, true},
		{"date miss", Predicate{"date": GreaterOrEqual("2024-02-01")}, false},
		{"non-comparable fails match not error", Predicate{"statut": GreaterOrEqual(3)}, false},
		{"missing field", Predicate{"autre": GreaterOrEqual(0)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.p.Matches(doc)
			if err != nil {
				t.Fatalf("Matches: %v", err)
			}
			if got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPredicate_Patterns(t *testing.T) {
	doc := Document{"nom": "Dupont", "tel": 612345678}

	tests := []struct {
		name string
		p    Predicate
		want bool
	}{
		{"substring", Predicate{"nom": MatchesPattern("upon", false)}, true},
		{"anchored", Predicate{"nom": MatchesPattern("^Dup", false)}, true},
		{"case sensitive miss", Predicate{"nom": MatchesPattern("dupont", false)}, false},
		{"case insensitive", Predicate{"nom": MatchesPattern("dupont", true)}, true},
		{"numeric coerced to string", Predicate{"tel": MatchesPattern("^612", false)}, true},
		{"missing field", Predicate{"email": MatchesPattern(".", false)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.p.Matches(doc)
			if err != nil {
				t.Fatalf("Matches: %v", err)
			}
			if got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPredicate_ByID(t *testing.T) {
	doc := Document{"id": "42", "nom": "Dupont"}

	if ok, _ := (Predicate{IDField: ByID("42")}).Matches(doc); !ok {
		t.Error("string id should match")
	}
	// Both sides are string-coerced before comparison.
	if ok, _ := (Predicate{IDField: ByID(42)}).Matches(doc); !ok {
		t.Error("numeric id should match after coercion")
	}
	if ok, _ := (Predicate{IDField: ByID("43")}).Matches(doc); ok {
		t.Error("wrong id matched")
	}
}

func TestPredicate_Invalid(t *testing.T) {
	doc := Document{"nom": "Dupont"}

	_, err := (Predicate{"nom": Clause{}}).Matches(doc)
	if !errors.Is(err, ErrInvalidPredicate) {
		t.Errorf("empty clause: err = %v, want ErrInvalidPredicate", err)
	}

	_, err = (Predicate{"nom": MatchesPattern("([", false)}).Matches(doc)
	if !errors.Is(err, ErrInvalidPredicate) {
		t.Errorf("bad regexp: err = %v, want ErrInvalidPredicate", err)
	}
}

func TestPredicate_And(t *testing.T) {
	c := NewStore().Collection("dossiers")
	mustInsert(t, c,
		Document{"statut": "rdv", "budget": 500.0},
		Document{"statut": "rdv", "budget": 1500.0},
		Document{"statut": "vente", "budget": 1500.0},
	)

	docs, err := c.Find(Predicate{
		"statut": "rdv",
		"budget": GreaterOrEqual(1000),
	})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("len = %d, want 1", len(docs))
	}
	if docs[0]["budget"] != 1500.0 {
		t.Errorf("wrong document matched: %v", docs[0])
	}
}
