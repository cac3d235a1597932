// Package seed loads YAML fixture files into empty collections at startup.
//
// A fixture file maps collection names to document lists. Seeding only
// touches collections that hold no documents yet, so running it on every
// startup is safe.
package seed

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leadforge/prospectdb"
)

// Store is the consumer storage interface for seeding (ISP).
type Store interface {
	SeedIfEmpty(ctx context.Context, collection string, docs []prospectdb.Document) (bool, error)
}

// Fixture is the parsed content of one seed file, keyed by collection.
// Slice order follows the YAML document order so seeding is deterministic.
type Fixture struct {
	Collections []CollectionFixture
}

// CollectionFixture is the seed data for one collection.
type CollectionFixture struct {
	Name      string
	Documents []prospectdb.Document
}

// UnmarshalYAML decodes a top-level mapping of collection name to document
// list, preserving the order the collections appear in the file.
func (f *Fixture) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("fixture root must be a mapping of collection names")
	}
	for i := 0; i < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]

		var docs []prospectdb.Document
		if err := valueNode.Decode(&docs); err != nil {
			return fmt.Errorf("collection %q: %w", keyNode.Value, err)
		}
		f.Collections = append(f.Collections, CollectionFixture{
			Name:      keyNode.Value,
			Documents: docs,
		})
	}
	return nil
}

// Load reads and parses a fixture file.
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &f, nil
}

// Result reports which collections a seeding run actually populated.
type Result struct {
	Seeded  []string
	Skipped []string
}

// Apply seeds every collection in the fixture that is still empty.
func Apply(ctx context.Context, store Store, f *Fixture) (Result, error) {
	var res Result
	for _, cf := range f.Collections {
		seeded, err := store.SeedIfEmpty(ctx, cf.Name, cf.Documents)
		if err != nil {
			return res, fmt.Errorf("seed %s: %w", cf.Name, err)
		}
		if seeded {
			res.Seeded = append(res.Seeded, cf.Name)
		} else {
			res.Skipped = append(res.Skipped, cf.Name)
		}
	}
	return res, nil
}
