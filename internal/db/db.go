// Package db defines the storage contract the service is built against.
//
// The interface mirrors the embeddable store's verbs one for one, so calling
// code does not change when the in-memory driver is swapped for a Redis or
// SQLite backend.
package db

import (
	"context"
	"time"

	"github.com/leadforge/prospectdb"
)

// Store is the storage facade: the four CRUD verbs plus batch import,
// seeding and introspection, all scoped by collection name.
type Store interface {
	Pinger

	Find(ctx context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error)
	FindOne(ctx context.Context, collection string, p prospectdb.Predicate) (prospectdb.Document, bool, error)
	InsertOne(ctx context.Context, collection string, doc prospectdb.Document) (string, error)
	InsertMany(ctx context.Context, collection string, docs []prospectdb.Document) ([]string, error)
	UpdateOne(ctx context.Context, collection string, p prospectdb.Predicate, changes prospectdb.Document) (
		prospectdb.Document, bool, error,
	)
	DeleteOne(ctx context.Context, collection string, p prospectdb.Predicate) (int, error)
	DeleteMany(ctx context.Context, collection string, p prospectdb.Predicate) (int, error)
	Count(ctx context.Context, collection string, p prospectdb.Predicate) (int, error)
	UpsertMany(ctx context.Context, collection string, docs []prospectdb.Document, policy prospectdb.ConflictPolicy) (
		[]prospectdb.UpsertOutcome, error,
	)

	SeedIfEmpty(ctx context.Context, collection string, docs []prospectdb.Document) (bool, error)
	Collections(ctx context.Context) ([]string, error)

	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
