package prospect

import (
	"context"

	"github.com/leadforge/prospectdb"
)

// Store is the consumer storage interface for prospecting records (ISP).
type Store interface {
	Find(ctx context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error)
	FindOne(ctx context.Context, collection string, p prospectdb.Predicate) (prospectdb.Document, bool, error)
	InsertOne(ctx context.Context, collection string, doc prospectdb.Document) (string, error)
	UpdateOne(ctx context.Context, collection string, p prospectdb.Predicate, changes prospectdb.Document) (
		prospectdb.Document, bool, error,
	)
	DeleteOne(ctx context.Context, collection string, p prospectdb.Predicate) (int, error)
	Count(ctx context.Context, collection string, p prospectdb.Predicate) (int, error)
}
