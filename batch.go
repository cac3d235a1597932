package prospectdb

// ConflictPolicy decides what happens when a bulk-imported document carries
// an identifier that already exists in the collection.
type ConflictPolicy int

const (
	// ConflictFail marks colliding documents as failed.
	ConflictFail ConflictPolicy = iota
	// ConflictIgnoreDuplicates skips colliding documents without error.
	ConflictIgnoreDuplicates
)

// UpsertStatus is the processing outcome of a single bulk-import document.
type UpsertStatus string

// Upsert outcome values.
const (
	UpsertInserted UpsertStatus = "inserted"
	UpsertSkipped  UpsertStatus = "skipped"
	UpsertFailed   UpsertStatus = "failed"
)

// UpsertOutcome is the outcome of processing one document in UpsertMany.
type UpsertOutcome struct {
	id     string
	status UpsertStatus
	err    error
}

// NewInserted creates a successful upsert outcome.
func NewInserted(id string) UpsertOutcome {
	return UpsertOutcome{id: id, status: UpsertInserted}
}

// NewSkipped creates a skipped-duplicate upsert outcome.
func NewSkipped(id string) UpsertOutcome {
	return UpsertOutcome{id: id, status: UpsertSkipped}
}

// NewFailed creates a failed upsert outcome.
func NewFailed(id string, err error) UpsertOutcome {
	return UpsertOutcome{id: id, status: UpsertFailed, err: err}
}

// ID returns the document identifier the outcome refers to.
func (o UpsertOutcome) ID() string { return o.id }

// Status returns the processing outcome.
func (o UpsertOutcome) Status() UpsertStatus { return o.status }

// Err returns the failure reason, if any.
func (o UpsertOutcome) Err() error { return o.err }
