package prospectdb

import (
	"github.com/google/uuid"
)

// IDField is the normalized identifier field present on every stored document.
const IDField = "id"

// Document is a schema-less record: a mapping from field name to value.
// Supported values are strings, numbers, booleans, time.Time, nil, nested
// maps and slices thereof. Two documents in the same collection may have
// entirely different field sets.
type Document map[string]any

// NewID generates a fresh document identifier.
func NewID() string {
	return uuid.NewString()
}

// ID returns the document identifier, or "" if unset.
func (d Document) ID() string {
	id, _ := d[IDField].(string)
	return id
}

// Clone returns a deep copy of the document. The store clones documents on
// the way in and out so caller-side mutations never leak into stored state.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	c := make(Document, len(d))
	for k, v := range d {
		c[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Document:
		return t.Clone()
	case map[string]any:
		c := make(map[string]any, len(t))
		for k, e := range t {
			c[k] = cloneValue(e)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, e := range t {
			c[i] = cloneValue(e)
		}
		return c
	default:
		return v
	}
}
