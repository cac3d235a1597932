package redis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/leadforge/prospectdb"
)

// encodeDoc serializes a document to JSON. time.Time values become RFC 3339
// strings, which the predicate evaluator still orders as dates.
func encodeDoc(doc prospectdb.Document) (string, error) {
	data, err := json.Marshal(normalizeValue(map[string]any(doc)))
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	return string(data), nil
}

// decodeDoc deserializes a stored JSON document. Numbers come back as
// float64, which equality and range operators normalize anyway.
func decodeDoc(raw string) (prospectdb.Document, error) {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return prospectdb.Document(m), nil
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(time.RFC3339Nano)
	case prospectdb.Document:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}
