// Package stats computes display-ready derived metrics over query result
// sets: counts, ratios, sums and groupings. Everything here is a pure
// transform; nothing is persisted and every value is recomputed from the
// documents passed in.
package stats

import (
	"errors"
	"math"

	"github.com/leadforge/prospectdb"
)

// ErrEmptyInput signals an aggregation that requires at least one document
// was called with none.
var ErrEmptyInput = errors.New("empty input")

// Ratio returns numerator / denominator, and 0 when the denominator is 0.
// The zero-denominator behavior is a compatibility guarantee: callers that
// fed the result straight into a percentage display rely on getting 0, not
// NaN or Infinity. Use RatioMetric when the caller needs to tell "0 out of
// many" apart from "no attempts at all".
func Ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Metric is a derived value plus a flag telling whether there was any data
// behind it. HasData is false exactly when the denominator was zero, so a
// UI can render "no data" instead of a misleading 0%.
type Metric struct {
	Value   float64 `json:"value"`
	HasData bool    `json:"hasData"`
}

// RatioMetric computes Ratio(numerator, denominator) together with the
// has-data flag.
func RatioMetric(numerator, denominator float64) Metric {
	return Metric{
		Value:   Ratio(numerator, denominator),
		HasData: denominator != 0,
	}
}

// Percentage converts a ratio to a whole percentage, rounding half up.
// Values are deliberately not clamped to [0, 100]: overlapping counter
// categories can legitimately push a numerator past its denominator, and
// hiding that would mask the inconsistency.
func Percentage(ratio float64) int {
	return int(math.Floor(ratio*100 + 0.5))
}

// Group is one bucket of a GroupCount: a distinct key and how many
// documents mapped to it.
type Group struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// GroupCount buckets documents by keyFn in a single pass. Buckets appear in
// first-seen order.
func GroupCount(docs []prospectdb.Document, keyFn func(prospectdb.Document) string) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, doc := range docs {
		key := keyFn(doc)
		if i, ok := index[key]; ok {
			groups[i].Count++
			continue
		}
		index[key] = len(groups)
		groups = append(groups, Group{Key: key, Count: 1})
	}
	return groups
}

// GroupCountByField buckets documents by the string form of a field.
func GroupCountByField(docs []prospectdb.Document, field string) []Group {
	return GroupCount(docs, func(d prospectdb.Document) string {
		return prospectdb.StringValue(d[field])
	})
}

// SumField totals a numeric field across documents. Missing or non-numeric
// values count as 0.
func SumField(docs []prospectdb.Document, field string) float64 {
	var sum float64
	for _, doc := range docs {
		if f, ok := prospectdb.NumberValue(doc[field]); ok {
			sum += f
		}
	}
	return sum
}

// LatestByDate returns the document with the maximum value of dateField.
// Documents whose field is missing or not date-like are ignored. An empty
// input, or one with no usable dates, fails with ErrEmptyInput rather than
// silently electing an arbitrary document.
func LatestByDate(docs []prospectdb.Document, dateField string) (prospectdb.Document, error) {
	var latest prospectdb.Document
	haveLatest := false
	var latestAt int64
	for _, doc := range docs {
		t, ok := prospectdb.TimeValue(doc[dateField])
		if !ok {
			continue
		}
		if !haveLatest || t.UnixNano() > latestAt {
			latest = doc
			latestAt = t.UnixNano()
			haveLatest = true
		}
	}
	if !haveLatest {
		return nil, ErrEmptyInput
	}
	return latest, nil
}
