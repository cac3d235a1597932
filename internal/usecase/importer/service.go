// Package importer handles bulk CSV import and export of CRM collections.
//
// Import parses rows into field-name → string documents, validates a
// caller-defined required-field set, then hands the batch to the store's
// upsert with duplicate-ignoring semantics. The caller gets a per-row
// outcome summary for its success/error report.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leadforge/prospectdb"
)

// ErrTooManyRows signals an import exceeding the configured row cap.
var ErrTooManyRows = errors.New("too many rows")

// Store is the consumer storage interface for bulk import/export (ISP).
type Store interface {
	Find(ctx context.Context, collection string, p prospectdb.Predicate) ([]prospectdb.Document, error)
	UpsertMany(ctx context.Context, collection string, docs []prospectdb.Document, policy prospectdb.ConflictPolicy) (
		[]prospectdb.UpsertOutcome, error,
	)
}

// RowError describes one rejected or failed input row. Line numbers are
// 1-based and count the header.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Summary is the outcome of one import run.
type Summary struct {
	Inserted int        `json:"inserted"`
	Skipped  int        `json:"skipped"`
	Failed   int        `json:"failed"`
	Errors   []RowError `json:"errors,omitempty"`
}

// Service imports and exports collections as CSV.
type Service struct {
	store   Store
	maxRows int
}

// New creates an importer. maxRows <= 0 means no cap.
func New(store Store, maxRows int) *Service {
	return &Service{store: store, maxRows: maxRows}
}

// ImportCSV reads CSV from r and bulk-imports it into the collection.
// Headers are lower-cased and trimmed; every row must carry a non-empty
// value for each field in required. Rows whose identifier already exists
// are skipped, not failed.
func (s *Service) ImportCSV(ctx context.Context, collection string, r io.Reader, required []string) (Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Summary{}, fmt.Errorf("empty input: no header row")
		}
		return Summary{}, fmt.Errorf("read header: %w", err)
	}
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var summary Summary
	var docs []prospectdb.Document
	var docLines []int

	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Line: line, Reason: err.Error()})
			continue
		}
		if s.maxRows > 0 && len(docs) >= s.maxRows {
			return summary, fmt.Errorf("%w: limit is %d", ErrTooManyRows, s.maxRows)
		}

		doc := make(prospectdb.Document, len(fields))
		for i, field := range fields {
			if i < len(record) {
				doc[field] = record[i]
			}
		}
		if reason, ok := missingRequired(doc, required); !ok {
			summary.Failed++
			summary.Errors = append(summary.Errors, RowError{Line: line, Reason: reason})
			continue
		}
		docs = append(docs, doc)
		docLines = append(docLines, line)
	}

	if len(docs) == 0 {
		return summary, nil
	}

	outcomes, err := s.store.UpsertMany(ctx, collection, docs, prospectdb.ConflictIgnoreDuplicates)
	if err != nil {
		return summary, fmt.Errorf("upsert into %s: %w", collection, err)
	}
	for i, o := range outcomes {
		switch o.Status() {
		case prospectdb.UpsertInserted:
			summary.Inserted++
		case prospectdb.UpsertSkipped:
			summary.Skipped++
		case prospectdb.UpsertFailed:
			summary.Failed++
			reason := "upsert failed"
			if o.Err() != nil {
				reason = o.Err().Error()
			}
			summary.Errors = append(summary.Errors, RowError{Line: docLines[i], Reason: reason})
		}
	}
	return summary, nil
}

func missingRequired(doc prospectdb.Document, required []string) (string, bool) {
	for _, field := range required {
		v, ok := doc[field]
		if !ok || strings.TrimSpace(prospectdb.StringValue(v)) == "" {
			return fmt.Sprintf("missing required field %q", field), false
		}
	}
	return "", true
}

// ExportCSV writes the whole collection to w. When fields is empty the
// column set is the union of fields across documents, identifier first, the
// rest in first-seen order.
func (s *Service) ExportCSV(ctx context.Context, collection string, fields []string, w io.Writer) error {
	docs, err := s.store.Find(ctx, collection, nil)
	if err != nil {
		return fmt.Errorf("find in %s: %w", collection, err)
	}
	if len(fields) == 0 {
		fields = collectFields(docs)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(fields); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(fields))
	for _, doc := range docs {
		for i, field := range fields {
			if v, ok := doc[field]; ok && v != nil {
				record[i] = prospectdb.StringValue(v)
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

func collectFields(docs []prospectdb.Document) []string {
	fields := []string{prospectdb.IDField}
	seen := map[string]struct{}{prospectdb.IDField: {}}
	for _, doc := range docs {
		// Map iteration order is random; sort the new fields of each
		// document so the column set is deterministic.
		var fresh []string
		for k := range doc {
			if _, ok := seen[k]; !ok {
				fresh = append(fresh, k)
				seen[k] = struct{}{}
			}
		}
		if len(fresh) > 1 {
			sortStrings(fresh)
		}
		fields = append(fields, fresh...)
	}
	return fields
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
