// Package prospectdb is an embeddable in-process document store with a
// declarative query predicate language and batch import semantics.
//
// A Store holds named, insertion-ordered collections of schema-less
// documents. Collections are created on first reference. Every document
// carries exactly one identifier field, "id", assigned at insert time when
// absent and unique within its collection.
//
// Queries are expressed as a Predicate: a map from field name to either a
// literal value (deep equality) or an operator Clause built with
// GreaterOrEqual, LessOrEqual, Between, MatchesPattern or ByID. All pairs
// are combined with logical AND; the empty predicate matches everything.
//
// The store is single-threaded by design: operations are synchronous,
// in-memory transforms with no internal locking. Callers that share a Store
// across goroutines must serialize access themselves (the internal/db/memory
// driver does exactly that for the HTTP service).
//
// Derived metrics over result sets (ratios, groupings, sums) live in the
// stats subpackage.
package prospectdb
