package chi

import (
	"fmt"

	"github.com/leadforge/prospectdb"
)

// queryRequest is the body of POST /collections/{collection}/query.
//
// "where" maps field names to either a literal value or an operator object
// with any of greaterOrEqual, lessOrEqual, matchesPattern (+ caseInsensitive)
// or byId.
type queryRequest struct {
	Where      map[string]any `json:"where"`
	SortBy     string         `json:"sortBy"`
	Descending bool           `json:"descending"`
	Limit      int            `json:"limit"`
}

type updateRequest struct {
	Set prospectdb.Document `json:"set"`
}

type listResponse struct {
	Items []prospectdb.Document `json:"items"`
	Total int                   `json:"total"`
}

type collectionsResponse struct {
	Collections []collectionInfo `json:"collections"`
}

type collectionInfo struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type insertResponse struct {
	ID string `json:"id"`
}

type deleteResponse struct {
	Deleted int `json:"deleted"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var operatorKeys = map[string]struct{}{
	"greaterOrEqual":  {},
	"lessOrEqual":     {},
	"matchesPattern":  {},
	"caseInsensitive": {},
	"byId":            {},
}

// predicateFromWhere converts the JSON "where" object into a predicate.
// A plain JSON object value is only treated as an operator clause when every
// key is a known operator; anything else is an equality literal, nested
// objects included.
func predicateFromWhere(where map[string]any) (prospectdb.Predicate, error) {
	if len(where) == 0 {
		return nil, nil
	}
	p := make(prospectdb.Predicate, len(where))
	for field, raw := range where {
		obj, ok := raw.(map[string]any)
		if !ok || !allOperatorKeys(obj) {
			p[field] = raw
			continue
		}
		clause, err := clauseFromObject(field, obj)
		if err != nil {
			return nil, err
		}
		p[field] = clause
	}
	return p, nil
}

func allOperatorKeys(obj map[string]any) bool {
	if len(obj) == 0 {
		return false
	}
	for k := range obj {
		if _, ok := operatorKeys[k]; !ok {
			return false
		}
	}
	return true
}

func clauseFromObject(field string, obj map[string]any) (prospectdb.Clause, error) {
	if id, ok := obj["byId"]; ok {
		if len(obj) > 1 {
			return prospectdb.Clause{}, fmt.Errorf("field %q: byId cannot be combined with other operators", field)
		}
		return prospectdb.ByID(id), nil
	}

	gte, hasGTE := obj["greaterOrEqual"]
	lte, hasLTE := obj["lessOrEqual"]
	pattern, hasPattern := obj["matchesPattern"]

	if hasPattern {
		if hasGTE || hasLTE {
			return prospectdb.Clause{}, fmt.Errorf("field %q: matchesPattern cannot be combined with range operators", field)
		}
		expr, ok := pattern.(string)
		if !ok {
			return prospectdb.Clause{}, fmt.Errorf("field %q: matchesPattern must be a string", field)
		}
		ci, _ := obj["caseInsensitive"].(bool)
		return prospectdb.MatchesPattern(expr, ci), nil
	}

	switch {
	case hasGTE && hasLTE:
		return prospectdb.Between(gte, lte), nil
	case hasGTE:
		return prospectdb.GreaterOrEqual(gte), nil
	case hasLTE:
		return prospectdb.LessOrEqual(lte), nil
	}
	return prospectdb.Clause{}, fmt.Errorf("field %q: empty operator object", field)
}
