package prospectdb

import (
	"fmt"
	"regexp"
)

// Predicate is a declarative filter: field name to either a literal value
// (deep equality) or an operator Clause. All pairs must match (logical AND).
// The empty predicate matches every document.
type Predicate map[string]any

// Clause is an operator filter on a single field. The zero Clause is
// invalid; build one with GreaterOrEqual, LessOrEqual, Between,
// MatchesPattern or ByID.
type Clause struct {
	gte        any
	lte        any
	hasGTE     bool
	hasLTE     bool
	pattern    string
	patternCI  bool
	hasPattern bool
	idValue    any
	hasID      bool
}

// GreaterOrEqual matches documents whose field is >= v (numeric or date
// ordering).
func GreaterOrEqual(v any) Clause {
	return Clause{gte: v, hasGTE: true}
}

// LessOrEqual matches documents whose field is <= v (numeric or date
// ordering).
func LessOrEqual(v any) Clause {
	return Clause{lte: v, hasLTE: true}
}

// Between matches documents whose field is within [lo, hi], inclusive on
// both ends.
func Between(lo, hi any) Clause {
	return Clause{gte: lo, lte: hi, hasGTE: true, hasLTE: true}
}

// MatchesPattern matches documents whose field, coerced to a string, matches
// the regular expression expr.
func MatchesPattern(expr string, caseInsensitive bool) Clause {
	return Clause{pattern: expr, patternCI: caseInsensitive, hasPattern: true}
}

// ByID matches the document whose identifier equals v after string coercion
// of both sides.
func ByID(v any) Clause {
	return Clause{idValue: v, hasID: true}
}

func (c Clause) empty() bool {
	return !c.hasGTE && !c.hasLTE && !c.hasPattern && !c.hasID
}

// fieldCheck is one compiled field/operator pair.
type fieldCheck struct {
	field   string
	literal any
	clause  Clause
	isOp    bool
	re      *regexp.Regexp
}

// compiled is a predicate with its patterns compiled, ready for repeated
// evaluation over a result set.
type compiled struct {
	checks []fieldCheck
}

// compile validates the predicate and compiles patterns once, so a Find over
// N documents pays the regexp cost once instead of N times.
func (p Predicate) compile() (*compiled, error) {
	cp := &compiled{checks: make([]fieldCheck, 0, len(p))}
	for field, raw := range p {
		clause, isOp := raw.(Clause)
		if !isOp {
			cp.checks = append(cp.checks, fieldCheck{field: field, literal: raw})
			continue
		}
		if clause.empty() {
			return nil, fmt.Errorf("field %q: operator clause has no recognized operator: %w", field, ErrInvalidPredicate)
		}
		check := fieldCheck{field: field, clause: clause, isOp: true}
		if clause.hasPattern {
			expr := clause.pattern
			if clause.patternCI {
				expr = "(?i)" + expr
			}
			re, err := regexp.Compile(expr)
			if err != nil {
				return nil, fmt.Errorf("field %q: pattern %q: %w: %w", field, clause.pattern, ErrInvalidPredicate, err)
			}
			check.re = re
		}
		cp.checks = append(cp.checks, check)
	}
	return cp, nil
}

// matches reports whether doc satisfies every compiled check.
func (cp *compiled) matches(doc Document) bool {
	for i := range cp.checks {
		if !cp.checks[i].matches(doc) {
			return false
		}
	}
	return true
}

func (fc *fieldCheck) matches(doc Document) bool {
	if !fc.isOp {
		value, present := doc[fc.field]
		if fc.literal == nil {
			// Explicit null-equality: an absent field reads as null.
			return !present || value == nil
		}
		if !present {
			return false
		}
		return equalValues(value, fc.literal)
	}

	c := fc.clause
	if c.hasID {
		return StringValue(doc[IDField]) == StringValue(c.idValue)
	}

	value, present := doc[fc.field]
	if !present {
		return false
	}
	if c.hasGTE {
		cmp, ok := compareOrdered(value, c.gte)
		if !ok || cmp < 0 {
			return false
		}
	}
	if c.hasLTE {
		cmp, ok := compareOrdered(value, c.lte)
		if !ok || cmp > 0 {
			return false
		}
	}
	if fc.re != nil && !fc.re.MatchString(StringValue(value)) {
		return false
	}
	return true
}

// Matches reports whether doc satisfies the predicate. It fails only on a
// malformed predicate, never on document shape.
func (p Predicate) Matches(doc Document) (bool, error) {
	cp, err := p.compile()
	if err != nil {
		return false, err
	}
	return cp.matches(doc), nil
}
