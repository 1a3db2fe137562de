package condition

import (
	"cmp"
	"strings"
)

// Evaluator evaluates conditions against in-memory records.
//
// The zero Evaluator rejects Function nodes with ErrNotImplemented. Stores that can
// answer store-side predicates locally supply Functions.
type Evaluator struct {
	Functions func(c Condition, record map[string]any) (bool, error)
}

// Evaluate evaluates c against record with the zero Evaluator.
func Evaluate(c Condition, record map[string]any) (bool, error) {
	return Evaluator{}.Evaluate(c, record)
}

// Evaluate reports whether record satisfies c. Evaluation is pure: And and Or
// evaluate every child so errors surface regardless of sibling results.
func (e Evaluator) Evaluate(c Condition, record map[string]any) (bool, error) {
	switch c.Type {
	case TypeEquals:
		return equal(record[c.Subject], c.Object), nil
	case TypeNotEquals:
		return !equal(record[c.Subject], c.Object), nil
	case TypeLessThan:
		n, ok := Compare(record[c.Subject], c.Object)
		return ok && n < 0, nil
	case TypeLessThanOrEqualTo:
		n, ok := Compare(record[c.Subject], c.Object)
		return ok && n <= 0, nil
	case TypeGreaterThan:
		n, ok := Compare(record[c.Subject], c.Object)
		return ok && n > 0, nil
	case TypeGreaterThanOrEqualTo:
		n, ok := Compare(record[c.Subject], c.Object)
		return ok && n >= 0, nil
	case TypeBetween:
		v := record[c.Subject]
		lo, okLo := Compare(c.LowerBound, v)
		hi, okHi := Compare(v, c.UpperBound)
		return okLo && okHi && lo <= 0 && hi <= 0, nil
	case TypeMembership:
		v := record[c.Subject]
		for _, candidate := range c.Values {
			if equal(v, candidate) {
				return true, nil
			}
		}
		return false, nil
	case TypeNot:
		if c.Condition == nil {
			return false, Validate(c)
		}
		ok, err := e.Evaluate(*c.Condition, record)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case TypeAnd:
		all := true
		for _, child := range c.Conditions {
			ok, err := e.Evaluate(child, record)
			if err != nil {
				return false, err
			}
			all = all && ok
		}
		return all, nil
	case TypeOr:
		matched := false
		for _, child := range c.Conditions {
			ok, err := e.Evaluate(child, record)
			if err != nil {
				return false, err
			}
			matched = matched || ok
		}
		return matched, nil
	case TypeFunction:
		if e.Functions == nil {
			return false, ErrNotImplemented
		}
		return e.Functions(c, record)
	default:
		return false, &UnknownTypeError{Type: c.Type}
	}
}

// Compare orders two scalars of the same kind: strings lexically, numbers of any Go
// numeric type numerically. ok is false when the values are not mutually ordered.
func Compare(a, b any) (n int, ok bool) {
	if as, isStr := a.(string); isStr {
		bs, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	af, isNum := toFloat(a)
	if !isNum {
		return 0, false
	}
	bf, isNum := toFloat(b)
	if !isNum {
		return 0, false
	}
	return cmp.Compare(af, bf), true
}

func equal(a, b any) bool {
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	n, ok := Compare(a, b)
	return ok && n == 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
