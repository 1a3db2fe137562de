package condition

// Attributes is the result of Extract. Each element is either an attribute name
// (string) or a nested Attributes produced by an And or Or child.
type Attributes []any

// Extract returns the attributes referenced by c.
//
// Leaf nodes yield a single name and Not yields its child's result unchanged, but And
// and Or yield one nested element per child rather than a flat list. Callers that need
// plain names use Flatten.
func Extract(c Condition) (Attributes, error) {
	switch {
	case isComparison(c.Type), c.Type == TypeBetween, c.Type == TypeMembership:
		return Attributes{c.Subject}, nil
	}

	switch c.Type {
	case TypeNot:
		if c.Condition == nil {
			return nil, Validate(c)
		}
		return Extract(*c.Condition)
	case TypeAnd, TypeOr:
		out := make(Attributes, 0, len(c.Conditions))
		for _, child := range c.Conditions {
			sub, err := Extract(child)
			if err != nil {
				return nil, err
			}
			out = append(out, sub)
		}
		return out, nil
	case TypeFunction:
		return nil, ErrNotImplemented
	default:
		return nil, &UnknownTypeError{Type: c.Type}
	}
}

// Flatten returns every attribute name in a, de-duplicated, in first-seen order.
func (a Attributes) Flatten() []string {
	seen := make(map[string]bool)
	var names []string
	var walk func(Attributes)
	walk = func(attrs Attributes) {
		for _, v := range attrs {
			switch x := v.(type) {
			case string:
				if !seen[x] {
					seen[x] = true
					names = append(names, x)
				}
			case Attributes:
				walk(x)
			}
		}
	}
	walk(a)
	return names
}
