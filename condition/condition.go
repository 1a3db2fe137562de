// Package condition implements the condition language used by dyalchemy models.
//
// A [Condition] is a small tagged tree: comparisons, ranges, membership, store-side
// function predicates and the logical combinators Not, And and Or. Trees can be
// checked against the grammar with [Validate], evaluated locally against a record
// with [Evaluate], inspected for referenced attributes with [Extract] and translated
// into a DynamoDB condition expression with [Expression].
//
// Conditions use the same field names as their JSON wire shape, so they can be
// decoded straight from request payloads:
//
//	{"type": "Equals", "subject": "id", "object": "uuid"}
//	{"type": "And", "conditions": [{"type": "Between", "subject": "year", "lowerBound": 1980, "upperBound": 1990}]}
package condition

// Type is the discriminator of a condition node.
type Type string

// Condition types.
const (
	TypeEquals               Type = "Equals"
	TypeNotEquals            Type = "NotEquals"
	TypeLessThan             Type = "LessThan"
	TypeLessThanOrEqualTo    Type = "LessThanOrEqualTo"
	TypeGreaterThan          Type = "GreaterThan"
	TypeGreaterThanOrEqualTo Type = "GreaterThanOrEqualTo"
	TypeBetween              Type = "Between"
	TypeMembership           Type = "Membership"
	TypeFunction             Type = "Function"
	TypeNot                  Type = "Not"
	TypeAnd                  Type = "And"
	TypeOr                   Type = "Or"
)

// FunctionName names a store-side predicate carried by a Function condition.
type FunctionName string

// Store-side predicates. They have no local evaluation semantics.
const (
	AttributeExists    FunctionName = "attribute_exists"
	AttributeNotExists FunctionName = "attribute_not_exists"
	AttributeType      FunctionName = "attribute_type"
	BeginsWith         FunctionName = "begins_with"
	Contains           FunctionName = "contains"
)

// Condition is a node of a condition tree. Which fields are meaningful depends on
// Type; [Validate] rejects nodes carrying fields that do not belong to their type.
type Condition struct {
	Type Type `json:"type" yaml:"type" validate:"required,oneof=Equals NotEquals LessThan LessThanOrEqualTo GreaterThan GreaterThanOrEqualTo Between Membership Function Not And Or"`

	// Subject is the attribute the node tests (all leaf types).
	Subject string `json:"subject,omitempty" yaml:"subject,omitempty"`

	// Object is the operand of the comparison types.
	Object any `json:"object,omitempty" yaml:"object,omitempty"`

	// LowerBound and UpperBound are the inclusive bounds of Between.
	LowerBound any `json:"lowerBound,omitempty" yaml:"lowerBound,omitempty"`
	UpperBound any `json:"upperBound,omitempty" yaml:"upperBound,omitempty"`

	// Values is the candidate set of Membership.
	Values []any `json:"values,omitempty" yaml:"values,omitempty"`

	// Name and Expected describe a Function predicate.
	Name     FunctionName `json:"name,omitempty" yaml:"name,omitempty" validate:"omitempty,oneof=attribute_exists attribute_not_exists attribute_type begins_with contains"`
	Expected string       `json:"expected,omitempty" yaml:"expected,omitempty"`

	// Condition is the child of Not.
	Condition *Condition `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Conditions are the children of And and Or, in order.
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty" validate:"dive"`
}

// Equals matches when the subject equals object.
func Equals(subject string, object any) Condition {
	return Condition{Type: TypeEquals, Subject: subject, Object: object}
}

// NotEquals matches when the subject differs from object, including when it is absent.
func NotEquals(subject string, object any) Condition {
	return Condition{Type: TypeNotEquals, Subject: subject, Object: object}
}

func LessThan(subject string, object any) Condition {
	return Condition{Type: TypeLessThan, Subject: subject, Object: object}
}

func LessThanOrEqualTo(subject string, object any) Condition {
	return Condition{Type: TypeLessThanOrEqualTo, Subject: subject, Object: object}
}

func GreaterThan(subject string, object any) Condition {
	return Condition{Type: TypeGreaterThan, Subject: subject, Object: object}
}

func GreaterThanOrEqualTo(subject string, object any) Condition {
	return Condition{Type: TypeGreaterThanOrEqualTo, Subject: subject, Object: object}
}

// Between matches lower <= subject <= upper.
func Between(subject string, lower, upper any) Condition {
	return Condition{Type: TypeBetween, Subject: subject, LowerBound: lower, UpperBound: upper}
}

// Membership matches when the subject equals one of values.
func Membership(subject string, values ...any) Condition {
	return Condition{Type: TypeMembership, Subject: subject, Values: values}
}

// Function builds a store-side predicate. expected is only used by
// attribute_type, begins_with and contains.
func Function(subject string, name FunctionName, expected string) Condition {
	return Condition{Type: TypeFunction, Subject: subject, Name: name, Expected: expected}
}

func Not(c Condition) Condition {
	return Condition{Type: TypeNot, Condition: &c}
}

func And(conditions ...Condition) Condition {
	return Condition{Type: TypeAnd, Conditions: conditions}
}

func Or(conditions ...Condition) Condition {
	return Condition{Type: TypeOr, Conditions: conditions}
}

// isComparison reports whether t is one of the six scalar comparison types.
func isComparison(t Type) bool {
	switch t {
	case TypeEquals, TypeNotEquals, TypeLessThan, TypeLessThanOrEqualTo, TypeGreaterThan, TypeGreaterThanOrEqualTo:
		return true
	}
	return false
}
