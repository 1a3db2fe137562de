package condition

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// shape lists the fields a node type requires and tolerates.
type shape struct {
	required []string
	optional []string
}

var (
	comparisonShape = shape{required: []string{"subject", "object"}}

	shapes = map[Type]shape{
		TypeEquals:               comparisonShape,
		TypeNotEquals:            comparisonShape,
		TypeLessThan:             comparisonShape,
		TypeLessThanOrEqualTo:    comparisonShape,
		TypeGreaterThan:          comparisonShape,
		TypeGreaterThanOrEqualTo: comparisonShape,
		TypeBetween:              {required: []string{"subject", "lowerBound", "upperBound"}},
		TypeMembership:           {required: []string{"subject", "values"}},
		TypeFunction:             {required: []string{"subject", "name"}, optional: []string{"expected"}},
		TypeNot:                  {required: []string{"condition"}},
		TypeAnd:                  {required: []string{"conditions"}},
		TypeOr:                   {required: []string{"conditions"}},
	}

	structFields = map[string]string{
		"subject":    "Subject",
		"object":     "Object",
		"lowerBound": "LowerBound",
		"upperBound": "UpperBound",
		"values":     "Values",
		"name":       "Name",
		"expected":   "Expected",
		"condition":  "Condition",
		"conditions": "Conditions",
	}
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(validateShape, Condition{})
	return v
}

// Validate checks c and all of its descendants against the condition grammar.
// Failures are reported as a *ValidationError matching ErrInvalidCondition.
func Validate(c Condition) error {
	if err := validate.Struct(c); err != nil {
		return &ValidationError{Condition: c, Err: err}
	}
	return nil
}

// present returns the populated fields of c keyed by wire name.
func present(c Condition) map[string]any {
	fields := make(map[string]any)
	if c.Subject != "" {
		fields["subject"] = c.Subject
	}
	if c.Object != nil {
		fields["object"] = c.Object
	}
	if c.LowerBound != nil {
		fields["lowerBound"] = c.LowerBound
	}
	if c.UpperBound != nil {
		fields["upperBound"] = c.UpperBound
	}
	if len(c.Values) > 0 {
		fields["values"] = c.Values
	}
	if c.Name != "" {
		fields["name"] = c.Name
	}
	if c.Expected != "" {
		fields["expected"] = c.Expected
	}
	if c.Condition != nil {
		fields["condition"] = c.Condition
	}
	if len(c.Conditions) > 0 {
		fields["conditions"] = c.Conditions
	}
	return fields
}

func validateShape(sl validator.StructLevel) {
	c := sl.Current().Interface().(Condition)
	sh, ok := shapes[c.Type]
	if !ok {
		// The oneof rule on Type already reports unknown tags.
		return
	}

	fields := present(c)
	allowed := make(map[string]bool, len(sh.required)+len(sh.optional))
	for _, name := range sh.required {
		allowed[name] = true
		if _, ok := fields[name]; !ok {
			sl.ReportError(nil, name, structFields[name], "required", string(c.Type))
		}
	}
	for _, name := range sh.optional {
		allowed[name] = true
	}
	for name, value := range fields {
		if !allowed[name] {
			sl.ReportError(value, name, structFields[name], "excluded", string(c.Type))
		}
	}

	for _, name := range []string{"object", "lowerBound", "upperBound"} {
		if v, ok := fields[name]; ok && allowed[name] && !isScalar(v) {
			sl.ReportError(v, name, structFields[name], "scalar", "")
		}
	}
	if allowed["values"] {
		for _, v := range c.Values {
			if !isScalar(v) {
				sl.ReportError(v, "values", "Values", "scalar", "")
				break
			}
		}
	}
}

// isScalar reports whether v can be used as a literal operand.
func isScalar(v any) bool {
	if _, ok := v.(string); ok {
		return true
	}
	if _, ok := v.(bool); ok {
		return true
	}
	_, ok := toFloat(v)
	return ok
}
