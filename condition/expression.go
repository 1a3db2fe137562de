package condition

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
)

// Expression translates c into a DynamoDB condition expression builder. Function
// nodes map onto the native DynamoDB predicates of the same name.
func Expression(c Condition) (expression.ConditionBuilder, error) {
	name := expression.Name(c.Subject)

	switch c.Type {
	case TypeEquals:
		return expression.Equal(name, expression.Value(c.Object)), nil
	case TypeNotEquals:
		return expression.NotEqual(name, expression.Value(c.Object)), nil
	case TypeLessThan:
		return expression.LessThan(name, expression.Value(c.Object)), nil
	case TypeLessThanOrEqualTo:
		return expression.LessThanEqual(name, expression.Value(c.Object)), nil
	case TypeGreaterThan:
		return expression.GreaterThan(name, expression.Value(c.Object)), nil
	case TypeGreaterThanOrEqualTo:
		return expression.GreaterThanEqual(name, expression.Value(c.Object)), nil
	case TypeBetween:
		return expression.Between(name, expression.Value(c.LowerBound), expression.Value(c.UpperBound)), nil
	case TypeMembership:
		if len(c.Values) == 0 {
			return expression.ConditionBuilder{}, Validate(c)
		}
		rest := make([]expression.OperandBuilder, 0, len(c.Values)-1)
		for _, v := range c.Values[1:] {
			rest = append(rest, expression.Value(v))
		}
		return expression.In(name, expression.Value(c.Values[0]), rest...), nil
	case TypeFunction:
		return function(name, c)
	case TypeNot:
		if c.Condition == nil {
			return expression.ConditionBuilder{}, Validate(c)
		}
		inner, err := Expression(*c.Condition)
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		return expression.Not(inner), nil
	case TypeAnd, TypeOr:
		if len(c.Conditions) == 0 {
			return expression.ConditionBuilder{}, Validate(c)
		}
		builders := make([]expression.ConditionBuilder, 0, len(c.Conditions))
		for _, child := range c.Conditions {
			b, err := Expression(child)
			if err != nil {
				return expression.ConditionBuilder{}, err
			}
			builders = append(builders, b)
		}
		if len(builders) == 1 {
			return builders[0], nil
		}
		if c.Type == TypeAnd {
			return expression.And(builders[0], builders[1], builders[2:]...), nil
		}
		return expression.Or(builders[0], builders[1], builders[2:]...), nil
	default:
		return expression.ConditionBuilder{}, &UnknownTypeError{Type: c.Type}
	}
}

func function(name expression.NameBuilder, c Condition) (expression.ConditionBuilder, error) {
	switch c.Name {
	case AttributeExists:
		return expression.AttributeExists(name), nil
	case AttributeNotExists:
		return expression.AttributeNotExists(name), nil
	case AttributeType:
		return expression.AttributeType(name, expression.DynamoDBAttributeType(c.Expected)), nil
	case BeginsWith:
		return expression.BeginsWith(name, c.Expected), nil
	case Contains:
		return expression.Contains(name, c.Expected), nil
	default:
		return expression.ConditionBuilder{}, fmt.Errorf("%w: function %q", ErrInvalidCondition, c.Name)
	}
}
