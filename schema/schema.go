// Package schema describes the attributes of a model's items.
package schema

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidSchema is returned when a schema violates its invariants.
var ErrInvalidSchema = errors.New("dyalchemy: invalid schema")

// AttributeType is the storage type of an attribute.
type AttributeType string

// Attribute types.
const (
	String  AttributeType = "String"
	Number  AttributeType = "Number"
	Binary  AttributeType = "Binary"
	Boolean AttributeType = "Boolean"
	Null    AttributeType = "Null"
	List    AttributeType = "List"
	Map     AttributeType = "Map"
	Set     AttributeType = "Set"
)

// KeyType marks the identifier attribute.
type KeyType string

// Hash is the only key type an attribute may declare.
const Hash KeyType = "HASH"

// Attribute describes a single attribute.
type Attribute struct {
	Type AttributeType `json:"type" yaml:"type"`

	// MemberType is the element type of List and Set attributes.
	MemberType *Attribute `json:"memberType,omitempty" yaml:"memberType,omitempty"`

	// Default is substituted when a requested attribute is missing from a stored item.
	Default any `json:"defaultValue,omitempty" yaml:"default,omitempty"`

	KeyType KeyType `json:"keyType,omitempty" yaml:"keyType,omitempty"`
}

// Schema maps attribute names to their descriptors.
type Schema map[string]Attribute

// Validate checks that exactly one attribute is the HASH key, that no other
// attribute declares a key type and that every type is known.
func (s Schema) Validate() error {
	var hashes []string
	for _, name := range s.names() {
		attr := s[name]
		switch attr.KeyType {
		case "":
		case Hash:
			hashes = append(hashes, name)
		default:
			return fmt.Errorf("%w: attribute %q declares key type %q", ErrInvalidSchema, name, attr.KeyType)
		}
		if err := attr.validate(name); err != nil {
			return err
		}
	}

	switch len(hashes) {
	case 0:
		return fmt.Errorf("%w: no attribute has key type %s", ErrInvalidSchema, Hash)
	case 1:
	default:
		return fmt.Errorf("%w: multiple %s attributes %v", ErrInvalidSchema, Hash, hashes)
	}

	if t := s[hashes[0]].Type; t != String && t != Number && t != Binary {
		return fmt.Errorf("%w: key attribute %q has non-scalar type %s", ErrInvalidSchema, hashes[0], t)
	}
	return nil
}

// IDAttribute returns the name of the HASH attribute, or "" if there is none.
func (s Schema) IDAttribute() string {
	for _, name := range s.names() {
		if s[name].KeyType == Hash {
			return name
		}
	}
	return ""
}

// Default returns the configured default of the named attribute.
func (s Schema) Default(name string) (any, bool) {
	attr, ok := s[name]
	if !ok || attr.Default == nil {
		return nil, false
	}
	return attr.Default, true
}

// Has reports whether the schema declares name.
func (s Schema) Has(name string) bool {
	_, ok := s[name]
	return ok
}

func (s Schema) names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a Attribute) validate(name string) error {
	switch a.Type {
	case String, Number, Binary, Boolean, Null, Map:
		if a.MemberType != nil {
			return fmt.Errorf("%w: attribute %q of type %s cannot declare a member type", ErrInvalidSchema, name, a.Type)
		}
	case List:
		if a.MemberType != nil {
			return a.MemberType.validate(name + "[]")
		}
	case Set:
		if a.MemberType == nil {
			return fmt.Errorf("%w: set attribute %q needs a member type", ErrInvalidSchema, name)
		}
		switch a.MemberType.Type {
		case String, Number, Binary:
		default:
			return fmt.Errorf("%w: set attribute %q has non-scalar member type %s", ErrInvalidSchema, name, a.MemberType.Type)
		}
	default:
		return fmt.Errorf("%w: attribute %q has unknown type %q", ErrInvalidSchema, name, a.Type)
	}

	if a.Default != nil && !a.accepts(a.Default) {
		return fmt.Errorf("%w: default of attribute %q does not match type %s", ErrInvalidSchema, name, a.Type)
	}
	return nil
}

// accepts reports whether v is a plausible value for a scalar attribute.
// Container types are not checked.
func (a Attribute) accepts(v any) bool {
	switch a.Type {
	case String:
		_, ok := v.(string)
		return ok
	case Boolean:
		_, ok := v.(bool)
		return ok
	case Number:
		switch v.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	}
	return true
}
