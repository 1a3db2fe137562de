package store

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/dyalchemy/condition"
	"github.com/jacentio/dyalchemy/schema"
)

// --- toSet Tests ---

func TestToSet_Numbers(t *testing.T) {
	av, err := toSet(schema.Attribute{Type: schema.Number}, []int{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ns, ok := av.(*types.AttributeValueMemberNS)
	if !ok {
		t.Fatalf("expected NS, got %T", av)
	}
	if len(ns.Value) != 2 || ns.Value[0] != "1" || ns.Value[1] != "2" {
		t.Errorf("unexpected members %v", ns.Value)
	}
}

func TestToSet_MixedMembers(t *testing.T) {
	_, err := toSet(schema.Attribute{Type: schema.String}, []any{"a", 1})
	if err == nil {
		t.Error("expected error for non-string member of a string set")
	}
}

func TestAttributeValue_NonSetPassesThrough(t *testing.T) {
	s := schema.Schema{"tags": {Type: schema.List, MemberType: &schema.Attribute{Type: schema.String}}}

	v, err := attributeValue(s, "tags", []string{"a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := v.([]string); !ok {
		t.Errorf("expected list value to pass through, got %T", v)
	}

	v, _ = attributeValue(s, "undeclared", 5)
	if v != 5 {
		t.Errorf("expected undeclared attribute to pass through, got %v", v)
	}
}

// --- projection Tests ---

func TestProjection_Empty(t *testing.T) {
	if _, ok := projection(nil); ok {
		t.Error("expected no projection for empty names")
	}
}

// --- evalFunction Tests ---

func TestEvalFunction(t *testing.T) {
	record := map[string]any{
		"title":    "Alien",
		"keywords": []any{"space", "horror"},
		"year":     1979,
	}

	tests := []struct {
		name     string
		cond     condition.Condition
		expected bool
	}{
		{"exists", condition.Function("title", condition.AttributeExists, ""), true},
		{"exists missing", condition.Function("rating", condition.AttributeExists, ""), false},
		{"not exists", condition.Function("rating", condition.AttributeNotExists, ""), true},
		{"type string", condition.Function("title", condition.AttributeType, "S"), true},
		{"type number", condition.Function("year", condition.AttributeType, "N"), true},
		{"type list", condition.Function("keywords", condition.AttributeType, "L"), true},
		{"type mismatch", condition.Function("year", condition.AttributeType, "S"), false},
		{"begins with", condition.Function("title", condition.BeginsWith, "Al"), true},
		{"begins with number", condition.Function("year", condition.BeginsWith, "19"), false},
		{"contains substring", condition.Function("title", condition.Contains, "lie"), true},
		{"contains member", condition.Function("keywords", condition.Contains, "horror"), true},
		{"contains missing member", condition.Function("keywords", condition.Contains, "comedy"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalFunction(tt.cond, record)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

// --- compareKeys Tests ---

func TestCompareKeys_RangeThenID(t *testing.T) {
	a := Item{"id": "b", "year": 1979}
	b := Item{"id": "a", "year": 1986}
	if compareKeys(a, b, "year", "id") >= 0 {
		t.Error("expected range key to order first")
	}

	c := Item{"id": "a", "year": 1979}
	if compareKeys(c, a, "year", "id") >= 0 {
		t.Error("expected id to break ties")
	}
}
