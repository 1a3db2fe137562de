package stream

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/dyalchemy/model"
)

func TestScalarAttr(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"name":    events.NewStringAttribute("test-value"),
		"version": events.NewNumberAttribute("42"),
		"data":    events.NewBinaryAttribute([]byte{0x01, 0x02, 0x03}),
		"active":  events.NewBooleanAttribute(true),
		"tags":    events.NewStringSetAttribute([]string{"a"}),
	}

	tests := []struct {
		key  string
		want string
	}{
		{"name", "test-value"},
		{"version", "42"},
		{"data", "AQID"},
		{"active", ""},
		{"tags", ""},
		{"missing", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := scalarAttr(image, tt.key); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestScalarAttr_NilImage(t *testing.T) {
	if got := scalarAttr(nil, "id"); got != "" {
		t.Errorf("expected empty string for nil image, got %q", got)
	}
}

func TestIdentifier_PrefersKeys(t *testing.T) {
	change := events.DynamoDBStreamRecord{
		Keys:     map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("key")},
		NewImage: map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("new")},
		OldImage: map[string]events.DynamoDBAttributeValue{"id": events.NewStringAttribute("old")},
	}

	if got := identifier(change, "id"); got != "key" {
		t.Errorf("expected id from keys, got %q", got)
	}
}

func TestActionFor(t *testing.T) {
	tests := []struct {
		name string
		want model.ActionType
		ok   bool
	}{
		{"INSERT", model.ActionStreamInsert, true},
		{"MODIFY", model.ActionStreamModify, true},
		{"REMOVE", model.ActionStreamRemove, true},
		{"insert", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := actionFor(tt.name)
		if got != tt.want || ok != tt.ok {
			t.Errorf("actionFor(%q) = %q, %v; expected %q, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
