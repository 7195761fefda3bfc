package validation

import (
	"strings"
	"testing"

	"corridor/pkg/models"
)

func TestValidateNote_BodyRequired(t *testing.T) {
	SetRules(Rules{})
	n := models.Note{ID: "n-1"}
	err := ValidateNote(n)
	if err == nil || !strings.Contains(err.Error(), "body is required") {
		t.Fatalf("expected body-required error, got %v", err)
	}
}

func TestValidateNote_RulesApplied(t *testing.T) {
	SetRules(Rules{
		Required: []string{"body.kind"},
		Types:    map[string]string{"body.kind": "string"},
		MaxLen:   map[string]int{"title": 8},
	})
	defer SetRules(Rules{})

	ok := models.Note{
		ID:    "n-1",
		Title: "short",
		Body:  map[string]interface{}{"kind": "text", "text": "hello"},
	}
	if err := ValidateNote(ok); err != nil {
		t.Fatalf("expected valid note, got %v", err)
	}

	missing := models.Note{
		ID:   "n-2",
		Body: map[string]interface{}{"text": "hello"},
	}
	if err := ValidateNote(missing); err == nil || !strings.Contains(err.Error(), "required path missing: body.kind") {
		t.Fatalf("expected missing-path error, got %v", err)
	}

	wrongType := models.Note{
		ID:   "n-3",
		Body: map[string]interface{}{"kind": 7},
	}
	if err := ValidateNote(wrongType); err == nil || !strings.Contains(err.Error(), "type mismatch at body.kind") {
		t.Fatalf("expected type-mismatch error, got %v", err)
	}

	tooLong := models.Note{
		ID:    "n-4",
		Title: "much too long for the rule",
		Body:  map[string]interface{}{"kind": "text"},
	}
	if err := ValidateNote(tooLong); err == nil || !strings.Contains(err.Error(), "max length exceeded at title") {
		t.Fatalf("expected max-length error, got %v", err)
	}
}

func TestValidateNote_ArrayTraversal(t *testing.T) {
	SetRules(Rules{Required: []string{"body.items.*.name"}})
	defer SetRules(Rules{})

	n := models.Note{
		ID: "n-5",
		Body: map[string]interface{}{
			"items": []interface{}{
				map[string]interface{}{"name": "first"},
			},
		},
	}
	if err := ValidateNote(n); err != nil {
		t.Fatalf("expected wildcard traversal to find name, got %v", err)
	}

	empty := models.Note{
		ID:   "n-6",
		Body: map[string]interface{}{"items": []interface{}{}},
	}
	if err := ValidateNote(empty); err == nil {
		t.Fatalf("expected error for empty items array")
	}
}
