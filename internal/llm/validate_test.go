package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

var testSchema = &Schema{
	Name:        "test-judgment",
	Description: "test schema",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"judgment":   map[string]any{"type": "string", "enum": []any{"yes", "no"}},
			"confidence": map[string]any{"type": "number"},
		},
		"required": []any{"judgment"},
	},
}

func TestValidateResponse_Valid(t *testing.T) {
	raw := json.RawMessage(`{"judgment":"yes","confidence":0.9}`)
	if err := validateResponse(testSchema, raw); err != nil {
		t.Errorf("valid document rejected: %v", err)
	}
}

func TestValidateResponse_MissingRequired(t *testing.T) {
	raw := json.RawMessage(`{"confidence":0.9}`)
	err := validateResponse(testSchema, raw)
	if err == nil {
		t.Fatal("document missing a required field passed validation")
	}
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Errorf("error = %T, want ErrInvalidResponse", err)
	}
}

func TestValidateResponse_EnumViolation(t *testing.T) {
	raw := json.RawMessage(`{"judgment":"maybe"}`)
	if err := validateResponse(testSchema, raw); err == nil {
		t.Fatal("out-of-enum value passed validation")
	}
}

func TestValidateResponse_NotJSON(t *testing.T) {
	err := validateResponse(testSchema, json.RawMessage(`definitely not json`))
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestValidateResponse_NilSchemaSkips(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`anything goes`)); err != nil {
		t.Errorf("nil schema should skip validation: %v", err)
	}
}

func TestResponse_Text(t *testing.T) {
	r := &Response{Content: json.RawMessage(`"hello there"`)}
	if got := r.Text(); got != "hello there" {
		t.Errorf("quoted text = %q, want unquoted", got)
	}

	r = &Response{Content: json.RawMessage(`{"a":1}`)}
	if got := r.Text(); got != `{"a":1}` {
		t.Errorf("structured text = %q, want raw JSON", got)
	}
}
