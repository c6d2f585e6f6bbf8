package parammapper

import (
	"testing"
)

func TestDeriveExplicitPositionalHint(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"x-icarus-params": map[string]any{
			"style": "positional",
			"order": []any{"key", "content"},
			"types": []any{"text", "text"},
		},
	}
	desc, err := Derive(schema)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if desc.Style != StylePositional {
		t.Fatalf("Style = %v, want StylePositional", desc.Style)
	}
	if len(desc.Params) != 2 || desc.Params[0].Name != "key" || desc.Params[1].Name != "content" {
		t.Errorf("Params = %+v", desc.Params)
	}
}

func TestDeriveExplicitRecordHint(t *testing.T) {
	t.Parallel()

	schema := map[string]any{"x-icarus-params": map[string]any{"style": "record"}}
	desc, err := Derive(schema)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if desc.Style != StyleRecord {
		t.Errorf("Style = %v, want StyleRecord", desc.Style)
	}
}

func TestDeriveExplicitEmptyHint(t *testing.T) {
	t.Parallel()

	schema := map[string]any{"x-icarus-params": map[string]any{"style": "empty"}}
	desc, err := Derive(schema)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if desc.Style != StyleEmpty {
		t.Errorf("Style = %v, want StyleEmpty", desc.Style)
	}
}

func TestDeriveUnknownWireTypeIsConfigError(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"x-icarus-params": map[string]any{
			"style": "positional",
			"order": []any{"a"},
			"types": []any{"bogus"},
		},
	}
	if _, err := Derive(schema); err == nil {
		t.Fatal("Derive() expected error for unknown wire-type")
	}
}

func TestDeriveAutoDetectPositionalUnderThreshold(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"properties": map[string]any{
			"key":     map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required": []any{"key"},
	}
	desc, err := Derive(schema)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if desc.Style != StylePositional {
		t.Fatalf("Style = %v, want StylePositional", desc.Style)
	}
	if desc.Params[0].Name != "key" {
		t.Errorf("first param = %q, want required key first", desc.Params[0].Name)
	}
}

func TestDeriveAutoDetectRecordOverThreshold(t *testing.T) {
	t.Parallel()

	props := map[string]any{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		props[name] = map[string]any{"type": "string"}
	}
	schema := map[string]any{"properties": props}

	desc, err := Derive(schema)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if desc.Style != StyleRecord {
		t.Errorf("Style = %v, want StyleRecord for >5 properties", desc.Style)
	}
}

func TestDeriveEmptySchema(t *testing.T) {
	t.Parallel()

	desc, err := Derive(map[string]any{})
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if desc.Style != StyleEmpty {
		t.Errorf("Style = %v, want StyleEmpty", desc.Style)
	}
}

func TestDeriveInfersWireTypesFromJSONSchemaTypes(t *testing.T) {
	t.Parallel()

	schema := map[string]any{
		"properties": map[string]any{
			"name":   map[string]any{"type": "string"},
			"count":  map[string]any{"type": "integer"},
			"amount": map[string]any{"type": "number"},
			"active": map[string]any{"type": "boolean"},
		},
	}
	desc, err := Derive(schema)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	byName := map[string]string{}
	for _, p := range desc.Params {
		byName[p.Name] = p.WireType
	}
	if byName["name"] != "text" || byName["count"] != "int64" || byName["amount"] != "nat64" || byName["active"] != "bool" {
		t.Errorf("inferred wire types = %+v", byName)
	}
}
