package schema

import (
	"errors"
	"testing"
)

const validFragment = `{
	"entity_nodes": [
		{"name": "Bulbasaur", "generation": 1, "primary_type": "Grass", "secondary_type": "Poison"},
		{"name": "Charmander", "generation": 1}
	],
	"category_nodes": [{"name": "Grass"}, {"name": "Poison"}],
	"entity_category_edges": [{"from_entity": "Bulbasaur", "to_category": "Grass"}],
	"evolution_edges": [{"from_entity": "Bulbasaur", "to_entity": "Ivysaur"}],
	"mentions_edges": [{"from_media_id": "bulbasaur_fact", "to_entity": "Bulbasaur"}]
}`

func TestValidateFragment_Valid(t *testing.T) {
	if err := ValidateFragment([]byte(validFragment)); err != nil {
		t.Fatalf("ValidateFragment() error = %v", err)
	}
}

func TestValidateFragment_EmptyCollections(t *testing.T) {
	raw := `{"entity_nodes":[],"category_nodes":[],"entity_category_edges":[],"evolution_edges":[],"mentions_edges":[]}`
	if err := ValidateFragment([]byte(raw)); err != nil {
		t.Fatalf("ValidateFragment() error = %v", err)
	}
}

func TestValidateFragment_Violations(t *testing.T) {
	const empty = `"category_nodes":[],"entity_category_edges":[],"evolution_edges":[],"mentions_edges":[]`

	tests := []struct {
		name     string
		input    string
		wantPath string
	}{
		{
			name:     "not json",
			input:    `{nope`,
			wantPath: "$",
		},
		{
			name:     "array root",
			input:    `[]`,
			wantPath: "$",
		},
		{
			name:     "missing collection",
			input:    `{"entity_nodes":[],"category_nodes":[],"entity_category_edges":[],"evolution_edges":[]}`,
			wantPath: "mentions_edges",
		},
		{
			name:     "extra collection",
			input:    `{"entity_nodes":[],` + empty + `,"relationships":[]}`,
			wantPath: "relationships",
		},
		{
			name:     "collection not array",
			input:    `{"entity_nodes":{},` + empty + `}`,
			wantPath: "entity_nodes",
		},
		{
			name:     "element not object",
			input:    `{"entity_nodes":["Bulbasaur"],` + empty + `}`,
			wantPath: "entity_nodes[0]",
		},
		{
			name:     "missing name",
			input:    `{"entity_nodes":[{"generation":1}],` + empty + `}`,
			wantPath: "entity_nodes[0].name",
		},
		{
			name:     "generation as string",
			input:    `{"entity_nodes":[{"name":"Bulbasaur","generation":"1"}],` + empty + `}`,
			wantPath: "entity_nodes[0].generation",
		},
		{
			name:     "generation as float",
			input:    `{"entity_nodes":[{"name":"Bulbasaur","generation":1.5}],` + empty + `}`,
			wantPath: "entity_nodes[0].generation",
		},
		{
			name:     "null optional type",
			input:    `{"entity_nodes":[{"name":"Bulbasaur","generation":1,"primary_type":null}],` + empty + `}`,
			wantPath: "entity_nodes[0].primary_type",
		},
		{
			name:     "extra element field",
			input:    `{"entity_nodes":[{"name":"Bulbasaur","generation":1,"description":"seed"}],` + empty + `}`,
			wantPath: "entity_nodes[0].description",
		},
		{
			name:     "first offending element wins",
			input:    `{"entity_nodes":[{"name":"A","generation":1},{"name":2,"generation":1},{"generation":1}],` + empty + `}`,
			wantPath: "entity_nodes[1].name",
		},
		{
			name: "edge with wrong field",
			input: `{"entity_nodes":[],"category_nodes":[],"entity_category_edges":[],"evolution_edges":[],` +
				`"mentions_edges":[{"from_media_id":"m","to_pokemon":"Bulbasaur"}]}`,
			wantPath: "mentions_edges[0].to_entity",
		},
		{
			name:     "trailing data",
			input:    `{"entity_nodes":[],` + empty + `} {}`,
			wantPath: "$",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFragment([]byte(tc.input))
			if err == nil {
				t.Fatal("expected violation, got nil")
			}
			var v *SchemaViolation
			if !errors.As(err, &v) {
				t.Fatalf("expected *SchemaViolation, got %T: %v", err, err)
			}
			if v.Path != tc.wantPath {
				t.Errorf("Path = %q, want %q (reason: %s)", v.Path, tc.wantPath, v.Reason)
			}
		})
	}
}

func TestValidateExport_RejectsFragmentNames(t *testing.T) {
	err := ValidateExport([]byte(validFragment))
	var v *SchemaViolation
	if !errors.As(err, &v) {
		t.Fatalf("expected *SchemaViolation, got %v", err)
	}
	if v.Path != "category_nodes" {
		t.Errorf("Path = %q, want %q", v.Path, "category_nodes")
	}
}

func TestParseFragment(t *testing.T) {
	frag, err := ParseFragment([]byte(validFragment))
	if err != nil {
		t.Fatalf("ParseFragment() error = %v", err)
	}
	if len(frag.EntityNodes) != 2 {
		t.Fatalf("expected 2 entity nodes, got %d", len(frag.EntityNodes))
	}
	bulba := frag.EntityNodes[0]
	if bulba.PrimaryType == nil || *bulba.PrimaryType != "Grass" {
		t.Errorf("unexpected primary type %v", bulba.PrimaryType)
	}
	if frag.EntityNodes[1].PrimaryType != nil {
		t.Errorf("expected absent primary type for Charmander")
	}
	if len(frag.MentionsEdges) != 1 || frag.MentionsEdges[0].FromMediaID != "bulbasaur_fact" {
		t.Errorf("unexpected mentions edges %+v", frag.MentionsEdges)
	}
}

func TestParseFragment_InvalidReturnsViolation(t *testing.T) {
	_, err := ParseFragment([]byte(`{}`))
	var v *SchemaViolation
	if !errors.As(err, &v) {
		t.Fatalf("expected *SchemaViolation, got %v", err)
	}
	if v.Path != "entity_nodes" {
		t.Errorf("Path = %q, want entity_nodes", v.Path)
	}
}
