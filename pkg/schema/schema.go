package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
)

// Kind is the primitive JSON type a field must carry.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
)

// Field describes one element field. Optional fields may be absent, but
// when present they must have the declared kind.
type Field struct {
	Name     string
	Kind     Kind
	Optional bool
}

// Collection is a top-level array whose elements are objects with exactly
// the listed fields.
type Collection struct {
	Name   string
	Fields []Field
}

// Contract is the full shape of a document: exactly these collections and
// nothing else.
type Contract struct {
	Collections []Collection
}

// FragmentContract is the shape every extraction fragment must have before
// it is merged.
var FragmentContract = Contract{
	Collections: []Collection{
		{
			Name: "entity_nodes",
			Fields: []Field{
				{Name: "name", Kind: KindString},
				{Name: "generation", Kind: KindInteger},
				{Name: "primary_type", Kind: KindString, Optional: true},
				{Name: "secondary_type", Kind: KindString, Optional: true},
			},
		},
		{
			Name:   "category_nodes",
			Fields: []Field{{Name: "name", Kind: KindString}},
		},
		{
			Name: "entity_category_edges",
			Fields: []Field{
				{Name: "from_entity", Kind: KindString},
				{Name: "to_category", Kind: KindString},
			},
		},
		{
			Name: "evolution_edges",
			Fields: []Field{
				{Name: "from_entity", Kind: KindString},
				{Name: "to_entity", Kind: KindString},
			},
		},
		{
			Name: "mentions_edges",
			Fields: []Field{
				{Name: "from_media_id", Kind: KindString},
				{Name: "to_entity", Kind: KindString},
			},
		},
	},
}

// ExportContract is the shape of the exported graph document. It mirrors
// FragmentContract with the pokemon specific names kept for compatibility.
var ExportContract = Contract{
	Collections: []Collection{
		{
			Name: "pokemon_nodes",
			Fields: []Field{
				{Name: "name", Kind: KindString},
				{Name: "generation", Kind: KindInteger},
				{Name: "primary_type", Kind: KindString, Optional: true},
				{Name: "secondary_type", Kind: KindString, Optional: true},
			},
		},
		{
			Name:   "type_nodes",
			Fields: []Field{{Name: "name", Kind: KindString}},
		},
		{
			Name: "pokemon_type_edges",
			Fields: []Field{
				{Name: "from_pokemon", Kind: KindString},
				{Name: "to_type", Kind: KindString},
			},
		},
		{
			Name: "evolution_edges",
			Fields: []Field{
				{Name: "from_pokemon", Kind: KindString},
				{Name: "to_pokemon", Kind: KindString},
			},
		},
		{
			Name: "mentions_edges",
			Fields: []Field{
				{Name: "from_media_id", Kind: KindString},
				{Name: "to_pokemon", Kind: KindString},
			},
		},
	},
}

// SchemaViolation reports the first field path that does not satisfy a
// contract, e.g. "entity_nodes[2].generation".
type SchemaViolation struct {
	Path   string
	Reason string
}

func (e *SchemaViolation) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Reason)
}

func violation(path string, format string, args ...any) *SchemaViolation {
	return &SchemaViolation{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// ValidateFragment checks a raw fragment document against FragmentContract.
func ValidateFragment(raw []byte) error {
	return FragmentContract.Validate(raw)
}

// ValidateExport checks a raw export document against ExportContract.
func ValidateExport(raw []byte) error {
	return ExportContract.Validate(raw)
}

// Validate decodes raw JSON and checks it against the contract. The returned
// error is a *SchemaViolation for structural problems. Checks run in a fixed
// order (unknown top-level keys, then collections in contract order, then
// elements in array order, then fields in contract order) so the reported
// path is stable for a given input.
func (c Contract) Validate(raw []byte) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return violation("$", "invalid json: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return violation("$", "trailing data after document")
	}

	root, ok := doc.(map[string]any)
	if !ok {
		return violation("$", "expected object, got %s", typeName(doc))
	}

	if extra := unknownKeys(root, c.collectionNames()); len(extra) > 0 {
		return violation(extra[0], "unexpected collection")
	}

	for _, col := range c.Collections {
		value, ok := root[col.Name]
		if !ok {
			return violation(col.Name, "missing collection")
		}
		items, ok := value.([]any)
		if !ok {
			return violation(col.Name, "expected array, got %s", typeName(value))
		}
		for i, item := range items {
			path := col.Name + "[" + strconv.Itoa(i) + "]"
			if err := col.validateElement(path, item); err != nil {
				return err
			}
		}
	}

	return nil
}

func (col Collection) validateElement(path string, item any) error {
	obj, ok := item.(map[string]any)
	if !ok {
		return violation(path, "expected object, got %s", typeName(item))
	}

	for _, f := range col.Fields {
		fieldPath := path + "." + f.Name
		value, ok := obj[f.Name]
		if !ok {
			if f.Optional {
				continue
			}
			return violation(fieldPath, "missing required field")
		}
		if err := f.check(fieldPath, value); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(col.Fields))
	for _, f := range col.Fields {
		names = append(names, f.Name)
	}
	if extra := unknownKeys(obj, names); len(extra) > 0 {
		return violation(path+"."+extra[0], "unexpected field")
	}

	return nil
}

func (f Field) check(path string, value any) error {
	switch f.Kind {
	case KindString:
		if _, ok := value.(string); !ok {
			return violation(path, "expected string, got %s", typeName(value))
		}
	case KindInteger:
		n, ok := value.(json.Number)
		if !ok {
			return violation(path, "expected integer, got %s", typeName(value))
		}
		if _, err := n.Int64(); err != nil {
			return violation(path, "expected integer, got %s", n.String())
		}
	default:
		return violation(path, "unknown field kind %q", f.Kind)
	}
	return nil
}

func (c Contract) collectionNames() []string {
	names := make([]string, 0, len(c.Collections))
	for _, col := range c.Collections {
		names = append(names, col.Name)
	}
	return names
}

func unknownKeys(obj map[string]any, allowed []string) []string {
	var extra []string
	for k := range obj {
		if !slices.Contains(allowed, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return extra
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
