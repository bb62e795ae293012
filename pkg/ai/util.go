package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

// GenerateSchema creates a JSON Schema from the Go type of value. Objects do
// not allow additional properties and nothing is referenced, which is the
// form structured output endpoints expect.
func GenerateSchema(value any) *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return reflector.ReflectFromType(t)
}

// GenerateSchemaJSON returns the indented JSON encoding of GenerateSchema.
func GenerateSchemaJSON(value any) ([]byte, error) {
	return json.MarshalIndent(GenerateSchema(value), "", "  ")
}

// UnmarshalFlexible decodes model output into out. Plain JSON is tried
// first, then a JSON string holding JSON, then a repaired version of the
// input. Models regularly return trailing commas, single quotes or a cut off
// closing brace.
//
// Example:
//
//	var frag extractResponse
//	UnmarshalFlexible(`{"entity_nodes": []}`, &frag)      // standard JSON
//	UnmarshalFlexible(`"{\"entity_nodes\": []}"`, &frag)  // double-encoded
//	UnmarshalFlexible(`{entity_nodes: [],}`, &frag)       // repaired
//
// A *json.RawMessage receives the (unwrapped, repaired) JSON text itself, so
// the caller can validate exactly what the model produced.
func UnmarshalFlexible(input string, out any) error {
	input = strings.TrimSpace(input)
	input = stripCodeFence(input)

	if raw, ok := out.(*json.RawMessage); ok {
		return unmarshalRaw(input, raw)
	}

	if err := json.Unmarshal([]byte(input), out); err == nil {
		return nil
	}

	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		asString = strings.TrimSpace(asString)
		if err := json.Unmarshal([]byte(asString), out); err == nil {
			return nil
		}
		input = asString
	}

	input = stripDuplicateLeadingBrace(input)
	repaired, err := jsonrepair.JSONRepair(input)
	if err != nil {
		return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
	}

	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("unmarshal failed after repair: %w (input: %s)", err, input)
	}
	return nil
}

func unmarshalRaw(input string, out *json.RawMessage) error {
	var asString string
	if err := json.Unmarshal([]byte(input), &asString); err == nil {
		input = strings.TrimSpace(asString)
	}

	if !json.Valid([]byte(input)) {
		repaired, err := jsonrepair.JSONRepair(stripDuplicateLeadingBrace(input))
		if err != nil {
			return fmt.Errorf("json repair failed: %w (input: %s)", err, input)
		}
		input = repaired
		if !json.Valid([]byte(input)) {
			return fmt.Errorf("invalid json after repair (input: %s)", input)
		}
	}

	*out = json.RawMessage(input)
	return nil
}

func stripDuplicateLeadingBrace(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") {
		rest := strings.TrimSpace(s[1:])
		if strings.HasPrefix(rest, "{") {
			return rest
		}
	}
	return s
}

// stripCodeFence removes a surrounding markdown code fence such as ```json.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
