package web

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// RootPath is the structure path of the analyzed value itself.
const RootPath = "$"

// Analysis is the envelope returned by AnalyzeStructure.
type Analysis struct {
	Success  bool   `json:"success"`
	DataType string `json:"dataType,omitempty"`

	// Structure maps a JSONPath-like location to the type found there.
	// Arrays are described by their first element only.
	Structure map[string]string `json:"structure,omitempty"`

	// SchemaValid is set only when a schema was given.
	SchemaValid  *bool    `json:"schemaValid,omitempty"`
	SchemaErrors []string `json:"schemaErrors,omitempty"`

	Error string `json:"error,omitempty"`
}

// AnalyzeStructure describes the shape of decoded JSON data and, when schema
// is non-empty, validates data against it.
func AnalyzeStructure(data any, schema map[string]any) Analysis {
	out := Analysis{
		Success:   true,
		DataType:  typeName(data),
		Structure: make(map[string]string),
	}
	walk(data, RootPath, out.Structure)

	if len(schema) == 0 {
		return out
	}

	errs, err := validate(data, schema)
	if err != nil {
		return Analysis{Success: false, Error: err.Error()}
	}
	valid := len(errs) == 0
	out.SchemaValid = &valid
	out.SchemaErrors = errs
	return out
}

func walk(v any, path string, structure map[string]string) {
	switch t := v.(type) {
	case map[string]any:
		structure[path] = "object"
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(t[k], path+"."+k, structure)
		}
	case []any:
		structure[path] = fmt.Sprintf("array[%d]", len(t))
		if len(t) > 0 {
			walk(t[0], path+"[0]", structure)
		}
	default:
		structure[path] = typeName(v)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// validate checks data against a JSON Schema given as a decoded map. The
// returned slice holds validation failures; err is set only when the schema
// itself is unusable.
func validate(data any, schema map[string]any) ([]string, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("encoding schema: %w", err)
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	resolved, err := s.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	if err := resolved.Validate(data); err != nil {
		return []string{err.Error()}, nil
	}
	return nil, nil
}
