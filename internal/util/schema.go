package util

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/invopop/jsonschema"
)

// ValidationError describes a single argument that does not satisfy its
// tool schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

var reflector = jsonschema.Reflector{
	DoNotReference: true,
	ExpandedStruct: true,
}

// CreateSchema reflects v into a flat JSON schema object. Descriptions come
// from `jsonschema:"description=..."` tags; fields without omitempty are
// required. v is a static argument struct, so a schema that cannot be
// converted is a programming error and panics.
func CreateSchema(v any) map[string]any {
	schema, err := toMap(reflector.Reflect(v))
	if err != nil {
		panic(fmt.Sprintf("util: schema of %T: %v", v, err))
	}
	if schema == nil {
		schema = map[string]any{}
	}

	delete(schema, "$schema")
	delete(schema, "$id")
	if _, ok := schema["type"]; !ok {
		schema["type"] = "object"
	}
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	return schema
}

// toMap round-trips v through JSON into a generic map.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// SchemaFor is CreateSchema for the zero value of T.
func SchemaFor[T any]() map[string]any {
	var zero T
	return CreateSchema(zero)
}

// Decode converts loosely typed model arguments into T.
func Decode[T any](args map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, err
	}
	return out, nil
}

// RequiredFields returns the schema's "required" list, accepting both the
// []string literal form and the []any form produced by JSON decoding.
func RequiredFields(schema map[string]any) []string {
	switch req := schema["required"].(type) {
	case []string:
		return req
	case []any:
		return stringsOf(req)
	default:
		return nil
	}
}

// ValidateParameters checks presence of required fields, the JSON type of
// every declared property and enum membership. Undeclared fields pass.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range RequiredFields(schema) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := props[name].(map[string]any)
		if !ok {
			continue
		}

		typ, _ := prop["type"].(string)
		if check, known := typeChecks[typ]; known && value != nil && !check(value) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", typ, value),
			}
		}

		if enum, ok := prop["enum"]; ok && !allowed(value, enum) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("value %v is not one of the allowed values", value),
			}
		}
	}

	return nil
}

var typeChecks = map[string]func(any) bool{
	"string":  is[string],
	"boolean": is[bool],
	"array":   is[[]any],
	"object":  is[map[string]any],
	"number": func(v any) bool {
		_, ok := toFloat(v)
		return ok
	},
	"integer": func(v any) bool {
		f, ok := toFloat(v)
		return ok && f == float64(int64(f))
	},
}

func is[T any](v any) bool {
	_, ok := v.(T)
	return ok
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func allowed(value, enum any) bool {
	s, isString := value.(string)
	switch vals := enum.(type) {
	case []string:
		return isString && slices.Contains(vals, s)
	case []any:
		return slices.Contains(vals, value)
	default:
		return true
	}
}

func stringsOf(vals []any) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
