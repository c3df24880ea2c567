package schema

import (
	"fmt"
	"reflect"
)

// RecordSchema describes one persisted point record.
func RecordSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []any{"id", "status", "geometry"},
		"properties": map[string]any{
			"id":     map[string]any{"type": "integer", "minimum": float64(1)},
			"status": map[string]any{"type": "string", "minLength": float64(1)},
			"geometry": map[string]any{
				"type":     "object",
				"required": []any{"x", "y"},
				"properties": map[string]any{
					"x": map[string]any{"type": "number"},
					"y": map[string]any{"type": "number"},
				},
			},
		},
	}
}

// Validate checks a decoded JSON value against a JSON Schema subset.
// Returns nil if validation passes or the schema is nil.
//
// Supported keywords: type, properties, required, enum, minimum, minLength.
func Validate(schema map[string]any, value any) error {
	if schema == nil {
		return nil
	}
	return validateValue(schema, value, "$")
}

func validateValue(schema map[string]any, value any, path string) error {
	if t, ok := schema["type"].(string); ok {
		if err := checkType(t, value, path); err != nil {
			return err
		}
	}

	if enumList, ok := schema["enum"].([]any); ok {
		found := false
		for _, a := range enumList {
			if reflect.DeepEqual(a, value) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%s: value not in enum %v", path, enumList)
		}
	}

	switch v := value.(type) {
	case map[string]any:
		return validateObject(schema, v, path)
	case string:
		if min, ok := schema["minLength"].(float64); ok && float64(len(v)) < min {
			return fmt.Errorf("%s: string length %d is less than minLength %v", path, len(v), min)
		}
	case float64:
		if min, ok := schema["minimum"].(float64); ok && v < min {
			return fmt.Errorf("%s: %v is less than minimum %v", path, v, min)
		}
	}
	return nil
}

func checkType(expected string, value any, path string) error {
	actual := jsonType(value)
	switch {
	case actual == expected:
		return nil
	case expected == "integer":
		if f, ok := value.(float64); ok && f == float64(int64(f)) {
			return nil
		}
	}
	return fmt.Errorf("%s: expected type %q, got %q", path, expected, actual)
}

func jsonType(v any) string {
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
	case float64:
		return "number"
	default:
		return reflect.TypeOf(v).String()
	}
}

func validateObject(schema map[string]any, obj map[string]any, path string) error {
	if reqList, ok := schema["required"].([]any); ok {
		for _, r := range reqList {
			if field, ok := r.(string); ok {
				if _, exists := obj[field]; !exists {
					return fmt.Errorf("%s: missing required field %q", path, field)
				}
			}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	for field, propSchema := range props {
		val, exists := obj[field]
		if !exists {
			continue
		}
		ps, ok := propSchema.(map[string]any)
		if !ok {
			continue
		}
		if err := validateValue(ps, val, path+"."+field); err != nil {
			return err
		}
	}
	return nil
}
