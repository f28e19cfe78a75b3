package gateway

import (
	"fmt"
)

// validateParams checks params against a tool's declared JSON parameter
// schema before any network dispatch. Required properties must be present
// and typed properties must match their declared type. Unknown properties
// are allowed; a tool with no declared schema accepts anything.
func validateParams(schema map[string]any, params map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	if required, ok := schema["required"].([]any); ok {
		for _, raw := range required {
			name, ok := raw.(string)
			if !ok {
				continue
			}
			if _, present := params[name]; !present {
				return fmt.Errorf("%w: missing required parameter %q", ErrInvalidArgument, name)
			}
		}
	}

	properties, ok := schema["properties"].(map[string]any)
	if !ok {
		return nil
	}
	for name, value := range params {
		propRaw, declared := properties[name]
		if !declared {
			continue
		}
		prop, ok := propRaw.(map[string]any)
		if !ok {
			continue
		}
		wantType, ok := prop["type"].(string)
		if !ok {
			continue
		}
		if !matchesType(wantType, value) {
			return fmt.Errorf("%w: parameter %q must be of type %s", ErrInvalidArgument, name, wantType)
		}
	}
	return nil
}

// matchesType checks a decoded JSON value against a JSON Schema type name
func matchesType(schemaType string, value any) bool {
	switch schemaType {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, int:
			return true
		}
		return false
	case "integer":
		switch v := value.(type) {
		case int:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	}
	return true
}
