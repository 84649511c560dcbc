package registry

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
)

// ValidateInput checks params against the input schema of capability id.
// It returns "" when the parameters are acceptable, otherwise a message naming
// the first problem: unknown capability, then missing required parameters in
// the schema's required order, then type mismatches in sorted parameter order.
// Only string, boolean and number kinds are checked; validation is shallow.
func (r *Registry) ValidateInput(id string, params map[string]any) string {
	c, ok := r.Get(id)
	if !ok {
		return NotFoundMessage(id)
	}
	schema := c.InputSchema

	for _, name := range schema.Required {
		if _, present := params[name]; !present {
			return fmt.Sprintf("missing required parameter: %s", name)
		}
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		prop, declared := schema.Property(name)
		if !declared {
			continue
		}
		if msg := checkKind(name, prop.Kind, params[name]); msg != "" {
			return msg
		}
	}
	return ""
}

// NotFoundMessage is the error text used for an unregistered capability id.
func NotFoundMessage(id string) string {
	return fmt.Sprintf("capability '%s' not found", id)
}

func checkKind(name string, kind a2a.Kind, v any) string {
	switch kind {
	case a2a.KindString:
		if _, ok := v.(string); !ok {
			return fmt.Sprintf("parameter '%s' must be a string", name)
		}
	case a2a.KindBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("parameter '%s' must be a boolean", name)
		}
	case a2a.KindNumber:
		if !isNumber(v) {
			return fmt.Sprintf("parameter '%s' must be a number", name)
		}
	}
	return ""
}

// isNumber accepts Go numerics and json.Number. Unlike a loose int/float
// check, bool is not a number here: true must not pass as 1.
func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, json.Number:
		return true
	}
	return false
}
