package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Schema maps parameter names to their expected types. Every parameter is optional.
type Schema map[string]Type

// Check validates params against schema. It reports unknown parameters and values
// of the wrong type, in key order. Missing parameters are not errors.
func Check(schema Schema, params map[string]any) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value := params[key]
		fieldType, ok := schema[key]
		if !ok {
			errs = append(errs, &ValidationError{Key: key, Reason: "unknown parameter"})
			continue
		}
		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{Key: key, Reason: err.Error(), Value: value})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// Describe maps each parameter name to its type name, for catalogs.
func (s Schema) Describe() map[string]string {
	if len(s) == 0 {
		return nil
	}
	out := make(map[string]string, len(s))
	for key, typ := range s {
		out[key] = typ.Name()
	}
	return out
}

// MarshalJSON serializes the schema as a map of parameter names to type names.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	for key, typ := range s {
		if typ == nil {
			return nil, fmt.Errorf("field %s: type is nil", key)
		}
	}
	raw := s.Describe()
	if raw == nil {
		raw = map[string]string{}
	}
	return json.Marshal(raw)
}
