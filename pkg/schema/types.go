package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// Type defines the contract for parameter validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// IntType validates integer values, optionally within [Min, Max].
type IntType struct {
	Min, Max *int
}

func (t *IntType) Name() string {
	switch {
	case t.Min != nil && t.Max != nil:
		return fmt.Sprintf("int(%d..%d)", *t.Min, *t.Max)
	case t.Min != nil:
		return fmt.Sprintf("int(%d..)", *t.Min)
	}
	return "int"
}

func (t *IntType) Validate(value any) error {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8, int16, int32, int64:
		n = reflect.ValueOf(v).Int()
	case uint, uint8, uint16, uint32, uint64:
		n = int64(reflect.ValueOf(v).Uint())
	case float64:
		// JSON numbers arrive as float64.
		if v != float64(int64(v)) {
			return fmt.Errorf("expected int, got float (not a whole number)")
		}
		n = int64(v)
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
	if t.Min != nil && n < int64(*t.Min) {
		return fmt.Errorf("%d is below the minimum %d", n, *t.Min)
	}
	if t.Max != nil && n > int64(*t.Max) {
		return fmt.Errorf("%d is above the maximum %d", n, *t.Max)
	}
	return nil
}

// ScalarType accepts any string, number or bool. Literals written in YAML
// (0, true, "") decode to different Go types but are all valid here.
type ScalarType struct{}

func (t *ScalarType) Name() string { return "scalar" }

func (t *ScalarType) Validate(value any) error {
	switch value.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return nil
	}
	return fmt.Errorf("expected string, number or bool, got %T", value)
}

// EnumType accepts one of a fixed set of strings.
type EnumType struct {
	values []string
}

func (t *EnumType) Name() string { return strings.Join(t.values, "|") }

func (t *EnumType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected one of %s, got %T", t.Name(), value)
	}
	for _, v := range t.values {
		if s == v {
			return nil
		}
	}
	return fmt.Errorf("expected one of %s, got %q", t.Name(), s)
}

// SliceType validates slices of a specific element type.
type SliceType struct {
	elemType Type
}

func (t *SliceType) Name() string {
	return fmt.Sprintf("[%s]", t.elemType.Name())
}

func (t *SliceType) Validate(value any) error {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elemType.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

// ObjectType validates a nested map against its own schema.
type ObjectType struct {
	fields Schema
}

func (t *ObjectType) Name() string { return "object" }

func (t *ObjectType) Validate(value any) error {
	m, ok := value.(map[string]any)
	if !ok {
		return fmt.Errorf("expected object, got %T", value)
	}
	return Check(t.fields, m)
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// IntRange creates an integer validator bounded to [lo, hi].
func IntRange(lo, hi int) Type { return &IntType{Min: &lo, Max: &hi} }

// Scalar creates a validator for any string, number or bool.
func Scalar() Type { return &ScalarType{} }

// OneOf creates an enum validator.
func OneOf(values ...string) Type { return &EnumType{values: values} }

// Slice creates a slice type validator for elements of the given type.
func Slice(elemType Type) Type {
	return &SliceType{elemType: elemType}
}

// Object creates a validator for a nested map.
func Object(fields Schema) Type { return &ObjectType{fields: fields} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}
