package scenario

import (
	"errors"
	"fmt"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/schema"
)

var nonEmpty = schema.Custom("string", func(v any) error {
	if err := schema.String().Validate(v); err != nil {
		return err
	}
	if v == "" {
		return errors.New("must not be empty")
	}
	return nil
})

var propertySchema = schema.Schema{
	"name":  nonEmpty,
	"value": schema.Scalar(),
}

// properties are a list of {name, value} objects or a plain name: value map.
var properties = schema.Custom("[{name, value}]|map", func(v any) error {
	switch t := v.(type) {
	case []any:
		if err := schema.Slice(schema.Object(propertySchema)).Validate(t); err != nil {
			return err
		}
		for i, item := range t {
			if _, ok := item.(map[string]any)["name"]; !ok {
				return fmt.Errorf("element %d: property without a name", i)
			}
		}
		return nil
	case map[string]any:
		for name, value := range t {
			if err := schema.Scalar().Validate(value); err != nil {
				return fmt.Errorf("property %q: %w", name, err)
			}
		}
		return nil
	}
	return fmt.Errorf("expected a list or a map, got %T", v)
})

var paramSchemas = map[domain.Kind]schema.Schema{
	domain.KindSequential:    {},
	domain.KindIfElse:        {"value": schema.Int()},
	domain.KindSwitch:        {"value": schema.Int()},
	domain.KindForLoop:       {"count": schema.IntRange(0, MaxLoopCount)},
	domain.KindEventLoop:     {"demo": schema.OneOf(DemoBasic, DemoNested)},
	domain.KindAsyncTimeline: {"mode": schema.OneOf(ModeSequential, ModeParallel)},
	domain.KindEquality:      {"left": schema.Scalar(), "right": schema.Scalar()},
	domain.KindClass: {
		"name":       nonEmpty,
		"properties": properties,
		"method":     nonEmpty,
	},
}

// ParamSchema returns the parameters kind accepts, or false for unsupported kinds.
func ParamSchema(kind domain.Kind) (schema.Schema, bool) {
	s, ok := paramSchemas[kind]
	return s, ok
}

// Check reports what Decode would silently repair or ignore in spec: an
// unsupported kind, unknown parameters and values outside their domain.
func Check(spec domain.ScenarioSpec) error {
	s, ok := ParamSchema(spec.Kind)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedKind, spec.Kind)
	}
	return schema.Check(s, spec.Params)
}
