package scenario

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strconv"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Decode turns a serializable spec into a typed Scenario.
// It never fails: parameters that cannot be decoded, or decode to values outside
// the kind's domain, are replaced by the kind's default and logged at warn level.
// Unknown kinds decode to Unknown.
func Decode(spec domain.ScenarioSpec, logger *slog.Logger) Scenario {
	if logger == nil {
		logger = logging.NewNop()
	}
	def := Default(spec.Kind)
	if _, ok := def.(Unknown); ok {
		logger.Warn("unsupported scenario kind", "kind", spec.Kind)
		return def
	}
	if _, ok := def.(Sequential); ok {
		return def
	}

	// Decode into a pointer to a copy of the default so absent params keep their default.
	target := reflect.New(reflect.TypeOf(def))
	target.Elem().Set(reflect.ValueOf(def))

	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Metadata:         &md,
		Result:           target.Interface(),
		DecodeHook:       decodeHook,
	})
	if err != nil {
		logger.Error("failed to build scenario decoder", "kind", spec.Kind, "err", err)
		return def
	}
	if err := dec.Decode(spec.Params); err != nil {
		logger.Warn("malformed scenario params, using defaults", "kind", spec.Kind, "err", err)
		return def
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		logger.Debug("ignoring unknown scenario params", "kind", spec.Kind, "keys", md.Unused)
	}

	sc := target.Elem().Interface().(Scenario)
	if fixed, problem := normalize(sc); problem != "" {
		logger.Warn("invalid scenario param, using default", "kind", spec.Kind, "problem", problem)
		return fixed
	}
	return sc
}

// normalize enforces the value domain of each kind. It returns the corrected
// scenario and a description of what was wrong, or "" when sc was valid.
func normalize(sc Scenario) (Scenario, string) {
	switch s := sc.(type) {
	case ForLoop:
		if c := clampCount(s.Count); c != s.Count {
			return ForLoop{Count: c}, fmt.Sprintf("count %d outside 0..%d", s.Count, MaxLoopCount)
		}
	case EventLoop:
		if s.Demo != DemoBasic && s.Demo != DemoNested {
			return Default(domain.KindEventLoop), fmt.Sprintf("unknown demo %q", s.Demo)
		}
	case AsyncTimeline:
		if s.Mode != ModeSequential && s.Mode != ModeParallel {
			return Default(domain.KindAsyncTimeline), fmt.Sprintf("unknown mode %q", s.Mode)
		}
	case Class:
		if s.Name == "" || s.Method == "" {
			return Default(domain.KindClass), "class name and method are required"
		}
		for _, p := range s.Properties {
			if p.Name == "" {
				return Default(domain.KindClass), "property without a name"
			}
		}
	}
	return sc, ""
}

var decodeHook = mapstructure.ComposeDecodeHookFunc(
	mapstructure.DecodeHookFuncType(propertiesHook),
	mapstructure.DecodeHookFuncType(boolLiteralHook),
)

var propertySliceType = reflect.TypeOf([]Property{})

// propertiesHook accepts class properties written as a plain map
// ({name: Rex, sound: Woof}) in addition to a list of {name, value} objects.
// Map entries are ordered by key.
func propertiesHook(from, to reflect.Type, data any) (any, error) {
	if to != propertySliceType || from.Kind() != reflect.Map {
		return data, nil
	}
	m, ok := data.(map[string]any)
	if !ok {
		return data, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		out = append(out, map[string]any{"name": k, "value": m[k]})
	}
	return out, nil
}

// boolLiteralHook keeps booleans readable when they land in a string field;
// weak decoding would otherwise turn true into "1".
func boolLiteralHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.Bool && to.Kind() == reflect.String {
		return strconv.FormatBool(reflect.ValueOf(data).Bool()), nil
	}
	return data, nil
}

// Encode converts s back to its serializable form. Decode(Encode(s)) == s for
// every valid scenario.
func Encode(s Scenario) domain.ScenarioSpec {
	if s == nil {
		return domain.ScenarioSpec{}
	}
	spec := domain.ScenarioSpec{Kind: s.Kind()}
	switch s.(type) {
	case Unknown, Sequential:
		return spec
	}
	params := map[string]any{}
	if err := mapstructure.Decode(s, &params); err != nil || len(params) == 0 {
		return spec
	}
	if c, ok := s.(Class); ok {
		props := make([]any, len(c.Properties))
		for i, p := range c.Properties {
			props[i] = map[string]any{"name": p.Name, "value": p.Value}
		}
		params["properties"] = props
	}
	spec.Params = params
	return spec
}

// Parse is Decode followed by Generate.
func Parse(spec domain.ScenarioSpec, logger *slog.Logger) []domain.Step {
	return Generate(Decode(spec, logger))
}
