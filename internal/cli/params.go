package cli

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/stepper"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/runner"
)

// ParseParams turns key=value pairs into a params map. Values are read as YAML
// scalars or flow collections, so 75 is a number, true a boolean and
// [a, b] a list; anything unparsable stays a string.
func ParseParams(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid param %q, expected key=value", pair)
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil || value == nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}

// ResolveSpec builds a scenario from a file when path is set, or from a kind and
// key=value params otherwise. The result is sanitized.
func ResolveSpec(path string, args []string, pairs []string) (domain.ScenarioSpec, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return domain.ScenarioSpec{}, fmt.Errorf("failed to read scenario: %w", err)
		}
		spec, err := stepper.ParseSpec(data)
		if err != nil {
			return domain.ScenarioSpec{}, fmt.Errorf("%s: %w", path, err)
		}
		extra, err := ParseParams(pairs)
		if err != nil {
			return domain.ScenarioSpec{}, err
		}
		if len(extra) > 0 && spec.Params == nil {
			spec.Params = map[string]any{}
		}
		for k, v := range extra {
			spec.Params[k] = v
		}
		return runner.SanitizeSpec(spec)
	}

	if len(args) == 0 {
		return domain.ScenarioSpec{}, fmt.Errorf("a scenario kind or --file is required")
	}
	params, err := ParseParams(pairs)
	if err != nil {
		return domain.ScenarioSpec{}, err
	}
	return runner.SanitizeSpec(domain.ScenarioSpec{Kind: domain.Kind(args[0]), Params: params})
}
