package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/stepper/pkg/domain"
)

var (
	// DefaultMaxInputSize is 4KB (conservative default)
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "STEPPER_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans user input by enforcing size limits,
// validating UTF-8, and stripping dangerous control characters.
func SanitizeInput(input string) (string, error) {
	limit := getMaxInputSize()
	if len(input) > limit {
		// Rejected rather than truncated so a trace never depends on a cut-off value.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// Newline, tab and carriage return survive; ESC, NUL, BEL and friends do not.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

// SanitizeSpec applies SanitizeInput to the kind and to every string parameter,
// including strings nested in maps and slices. The input is not modified.
func SanitizeSpec(spec domain.ScenarioSpec) (domain.ScenarioSpec, error) {
	kind, err := SanitizeInput(string(spec.Kind))
	if err != nil {
		return domain.ScenarioSpec{}, fmt.Errorf("kind: %w", err)
	}
	out := domain.ScenarioSpec{Kind: domain.Kind(strings.TrimSpace(kind))}
	if spec.Params == nil {
		return out, nil
	}
	out.Params = make(map[string]any, len(spec.Params))
	for k, v := range spec.Params {
		clean, err := sanitizeValue(v)
		if err != nil {
			return domain.ScenarioSpec{}, fmt.Errorf("param %q: %w", k, err)
		}
		out.Params[k] = clean
	}
	return out, nil
}

func sanitizeValue(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return SanitizeInput(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			clean, err := sanitizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			clean, err := sanitizeValue(item)
			if err != nil {
				return nil, err
			}
			out[k] = clean
		}
		return out, nil
	}
	return v, nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func getMaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
