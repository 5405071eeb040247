package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

// Mask replaces redacted parameter values.
const Mask = "***"

type redactMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks scenario params whose key matches any pattern before they
// reach the store. Loaded sessions keep the mask; the scenario decoder then falls back
// to that parameter's default.
func NewRedactMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactMiddleware{next: next, patterns: patterns}
	}
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, sess *domain.Session) error {
	// Clone so the caller's live session is untouched.
	cloned := sess.Clone()
	maskMap(cloned.Scenario.Params, m.patterns)
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskMap(m map[string]any, patterns []*regexp.Regexp) {
	for k, v := range m {
		if matchesAny(k, patterns) {
			m[k] = Mask
			continue
		}
		m[k] = maskValue(v, patterns)
	}
}

// maskValue descends into nested maps and lists. Params arrive cloned, so
// masking in place is safe.
func maskValue(v any, patterns []*regexp.Regexp) any {
	switch t := v.(type) {
	case map[string]any:
		maskMap(t, patterns)
	case []any:
		for i, e := range t {
			t[i] = maskValue(e, patterns)
		}
	}
	return v
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
