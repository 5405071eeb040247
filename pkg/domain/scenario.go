package domain

// Kind identifies which simulated construct a scenario demonstrates.
type Kind string

const (
	KindSequential    Kind = "sequential"
	KindIfElse        Kind = "if-else"
	KindSwitch        Kind = "switch"
	KindForLoop       Kind = "for-loop"
	KindEventLoop     Kind = "event-loop"
	KindAsyncTimeline Kind = "async-timeline"
	KindEquality      Kind = "equality"
	KindClass         Kind = "class"
)

// ScenarioSpec is the serializable form of a scenario: what stores, request bodies,
// YAML files and lesson front matter carry.
type ScenarioSpec struct {
	Kind   Kind           `json:"kind" yaml:"kind" mapstructure:"kind"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

// Clone returns a copy whose params share no maps or slices with s.
func (s ScenarioSpec) Clone() ScenarioSpec {
	out := ScenarioSpec{Kind: s.Kind}
	if s.Params != nil {
		out.Params = cloneMap(s.Params)
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

// Lesson pairs a scenario with teaching notes.
type Lesson struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Scenario ScenarioSpec `json:"scenario"`
	Notes    string       `json:"notes,omitempty"`
}
