package domain

import "sort"

// Phase tags which part of the simulated program a step belongs to.
type Phase string

const (
	PhaseInit      Phase = "init"
	PhaseCondition Phase = "condition"
	PhaseBranch    Phase = "branch"
	PhaseLoop      Phase = "loop"
	PhaseCall      Phase = "call"
	PhaseQueue     Phase = "queue"
	PhaseComplete  Phase = "complete"
)

// Lane is an ordered, named column of items (call stack, task queue, timeline track).
type Lane struct {
	Name  string   `json:"name" yaml:"name"`
	Items []string `json:"items" yaml:"items"`
}

// Snapshot captures the simulated program state at one step.
// Variable values are kept as display literals (75, "Rex", true).
type Snapshot struct {
	Variables map[string]string `json:"variables" yaml:"variables"`
	Output    []string          `json:"output" yaml:"output"`
	Phase     Phase             `json:"phase" yaml:"phase"`
	Lanes     []Lane            `json:"lanes,omitempty" yaml:"lanes,omitempty"`
}

// Step is one immutable entry of a generated sequence.
type Step struct {
	Index       int      `json:"index" yaml:"index"`
	Description string   `json:"description" yaml:"description"`
	Snapshot    Snapshot `json:"snapshot" yaml:"snapshot"`
	Highlight   string   `json:"highlight,omitempty" yaml:"highlight,omitempty"`
}

// Clone returns a deep copy so callers can never reach into a generated sequence.
func (s Step) Clone() Step {
	out := s
	out.Snapshot = s.Snapshot.Clone()
	return out
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Phase: s.Phase}
	out.Variables = make(map[string]string, len(s.Variables))
	for k, v := range s.Variables {
		out.Variables[k] = v
	}
	out.Output = append([]string{}, s.Output...)
	if len(s.Lanes) > 0 {
		out.Lanes = make([]Lane, len(s.Lanes))
		for i, l := range s.Lanes {
			out.Lanes[i] = Lane{Name: l.Name, Items: append([]string{}, l.Items...)}
		}
	}
	return out
}

// VariableNames returns the snapshot's variable names in a stable order.
func (s Snapshot) VariableNames() []string {
	names := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// CloneSteps deep-copies a whole sequence.
func CloneSteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = s.Clone()
	}
	return out
}
