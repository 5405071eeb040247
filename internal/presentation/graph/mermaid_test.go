package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/stepper/internal/presentation/graph"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/scenario"
	"github.com/stretchr/testify/assert"
)

func step(i int, phase domain.Phase, desc string) domain.Step {
	return domain.Step{Index: i, Description: desc, Snapshot: domain.Snapshot{Phase: phase}}
}

func TestGenerateMermaid(t *testing.T) {
	tests := []struct {
		name     string
		steps    []domain.Step
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name: "Phase Shapes",
			steps: []domain.Step{
				step(0, domain.PhaseInit, "start"),
				step(1, domain.PhaseCondition, "check"),
				step(2, domain.PhaseLoop, "iterate"),
				step(3, domain.PhaseCall, "call"),
				step(4, domain.PhaseBranch, "branch"),
				step(5, domain.PhaseComplete, "done"),
			},
			contains: []string{
				`s0(("1. start"))`,
				`s1{"2. check"}`,
				`s2{{"3. iterate"}}`,
				`s3[["4. call"]]`,
				`s4["5. branch"]`,
				`s5(("6. done"))`,
			},
		},
		{
			name: "Sequential Edges",
			steps: []domain.Step{
				step(0, domain.PhaseInit, "a"),
				step(1, domain.PhaseComplete, "b"),
			},
			contains: []string{"s0 --> s1"},
			excludes: []string{"classDef"},
		},
		{
			name: "Quote Escaping",
			steps: []domain.Step{
				step(0, domain.PhaseInit, `Declare name = "Rex"`),
			},
			contains: []string{`name = #quot;Rex#quot;`},
		},
		{
			name: "Highlight",
			steps: []domain.Step{
				{Index: 0, Description: "check", Highlight: "score >= 70", Snapshot: domain.Snapshot{Phase: domain.PhaseCondition}},
			},
			contains: []string{`<br/> score >= 70`},
		},
		{
			name: "Overlay",
			steps: []domain.Step{
				step(0, domain.PhaseInit, "a"),
				step(1, domain.PhaseBranch, "b"),
				step(2, domain.PhaseComplete, "c"),
			},
			overlay: &graph.Overlay{Current: 1},
			contains: []string{
				"class s0 visited;",
				"class s1 current;",
			},
			excludes: []string{"class s2"},
		},
		{
			name: "Overlay Clamped",
			steps: []domain.Step{
				step(0, domain.PhaseInit, "a"),
				step(1, domain.PhaseComplete, "b"),
			},
			overlay:  &graph.Overlay{Current: 10},
			contains: []string{"class s1 current;"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := graph.GenerateMermaid(tt.steps, tt.overlay)
			assert.True(t, strings.HasPrefix(out, "graph TD\n"))
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, out, e)
			}
		})
	}
}

func TestGenerateMermaid_Scenario(t *testing.T) {
	steps := scenario.Generate(scenario.Default(domain.KindIfElse))
	out := graph.GenerateMermaid(steps, nil)

	assert.Equal(t, len(steps)-1, strings.Count(out, "-->"))
}
