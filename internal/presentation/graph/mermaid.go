package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/stepper/pkg/domain"
)

// Overlay marks playback progress on the flowchart.
type Overlay struct {
	// Current is the index of the step being shown.
	Current int
}

// GenerateMermaid produces a Mermaid flowchart of a step sequence.
// Shapes follow the step phase:
// - init, complete: ((Circle))
// - condition: {Rhombus}
// - loop: {{Hexagon}}
// - call, queue: [[Subroutine]]
// - default: [Rectangle]
// With an overlay, steps before Current are styled visited and Current is styled current.
func GenerateMermaid(steps []domain.Step, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, step := range steps {
		opener, closer := shape(step.Snapshot.Phase)
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(i), opener, label(step), closer)
		if i > 0 {
			fmt.Fprintf(&sb, "    %s --> %s\n", nodeID(i-1), nodeID(i))
		}
	}

	if overlay != nil && len(steps) > 0 {
		current := overlay.Current
		if current < 0 {
			current = 0
		}
		if current >= len(steps) {
			current = len(steps) - 1
		}

		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light fills in either theme
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for i := 0; i < current; i++ {
			fmt.Fprintf(&sb, "    class %s visited;\n", nodeID(i))
		}
		fmt.Fprintf(&sb, "    class %s current;\n", nodeID(current))
	}

	return sb.String()
}

func shape(p domain.Phase) (string, string) {
	switch p {
	case domain.PhaseInit, domain.PhaseComplete:
		return "((", "))"
	case domain.PhaseCondition:
		return "{", "}"
	case domain.PhaseLoop:
		return "{{", "}}"
	case domain.PhaseCall, domain.PhaseQueue:
		return "[[", "]]"
	}
	return "[", "]"
}

func nodeID(i int) string {
	return fmt.Sprintf("s%d", i)
}

func label(step domain.Step) string {
	text := fmt.Sprintf("%d. %s", step.Index+1, step.Description)
	if step.Highlight != "" {
		text += " <br/> " + step.Highlight
	}
	return escape(text)
}

// escape replaces characters Mermaid treats as syntax inside quoted labels.
func escape(s string) string {
	return strings.NewReplacer(
		"\"", "#quot;",
		"\n", " ",
	).Replace(s)
}
