package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleView() render.View {
	step := domain.Step{
		Index:       1,
		Description: "Check score >= 60",
		Highlight:   "if",
		Snapshot: domain.Snapshot{
			Phase:     domain.PhaseCondition,
			Variables: map[string]string{"score": "75"},
			Output:    []string{"hi"},
		},
	}
	return render.Render(step, domain.Playback{Index: 1, Total: 4, Speed: domain.SpeedNormal, Status: domain.StatusPaused}, render.Options{})
}

func TestTextHandler_Output(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		want   string
	}{
		{"Plain", FormatPlain, "[2/4] condition: Check score >= 60"},
		{"Markdown", FormatMarkdown, "### Step 2/4 · condition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			h := NewTextHandler(out, WithFormat(tt.format))
			require.NoError(t, h.Output(context.Background(), sampleView()))
			assert.Contains(t, out.String(), tt.want)
		})
	}
}

func TestTextHandler_Renderer(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(out, WithTextHandlerRenderer(func(s string) (string, error) {
		return "Rendered: " + s, nil
	}))

	require.NoError(t, h.Output(context.Background(), sampleView()))
	assert.True(t, strings.HasPrefix(out.String(), "Rendered: [2/4]"))
}

func TestTextHandler_SystemOutput(t *testing.T) {
	out := &bytes.Buffer{}
	h := NewTextHandler(out)
	require.NoError(t, h.SystemOutput(context.Background(), "complete: 4 steps"))
	assert.Equal(t, "[System] complete: 4 steps\n", out.String())
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatMarkdown, ParseFormat("markdown"))
	assert.Equal(t, FormatMarkdown, ParseFormat(" MD "))
	assert.Equal(t, FormatPlain, ParseFormat("plain"))
	assert.Equal(t, FormatPlain, ParseFormat("html"))
}
