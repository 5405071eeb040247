package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/domain"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "Empty", pairs: nil, want: nil},
		{name: "Number", pairs: []string{"value=75"}, want: map[string]any{"value": 75}},
		{name: "String", pairs: []string{"mode=parallel"}, want: map[string]any{"mode": "parallel"}},
		{name: "Quoted Literal", pairs: []string{`right='""'`}, want: map[string]any{"right": `""`}},
		{name: "Empty Value", pairs: []string{"left="}, want: map[string]any{"left": ""}},
		{name: "List", pairs: []string{"xs=[1, 2]"}, want: map[string]any{"xs": []any{1, 2}}},
		{name: "Missing Equals", pairs: []string{"value"}, wantErr: true},
		{name: "Missing Key", pairs: []string{"=1"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveSpec(t *testing.T) {
	spec, err := ResolveSpec("", []string{" switch "}, []string{"value=9"})
	require.NoError(t, err)
	assert.Equal(t, domain.ScenarioSpec{Kind: domain.KindSwitch, Params: map[string]any{"value": 9}}, spec)

	_, err = ResolveSpec("", nil, nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: for-loop\nparams:\n  count: 2\n"), 0644))
	spec, err = ResolveSpec(path, nil, []string{"count=4"})
	require.NoError(t, err)
	assert.Equal(t, domain.KindForLoop, spec.Kind)
	assert.Equal(t, 4, spec.Params["count"], "flags override the file")

	_, err = ResolveSpec(filepath.Join(t.TempDir(), "missing.yaml"), nil, nil)
	assert.ErrorContains(t, err, "failed to read scenario")
}
