package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/stepper/pkg/adapters/memory"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/playback"
	"github.com/aretw0/stepper/pkg/scenario"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog []domain.Lesson

func (c stubCatalog) List(context.Context) ([]domain.Lesson, error) { return c, nil }

func (c stubCatalog) Get(_ context.Context, id string) (domain.Lesson, error) {
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func TestGenerateSteps(t *testing.T) {
	s := NewServer()
	res, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, ScenarioArgs{
		Kind:   "for-loop",
		Params: map[string]any{"count": 50},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.KindForLoop, res.Scenario.Kind)
	assert.Equal(t, scenario.MaxLoopCount, res.Scenario.Params["count"], "count is clamped")
	assert.Equal(t, scenario.Generate(scenario.ForLoop{Count: scenario.MaxLoopCount}), res.Steps)
}

func TestGenerateSteps_Unsupported(t *testing.T) {
	s := NewServer()
	res, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, ScenarioArgs{Kind: "regex"})
	require.NoError(t, err)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, domain.PhaseComplete, res.Steps[0].Snapshot.Phase)
}

func TestGenerateSteps_RejectsOversizedInput(t *testing.T) {
	t.Setenv("STEPPER_MAX_INPUT_SIZE", "4")
	s := NewServer()
	_, err := s.handleGenerate(context.Background(), mcp.CallToolRequest{}, ScenarioArgs{
		Kind:   "equality",
		Params: map[string]any{"left": "123456"},
	})
	assert.Error(t, err)
}

func TestRenderStep(t *testing.T) {
	s := NewServer()
	args := RenderArgs{
		ScenarioArgs: ScenarioArgs{Kind: "if-else", Params: map[string]any{"value": 40}},
		Index:        99,
		Hide:         "variables",
	}
	res, err := s.handleRender(context.Background(), mcp.CallToolRequest{}, args)
	require.NoError(t, err)

	steps := scenario.Generate(scenario.IfElse{Value: 40})
	assert.Equal(t, len(steps)-1, res.View.Frame.Index)
	assert.Equal(t, domain.StatusComplete, res.View.Controls.Status)
	assert.Empty(t, res.View.Frame.Variables)
	assert.Equal(t, []string{"Keep practicing!"}, res.View.Frame.Output)
	assert.Contains(t, res.Markdown, "### Step 6/6")

	args.Index = -3
	res, err = s.handleRender(context.Background(), mcp.CallToolRequest{}, args)
	require.NoError(t, err)
	assert.Equal(t, 0, res.View.Frame.Index)
	assert.Equal(t, domain.StatusIdle, res.View.Controls.Status)
}

func TestRenderStep_BindsArguments(t *testing.T) {
	s := NewServer()
	handler := mcp.NewStructuredToolHandler(s.handleRender)

	req := mcp.CallToolRequest{}
	req.Params.Name = "render_step"
	req.Params.Arguments = map[string]any{"kind": "switch", "params": map[string]any{"value": 9}, "index": 2.0}

	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)

	data, err := json.Marshal(res.StructuredContent)
	require.NoError(t, err)
	var out RenderResult
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 2, out.View.Frame.Index)
}

func TestSessionTools(t *testing.T) {
	sched := playback.NewManualScheduler()
	hub := session.NewHub(session.NewManager(memory.NewStore()), session.WithScheduler(sched))
	defer hub.Close()
	s := NewServer(WithHub(hub))
	ctx := context.Background()

	created, err := s.handleCreateSession(ctx, mcp.CallToolRequest{}, SessionArgs{
		ScenarioArgs: ScenarioArgs{Kind: "event-loop"},
		SessionID:    "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", created.SessionID)
	assert.Equal(t, 0, created.View.Frame.Index)

	res, err := s.handleControlSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "s1", Command: "jump", Index: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.View.Frame.Index)

	_, err = s.handleControlSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "s1", Command: "rewind"})
	assert.ErrorIs(t, err, domain.ErrUnknownCommand)

	res, err = s.handleGetSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "4/", res.View.Controls.Position[:2])

	_, err = s.handleGetSession(ctx, mcp.CallToolRequest{}, SessionArgs{SessionID: "missing"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestResources(t *testing.T) {
	s := NewServer(WithLessons(stubCatalog{{ID: "intro", Title: "Intro", Scenario: domain.ScenarioSpec{Kind: domain.KindSequential}}}))

	contents, err := s.readScenarios(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, ScenariosURI, text.URI)
	var kinds []scenario.Info
	require.NoError(t, json.Unmarshal([]byte(text.Text), &kinds))
	assert.Len(t, kinds, 8)

	contents, err = s.readLessons(context.Background(), mcp.ReadResourceRequest{})
	require.NoError(t, err)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"intro"`)
}
