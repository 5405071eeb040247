package validator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepper/pkg/domain"
)

type staticCatalog struct {
	lessons []domain.Lesson
	err     error
}

func (c staticCatalog) List(context.Context) ([]domain.Lesson, error) { return c.lessons, c.err }

func (c staticCatalog) Get(_ context.Context, id string) (domain.Lesson, error) {
	for _, l := range c.lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Lesson{}, domain.ErrLessonNotFound
}

func TestValidateLessons(t *testing.T) {
	ctx := context.Background()

	// 1. Valid catalog
	valid := staticCatalog{lessons: []domain.Lesson{
		{ID: "passing", Title: "Passing score", Scenario: domain.ScenarioSpec{Kind: domain.KindIfElse, Params: map[string]any{"value": 75}}},
		{ID: "loop", Title: "Loop", Scenario: domain.ScenarioSpec{Kind: domain.KindForLoop}},
	}}
	n, err := ValidateLessons(ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// 2. Broken lessons are all reported
	broken := staticCatalog{lessons: []domain.Lesson{
		{ID: "while", Title: "While", Scenario: domain.ScenarioSpec{Kind: "while"}},
		{ID: "untitled", Scenario: domain.ScenarioSpec{Kind: domain.KindSequential}},
		{ID: "too-long", Title: "Too long", Scenario: domain.ScenarioSpec{Kind: domain.KindForLoop, Params: map[string]any{"count": 50, "step": 2}}},
	}}
	n, err = ValidateLessons(ctx, broken)
	require.Error(t, err)
	assert.Equal(t, 3, n)
	msg := err.Error()
	assert.Contains(t, msg, "found 4 errors")
	assert.Contains(t, msg, `while: unsupported scenario kind: "while"`)
	assert.Contains(t, msg, "untitled: missing title")
	assert.Contains(t, msg, `too-long: param "count"`)
	assert.Contains(t, msg, `too-long: param "step": unknown parameter`)
}

func TestValidateLessons_ListError(t *testing.T) {
	_, err := ValidateLessons(context.Background(), staticCatalog{err: assert.AnError})
	assert.ErrorIs(t, err, assert.AnError)
}
