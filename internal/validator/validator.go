package validator

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/scenario"
	"github.com/aretw0/stepper/pkg/schema"
)

// ValidateLessons checks every lesson of the catalog: its scenario kind must be
// supported and its params must match the kind. It returns nil and the number of
// lessons checked when everything is valid.
func ValidateLessons(ctx context.Context, catalog ports.LessonCatalog) (int, error) {
	lessons, err := catalog.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list lessons: %w", err)
	}

	var problems []string
	for _, lesson := range lessons {
		if strings.TrimSpace(lesson.Title) == "" {
			problems = append(problems, fmt.Sprintf("%s: missing title", lesson.ID))
		}

		err := scenario.Check(lesson.Scenario)
		if err == nil {
			continue
		}
		if errs := schema.ValidationErrors(err); len(errs) > 0 {
			for _, e := range errs {
				problems = append(problems, fmt.Sprintf("%s: %v", lesson.ID, e))
			}
			continue
		}
		problems = append(problems, fmt.Sprintf("%s: %v", lesson.ID, err))
	}

	if len(problems) > 0 {
		return len(lessons), fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return len(lessons), nil
}
