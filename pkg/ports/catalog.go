package ports

import (
	"context"

	"github.com/aretw0/stepper/pkg/domain"
)

// LessonCatalog provides read access to lessons.
type LessonCatalog interface {
	// List returns every lesson, ordered by ID.
	List(ctx context.Context) ([]domain.Lesson, error)

	// Get returns one lesson or domain.ErrLessonNotFound.
	Get(ctx context.Context, id string) (domain.Lesson, error)
}
