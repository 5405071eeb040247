package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/stepper/pkg/domain"
)

// LessonSource is the part of the lesson catalog the watcher needs.
type LessonSource interface {
	Get(ctx context.Context, id string) (domain.Lesson, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// WatchLesson calls show for the lesson and again every time its file changes,
// until ctx is done. A lesson that fails to load is reported and retried on the
// next change so an edit in progress does not stop the watcher.
func WatchLesson(ctx context.Context, src LessonSource, id string, show func(domain.Lesson) error, w io.Writer, logger *slog.Logger) error {
	events, err := src.Watch(ctx)
	if err != nil {
		return err
	}
	logger.Info("Starting Watcher", "lesson", id)

	for {
		lesson, err := src.Get(ctx, id)
		switch {
		case err == nil:
			if err := show(lesson); err != nil {
				return err
			}
		case errors.Is(err, domain.ErrLessonNotFound):
			printSystemMessage(w, "Lesson '%s' not found, waiting for changes.", id)
		default:
			logger.Error("Lesson reload failed", "lesson", id, "err", err)
			printSystemMessage(w, "Failed to load '%s': %v", id, err)
		}

		if !waitForChange(ctx, events, id, logger) {
			return nil
		}
		printSystemMessage(w, "Change detected in '%s'.", id)
	}
}

// waitForChange blocks until id changes. It reports false when ctx is done or
// the watcher stops.
func waitForChange(ctx context.Context, events <-chan string, id string, logger *slog.Logger) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case changed, ok := <-events:
			if !ok {
				return false
			}
			logger.Debug("Change detected", "doc", changed)
			if changed == id {
				return true
			}
		}
	}
}

// ShowLesson writes a lesson's title, notes and full trace.
func ShowLesson(lesson domain.Lesson, trace func(domain.ScenarioSpec) error, w io.Writer) error {
	fmt.Fprintf(w, "# %s\n\n", lesson.Title)
	if lesson.Notes != "" {
		fmt.Fprintf(w, "%s\n\n", lesson.Notes)
	}
	return trace(lesson.Scenario)
}
