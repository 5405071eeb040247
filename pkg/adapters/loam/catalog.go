package loam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
)

var _ ports.LessonCatalog = (*Catalog)(nil)

// Catalog adapts a Loam repository of markdown lessons to ports.LessonCatalog.
// Files without a kind in their front matter are not lessons and are skipped.
type Catalog struct {
	Repo   *loam.TypedRepository[LessonMetadata]
	Logger *slog.Logger

	// Docs is the untyped repository used by Save. Catalogs built with New are read-only.
	Docs core.Repository
}

// New creates a catalog over an existing typed repository.
func New(repo *loam.TypedRepository[LessonMetadata]) *Catalog {
	return &Catalog{
		Repo:   repo,
		Logger: logging.NewNop(),
	}
}

// Open initializes a Loam repository rooted at dir. Nothing is versioned.
func Open(dir string, opts ...loam.Option) (*Catalog, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lessons dir: %w", err)
	}
	opts = append([]loam.Option{loam.WithVersioning(false)}, opts...)
	repo, err := loam.Init(abs, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open lessons at %s: %w", abs, err)
	}
	return FromRepository(repo), nil
}

// FromRepository creates a writable catalog over a Loam repository.
func FromRepository(repo core.Repository) *Catalog {
	c := New(loam.NewTypedRepository[LessonMetadata](repo))
	c.Docs = repo
	return c
}

// Save writes a lesson as <id>.md with its scenario in the front matter and the
// notes as the body.
func (c *Catalog) Save(ctx context.Context, lesson domain.Lesson) error {
	if c.Docs == nil {
		return errors.New("lesson catalog is read-only")
	}
	id := trimExtension(strings.TrimSpace(lesson.ID))
	if id == "" {
		return errors.New("lesson id is required")
	}

	meta := core.Metadata{
		"id":    id,
		"title": lesson.Title,
		"kind":  string(lesson.Scenario.Kind),
	}
	if len(lesson.Scenario.Params) > 0 {
		meta["params"] = lesson.Scenario.Params
	}
	if err := c.Docs.Save(ctx, core.Document{
		ID:       id + ".md",
		Content:  lesson.Notes,
		Metadata: meta,
	}); err != nil {
		return fmt.Errorf("failed to save lesson %s: %w", id, err)
	}
	c.Logger.Debug("lesson saved", "lesson", id)
	return nil
}

// List returns every lesson ordered by ID.
func (c *Catalog) List(ctx context.Context) ([]domain.Lesson, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	lessons := make([]domain.Lesson, 0, len(docs))
	for _, doc := range docs {
		lesson, ok := toLesson(doc.ID, doc.Data, doc.Content)
		if !ok {
			c.Logger.Debug("skipping document without kind", "doc_id", doc.ID)
			continue
		}
		if existing, dup := seen[lesson.ID]; dup {
			return nil, fmt.Errorf("collision detected: lesson '%s' is defined in both '%s' and '%s'", lesson.ID, existing, doc.ID)
		}
		seen[lesson.ID] = doc.ID
		lessons = append(lessons, lesson)
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].ID < lessons[j].ID })
	return lessons, nil
}

// Get returns one lesson. The ID may be the front matter id or the file name
// without extension.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Lesson, error) {
	if doc, err := c.Repo.Get(ctx, id); err == nil {
		if lesson, ok := toLesson(doc.ID, doc.Data, doc.Content); ok && lesson.ID == id {
			return lesson, nil
		}
	}

	lessons, err := c.List(ctx)
	if err != nil {
		return domain.Lesson{}, err
	}
	for _, l := range lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Lesson{}, fmt.Errorf("%w: %s", domain.ErrLessonNotFound, id)
}

// Watch emits the ID of every lesson file that changes until ctx is done.
func (c *Catalog) Watch(ctx context.Context) (<-chan string, error) {
	events, err := c.Repo.Watch(ctx, "**/*.md")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// toLesson converts one document. ok is false when the front matter names no kind.
func toLesson(docID string, meta LessonMetadata, content string) (domain.Lesson, bool) {
	kind := strings.TrimSpace(meta.Kind)
	if kind == "" {
		return domain.Lesson{}, false
	}

	id := meta.ID
	if id == "" {
		id = docID
	}
	id = trimExtension(id)

	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = id
	}

	var params map[string]any
	if len(meta.Params) > 0 {
		params = normalizeMap(meta.Params)
	}

	return domain.Lesson{
		ID:       id,
		Title:    title,
		Scenario: domain.ScenarioSpec{Kind: domain.Kind(kind), Params: params},
		Notes:    strings.TrimSpace(content),
	}, true
}

// normalizeMap turns the map[interface{}]interface{} values some YAML decoders
// produce into map[string]any, recursively.
func normalizeMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, sub := range val {
			out[fmt.Sprintf("%v", k)] = normalizeValue(sub)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, sub := range val {
			out[i] = normalizeValue(sub)
		}
		return out
	}
	return v
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
