package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/render"
	"github.com/aretw0/stepper/pkg/session"
)

// ListSessions prints the stored session IDs with their position.
func ListSessions(ctx context.Context, store ports.SessionStore, w io.Writer) error {
	ids, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No stored sessions found.")
		return nil
	}

	fmt.Fprintln(w, "Stored Sessions:")
	for _, id := range ids {
		sess, err := store.Load(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "- %s (unreadable: %v)\n", id, err)
			continue
		}
		c := render.RenderControls(sess.Playback)
		fmt.Fprintf(w, "- %s  %s  %s  %s\n", id, sess.Scenario.Kind, c.Position, c.Status)
	}
	return nil
}

// InspectSession prints one session as indented JSON.
func InspectSession(ctx context.Context, store ports.SessionStore, id string, w io.Writer) error {
	sess, err := store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSessions deletes every ID and reports each one. It keeps going after a
// failure and returns the joined errors.
func RemoveSessions(ctx context.Context, store ports.SessionStore, ids []string, w io.Writer) error {
	var errs []error
	for _, id := range ids {
		if err := store.Delete(ctx, id); err != nil {
			fmt.Fprintf(w, "Error removing '%s': %v\n", id, err)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "Removed session '%s'\n", id)
	}
	return errors.Join(errs...)
}

// ResumeSession plays a stored session from where it was left and saves the final
// position back, paused.
func ResumeSession(ctx context.Context, mgr *session.Manager, id string, opts PlayOptions, streams Streams) error {
	sess, err := mgr.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}

	opts.Spec = sess.Scenario
	opts.Resume = &sess.Playback
	if len(opts.Hide) == 0 {
		opts.Hide = sess.Hidden
	}
	if opts.Title == "" {
		opts.Title = id
	}

	pb, playErr := Play(ctx, opts, streams)

	pb.Playing = false
	if pb.Status == domain.StatusPlaying {
		pb.Status = domain.StatusPaused
	}
	sess.Playback = pb
	sess.UpdatedAt = time.Now().UTC()
	// The play context may already be cancelled by Ctrl-C; the save must still happen.
	if err := mgr.Save(context.WithoutCancel(ctx), id, sess); err != nil {
		return fmt.Errorf("failed to save session '%s': %w", id, err)
	}
	if !opts.JSON && !opts.Headless {
		logCompletion(streams.Out, render.RenderControls(pb).Position, playErr, nil)
	}
	return handleExecutionError(playErr)
}
