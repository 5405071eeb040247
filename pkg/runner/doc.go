/*
Package runner plays a step sequence headlessly and writes every frame to an IOHandler.

It is the bridge between a playback.Controller and a terminal or pipe: the
controller's own timer drives playback, and the runner turns each tick into a
rendered view.

# Key Components

  - Runner: plays a controller to completion, honouring context cancellation.
  - IOHandler: decouples how views are written (plain text, markdown, JSON lines).
  - TextHandler: plain or markdown frames, optionally piped through a ContentRenderer.
  - JSONHandler: one render.View per line.

# Usage

	ctrl := playback.New(steps, playback.WithInterval(200*time.Millisecond))
	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdout, runner.WithFormat(runner.FormatMarkdown))),
	)

	if err := r.Run(ctx, ctrl); err != nil {
		log.Fatal(err)
	}
*/
package runner
