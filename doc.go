/*
Package stepper generates step-by-step execution traces of small JavaScript
programs and plays them back like a video: play, pause, step, jump and change speed.

A scenario (if/else, switch, for loop, event loop, async timeline, equality,
class) is described by a kind and a parameter map. The generator turns it into an
immutable sequence of steps, each a snapshot of variables, console output and
lanes such as the call stack or the task queues. A playback controller walks the
sequence on a timer and the renderer turns the current step into a view.

# Concept

Generation is deterministic: the same scenario always yields the same steps, so a
frame reached by jumping is identical to the same frame reached by playing. The
controller is the only stateful piece and owns at most one pending timer.

	eng := stepper.New()
	ctrl := eng.Player(domain.ScenarioSpec{
		Kind:   domain.KindIfElse,
		Params: map[string]any{"value": 75},
	})
	defer ctrl.Close()

	ctrl.Play()
	view := eng.Render(ctrl, render.Options{})
	fmt.Println(render.Text(view))

Sessions that outlive a process are handled by pkg/session with the stores in
pkg/adapters. The HTTP, MCP and CLI front ends live in pkg/adapters and cmd/stepper.
*/
package stepper
