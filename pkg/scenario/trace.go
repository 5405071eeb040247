package scenario

import "github.com/aretw0/stepper/pkg/domain"

// trace accumulates the simulated program state and records a snapshot of it
// every time emit is called.
type trace struct {
	steps  []domain.Step
	vars   map[string]string
	output []string
	lanes  []domain.Lane
}

func newTrace(lanes ...string) *trace {
	t := &trace{vars: map[string]string{}, output: []string{}}
	for _, name := range lanes {
		t.lanes = append(t.lanes, domain.Lane{Name: name, Items: []string{}})
	}
	return t
}

func (t *trace) set(name, value string) { t.vars[name] = value }

func (t *trace) unset(name string) { delete(t.vars, name) }

func (t *trace) print(line string) { t.output = append(t.output, line) }

func (t *trace) lane(name string) *domain.Lane {
	for i := range t.lanes {
		if t.lanes[i].Name == name {
			return &t.lanes[i]
		}
	}
	t.lanes = append(t.lanes, domain.Lane{Name: name, Items: []string{}})
	return &t.lanes[len(t.lanes)-1]
}

func (t *trace) push(lane, item string) {
	l := t.lane(lane)
	l.Items = append(l.Items, item)
}

// pop removes the last item of lane (stack order).
func (t *trace) pop(lane string) {
	l := t.lane(lane)
	if len(l.Items) > 0 {
		l.Items = l.Items[:len(l.Items)-1]
	}
}

// shift removes the first item of lane (queue order).
func (t *trace) shift(lane string) string {
	l := t.lane(lane)
	if len(l.Items) == 0 {
		return ""
	}
	head := l.Items[0]
	l.Items = l.Items[1:]
	return head
}

func (t *trace) remove(lane, item string) {
	l := t.lane(lane)
	for i, it := range l.Items {
		if it == item {
			l.Items = append(l.Items[:i:i], l.Items[i+1:]...)
			return
		}
	}
}

func (t *trace) emit(phase domain.Phase, highlight, description string) {
	snap := domain.Snapshot{
		Variables: t.vars,
		Output:    t.output,
		Phase:     phase,
		Lanes:     t.lanes,
	}
	t.steps = append(t.steps, domain.Step{
		Index:       len(t.steps),
		Description: description,
		Snapshot:    snap.Clone(),
		Highlight:   highlight,
	})
}

func (t *trace) done(description string) []domain.Step {
	t.emit(domain.PhaseComplete, "", description)
	return t.steps
}
