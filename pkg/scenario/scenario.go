package scenario

import "github.com/aretw0/stepper/pkg/domain"

// Scenario is the closed set of constructs the generator knows how to trace.
type Scenario interface {
	Kind() domain.Kind
}

// IfElseThreshold is the passing score of the if/else demo.
const IfElseThreshold = 60

// MaxLoopCount bounds ForLoop.Count so sequences stay short enough to teach with.
const MaxLoopCount = 10

// Event loop demos.
const (
	DemoBasic  = "basic"
	DemoNested = "nested"
)

// Async timeline modes.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// Sequential traces three statements executed top to bottom.
type Sequential struct{}

// IfElse compares Value against IfElseThreshold.
type IfElse struct {
	Value int `mapstructure:"value" json:"value"`
}

// Switch matches Value against the cases 1..3.
type Switch struct {
	Value int `mapstructure:"value" json:"value"`
}

// ForLoop logs i for i in [0, Count).
type ForLoop struct {
	Count int `mapstructure:"count" json:"count"`
}

// EventLoop replays the ordering of sync code, microtasks and macrotasks.
type EventLoop struct {
	Demo string `mapstructure:"demo" json:"demo"`
}

// AsyncTimeline contrasts awaiting two requests one after another with Promise.all.
type AsyncTimeline struct {
	Mode string `mapstructure:"mode" json:"mode"`
}

// Equality compares two JavaScript literals with === and ==.
type Equality struct {
	Left  string `mapstructure:"left" json:"left"`
	Right string `mapstructure:"right" json:"right"`
}

// Property is one constructor-assigned field of a Class.
type Property struct {
	Name  string `mapstructure:"name" json:"name"`
	Value string `mapstructure:"value" json:"value"`
}

// Class defines a class, instantiates it and calls one method.
type Class struct {
	Name       string     `mapstructure:"name" json:"name"`
	Properties []Property `mapstructure:"properties" json:"properties"`
	Method     string     `mapstructure:"method" json:"method"`
}

// Unknown carries a kind the generator does not support.
type Unknown struct {
	Name string
}

func (Sequential) Kind() domain.Kind    { return domain.KindSequential }
func (IfElse) Kind() domain.Kind        { return domain.KindIfElse }
func (Switch) Kind() domain.Kind        { return domain.KindSwitch }
func (ForLoop) Kind() domain.Kind       { return domain.KindForLoop }
func (EventLoop) Kind() domain.Kind     { return domain.KindEventLoop }
func (AsyncTimeline) Kind() domain.Kind { return domain.KindAsyncTimeline }
func (Equality) Kind() domain.Kind      { return domain.KindEquality }
func (Class) Kind() domain.Kind         { return domain.KindClass }
func (u Unknown) Kind() domain.Kind     { return domain.Kind(u.Name) }

// Default returns the documented default scenario for kind.
func Default(kind domain.Kind) Scenario {
	switch kind {
	case domain.KindSequential:
		return Sequential{}
	case domain.KindIfElse:
		return IfElse{Value: 75}
	case domain.KindSwitch:
		return Switch{Value: 3}
	case domain.KindForLoop:
		return ForLoop{Count: 3}
	case domain.KindEventLoop:
		return EventLoop{Demo: DemoBasic}
	case domain.KindAsyncTimeline:
		return AsyncTimeline{Mode: ModeSequential}
	case domain.KindEquality:
		return Equality{Left: "0", Right: `""`}
	case domain.KindClass:
		return Class{
			Name: "Dog",
			Properties: []Property{
				{Name: "name", Value: "Rex"},
				{Name: "sound", Value: "Woof"},
			},
			Method: "speak",
		}
	default:
		return Unknown{Name: string(kind)}
	}
}

// Info describes a supported kind for catalogs (CLI, HTTP, MCP).
type Info struct {
	Kind        domain.Kind       `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Defaults    map[string]any    `json:"defaults,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
}

var catalog = []struct {
	kind  domain.Kind
	title string
	desc  string
}{
	{domain.KindSequential, "Sequential execution", "Statements run top to bottom, one at a time."},
	{domain.KindIfElse, "If / else", "A score is compared against a threshold and one branch runs."},
	{domain.KindSwitch, "Switch", "A day number is matched against cases 1..3 with a default."},
	{domain.KindForLoop, "For loop", "A counter is checked, the body runs, the counter increments."},
	{domain.KindEventLoop, "Event loop", "Synchronous code, microtasks and macrotasks run in their real order."},
	{domain.KindAsyncTimeline, "Async timeline", "Awaiting requests one by one versus Promise.all."},
	{domain.KindEquality, "Equality", "Strict (===) and loose (==) comparison with type coercion."},
	{domain.KindClass, "Class", "A class is defined, instantiated and one of its methods called."},
}

// Kinds lists every supported kind with its defaults, in a stable order.
func Kinds() []Info {
	out := make([]Info, 0, len(catalog))
	for _, c := range catalog {
		out = append(out, Info{
			Kind:        c.kind,
			Title:       c.title,
			Description: c.desc,
			Defaults:    Encode(Default(c.kind)).Params,
			Params:      paramSchemas[c.kind].Describe(),
		})
	}
	return out
}

// Supported reports whether the generator has a dedicated trace for kind.
func Supported(kind domain.Kind) bool {
	for _, c := range catalog {
		if c.kind == kind {
			return true
		}
	}
	return false
}
