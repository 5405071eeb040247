package scenario

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/stepper/pkg/domain"
)

// Generate returns the ordered step sequence for s.
// It is deterministic and has no side effects; unknown or nil scenarios yield Fallback.
func Generate(s Scenario) []domain.Step {
	switch sc := s.(type) {
	case Sequential:
		return genSequential()
	case IfElse:
		return genIfElse(sc)
	case Switch:
		return genSwitch(sc)
	case ForLoop:
		return genForLoop(sc)
	case EventLoop:
		return genEventLoop(sc)
	case AsyncTimeline:
		return genAsyncTimeline(sc)
	case Equality:
		return genEquality(sc)
	case Class:
		return genClass(sc)
	case Unknown:
		return Fallback(sc.Name)
	case nil:
		return Fallback("")
	default:
		return Fallback(string(s.Kind()))
	}
}

// Fallback is the single-step sequence used for anything the generator does not support.
func Fallback(name string) []domain.Step {
	return []domain.Step{{
		Index:       0,
		Description: fmt.Sprintf("Scenario %q is not supported", name),
		Snapshot: domain.Snapshot{
			Variables: map[string]string{},
			Output:    []string{},
			Phase:     domain.PhaseComplete,
		},
	}}
}

func genSequential() []domain.Step {
	t := newTrace()
	t.emit(domain.PhaseInit, "", "Program starts")
	t.set("a", "5")
	t.emit(domain.PhaseInit, "let a = 5", "Declare a and assign 5")
	t.set("b", "10")
	t.emit(domain.PhaseInit, "let b = 10", "Declare b and assign 10")
	t.set("sum", "15")
	t.emit(domain.PhaseCall, "let sum = a + b", "Evaluate a + b and store 15 in sum")
	t.print("15")
	t.emit(domain.PhaseCall, "console.log(sum)", "console.log prints 15")
	return t.done("Program finished")
}

func genIfElse(s IfElse) []domain.Step {
	cond := fmt.Sprintf("score >= %d", IfElseThreshold)
	passed := s.Value >= IfElseThreshold

	t := newTrace()
	t.emit(domain.PhaseInit, "", "Program starts")
	t.set("score", strconv.Itoa(s.Value))
	t.emit(domain.PhaseInit, fmt.Sprintf("let score = %d", s.Value), fmt.Sprintf("Declare score and assign %d", s.Value))
	t.set(cond, strconv.FormatBool(passed))
	t.emit(domain.PhaseCondition, "if ("+cond+")", fmt.Sprintf("Evaluate %s with score = %d: %t", cond, s.Value, passed))

	msg := "Keep practicing!"
	if passed {
		t.emit(domain.PhaseBranch, "if", "Condition is true, enter the if block")
		msg = "You passed!"
	} else {
		t.emit(domain.PhaseBranch, "else", "Condition is false, enter the else block")
	}
	t.print(msg)
	t.emit(domain.PhaseBranch, fmt.Sprintf("console.log(%q)", msg), fmt.Sprintf("console.log prints %q", msg))
	return t.done("Program finished")
}

var weekdays = map[int]string{1: "Monday", 2: "Tuesday", 3: "Wednesday"}

func genSwitch(s Switch) []domain.Step {
	t := newTrace()
	t.emit(domain.PhaseInit, "", "Program starts")
	t.set("day", strconv.Itoa(s.Value))
	t.emit(domain.PhaseInit, fmt.Sprintf("let day = %d", s.Value), fmt.Sprintf("Declare day and assign %d", s.Value))
	t.emit(domain.PhaseCondition, "switch (day)", "Evaluate the switch expression")

	result := "Other day"
	matched := false
	for c := 1; c <= len(weekdays); c++ {
		label := fmt.Sprintf("case %d", c)
		if s.Value == c {
			matched = true
			result = weekdays[c]
			t.set("result", strconv.Quote(result))
			t.emit(domain.PhaseBranch, label, fmt.Sprintf("day === %d, run %s", c, label))
			break
		}
		t.emit(domain.PhaseCondition, label, fmt.Sprintf("day === %d is false, skip %s", c, label))
	}
	if !matched {
		t.set("result", strconv.Quote(result))
		t.emit(domain.PhaseBranch, "default", "No case matched, run default")
	}
	t.print(result)
	t.emit(domain.PhaseBranch, "console.log(result)", fmt.Sprintf("console.log prints %q", result))
	if matched {
		t.emit(domain.PhaseBranch, "break", "break leaves the switch")
	}
	return t.done("Program finished")
}

func genForLoop(s ForLoop) []domain.Step {
	n := clampCount(s.Count)
	cond := fmt.Sprintf("i < %d", n)

	t := newTrace()
	t.emit(domain.PhaseInit, "", "Program starts")
	t.set("i", "0")
	t.emit(domain.PhaseInit, "let i = 0", "Initialize the loop counter i = 0")
	for i := 0; i < n; i++ {
		t.set(cond, "true")
		t.emit(domain.PhaseCondition, cond, fmt.Sprintf("Check %s with i = %d: true", cond, i))
		t.print(strconv.Itoa(i))
		t.emit(domain.PhaseLoop, "console.log(i)", fmt.Sprintf("Loop body prints %d", i))
		t.set("i", strconv.Itoa(i+1))
		t.emit(domain.PhaseLoop, "i++", fmt.Sprintf("Increment i to %d", i+1))
	}
	t.set(cond, "false")
	t.emit(domain.PhaseCondition, cond, fmt.Sprintf("Check %s with i = %d: false, exit the loop", cond, n))
	return t.done(fmt.Sprintf("Loop finished after %d iterations", n))
}

func clampCount(n int) int {
	if n < 0 {
		return 0
	}
	if n > MaxLoopCount {
		return MaxLoopCount
	}
	return n
}

// Lane names shared by the event loop trace.
const (
	LaneCallStack  = "Call Stack"
	LaneWebAPIs    = "Web APIs"
	LaneMicrotasks = "Microtasks"
	LaneMacrotasks = "Macrotasks"
)

func genEventLoop(s EventLoop) []domain.Step {
	if s.Demo == DemoNested {
		return genEventLoopNested()
	}
	return genEventLoopBasic()
}

func newEventLoopTrace() *trace {
	return newTrace(LaneCallStack, LaneWebAPIs, LaneMicrotasks, LaneMacrotasks)
}

// logCall pushes a console.log frame, prints and pops it again.
func logCall(t *trace, phase domain.Phase, msg string) {
	frame := fmt.Sprintf("console.log(%q)", msg)
	t.push(LaneCallStack, frame)
	t.print(msg)
	t.emit(phase, frame, fmt.Sprintf("console.log prints %q", msg))
	t.pop(LaneCallStack)
}

func genEventLoopBasic() []domain.Step {
	t := newEventLoopTrace()
	t.push(LaneCallStack, "main()")
	t.emit(domain.PhaseInit, "main()", "The script starts running on the call stack")

	logCall(t, domain.PhaseCall, "Start")

	t.push(LaneWebAPIs, "setTimeout(0)")
	t.emit(domain.PhaseCall, "setTimeout(cb, 0)", "setTimeout hands its timer to the Web APIs")
	t.remove(LaneWebAPIs, "setTimeout(0)")
	t.push(LaneMacrotasks, "timeout callback")
	t.emit(domain.PhaseQueue, "setTimeout(cb, 0)", "The 0ms timer expires and its callback joins the macrotask queue")

	t.push(LaneMicrotasks, "then callback")
	t.emit(domain.PhaseQueue, "Promise.resolve().then(cb)", "The resolved promise queues its then callback as a microtask")

	logCall(t, domain.PhaseCall, "End")

	t.pop(LaneCallStack)
	t.emit(domain.PhaseCall, "", "The script finishes and the call stack is empty")

	t.push(LaneCallStack, t.shift(LaneMicrotasks))
	t.emit(domain.PhaseQueue, "then callback", "The event loop drains microtasks first")
	logCall(t, domain.PhaseQueue, "Promise")
	t.pop(LaneCallStack)

	t.push(LaneCallStack, t.shift(LaneMacrotasks))
	t.emit(domain.PhaseQueue, "timeout callback", "Microtasks are empty, the next macrotask runs")
	logCall(t, domain.PhaseQueue, "Timeout")
	t.pop(LaneCallStack)

	return t.done("All queues are empty")
}

func genEventLoopNested() []domain.Step {
	t := newEventLoopTrace()
	t.push(LaneCallStack, "main()")
	t.emit(domain.PhaseInit, "main()", "The script starts running on the call stack")

	logCall(t, domain.PhaseCall, "A")

	t.push(LaneMacrotasks, "timeout callback 1")
	t.emit(domain.PhaseQueue, "setTimeout(cb1, 0)", "The first timer expires and its callback joins the macrotask queue")

	t.push(LaneMicrotasks, "then callback 1")
	t.emit(domain.PhaseQueue, "Promise.resolve().then(cb1)", "A then callback is queued as a microtask")

	logCall(t, domain.PhaseCall, "F")

	t.pop(LaneCallStack)
	t.emit(domain.PhaseCall, "", "The script finishes and the call stack is empty")

	t.push(LaneCallStack, t.shift(LaneMicrotasks))
	t.emit(domain.PhaseQueue, "then callback 1", "The event loop drains microtasks first")
	logCall(t, domain.PhaseQueue, "D")
	t.push(LaneMacrotasks, "timeout callback 2")
	t.emit(domain.PhaseQueue, "setTimeout(cb2, 0)", "The microtask schedules a second timer, queued behind the first")
	t.pop(LaneCallStack)

	t.push(LaneCallStack, t.shift(LaneMacrotasks))
	t.emit(domain.PhaseQueue, "timeout callback 1", "The first macrotask runs")
	logCall(t, domain.PhaseQueue, "B")
	t.push(LaneMicrotasks, "then callback 2")
	t.emit(domain.PhaseQueue, "Promise.resolve().then(cb2)", "The macrotask queues a microtask")
	t.pop(LaneCallStack)

	t.push(LaneCallStack, t.shift(LaneMicrotasks))
	t.emit(domain.PhaseQueue, "then callback 2", "Microtasks run before the next macrotask")
	logCall(t, domain.PhaseQueue, "C")
	t.pop(LaneCallStack)

	t.push(LaneCallStack, t.shift(LaneMacrotasks))
	t.emit(domain.PhaseQueue, "timeout callback 2", "The second macrotask runs")
	logCall(t, domain.PhaseQueue, "E")
	t.pop(LaneCallStack)

	return t.done("All queues are empty")
}

// Simulated request durations of the async timeline.
const (
	fetchUserMs  = 500
	fetchPostsMs = 1000
)

func ms(v int) string { return strconv.Itoa(v) + "ms" }

func genAsyncTimeline(s AsyncTimeline) []domain.Step {
	if s.Mode == ModeParallel {
		return genAsyncParallel()
	}
	return genAsyncSequential()
}

func genAsyncSequential() []domain.Step {
	t := newTrace("fetchUser", "fetchPosts")
	t.set("elapsed", ms(0))
	t.emit(domain.PhaseInit, "", "Two independent requests are awaited one after another")

	t.push("fetchUser", "start "+ms(0))
	t.emit(domain.PhaseCall, "await fetchUser()", "fetchUser starts and the function suspends")
	t.push("fetchUser", "done "+ms(fetchUserMs))
	t.set("elapsed", ms(fetchUserMs))
	t.set("user", `"loaded"`)
	t.emit(domain.PhaseQueue, "await fetchUser()", fmt.Sprintf("fetchUser resolves after %s", ms(fetchUserMs)))

	t.push("fetchPosts", "start "+ms(fetchUserMs))
	t.emit(domain.PhaseCall, "await fetchPosts()", "fetchPosts only starts once fetchUser is done")
	end := fetchUserMs + fetchPostsMs
	t.push("fetchPosts", "done "+ms(end))
	t.set("elapsed", ms(end))
	t.set("posts", `"loaded"`)
	t.emit(domain.PhaseQueue, "await fetchPosts()", fmt.Sprintf("fetchPosts resolves after another %s", ms(fetchPostsMs)))

	t.print("Total: " + ms(end))
	t.emit(domain.PhaseCall, "console.log(total)", "Durations add up when requests are awaited in sequence")
	return t.done(fmt.Sprintf("Finished in %s", ms(end)))
}

func genAsyncParallel() []domain.Step {
	t := newTrace("fetchUser", "fetchPosts")
	t.set("elapsed", ms(0))
	t.emit(domain.PhaseInit, "", "Two independent requests are started together with Promise.all")

	t.push("fetchUser", "start "+ms(0))
	t.push("fetchPosts", "start "+ms(0))
	t.emit(domain.PhaseCall, "Promise.all([fetchUser(), fetchPosts()])", "Both requests start at 0ms")

	t.push("fetchUser", "done "+ms(fetchUserMs))
	t.set("elapsed", ms(fetchUserMs))
	t.set("user", `"loaded"`)
	t.emit(domain.PhaseQueue, "fetchUser()", fmt.Sprintf("fetchUser resolves after %s, Promise.all keeps waiting", ms(fetchUserMs)))

	end := fetchPostsMs
	t.push("fetchPosts", "done "+ms(end))
	t.set("elapsed", ms(end))
	t.set("posts", `"loaded"`)
	t.emit(domain.PhaseQueue, "fetchPosts()", fmt.Sprintf("fetchPosts resolves after %s and Promise.all settles", ms(end)))

	t.print("Total: " + ms(end))
	t.emit(domain.PhaseCall, "console.log(total)", "The total is the slowest request, not the sum")
	return t.done(fmt.Sprintf("Finished in %s", ms(end)))
}

func genClass(s Class) []domain.Step {
	name := s.Name
	if name == "" {
		name = "Anonymous"
	}
	method := s.Method
	if method == "" {
		method = "describe"
	}
	first, size := utf8.DecodeRuneInString(name)
	instance := string(unicode.ToLower(first)) + name[size:]

	t := newTrace(LaneCallStack)
	t.emit(domain.PhaseInit, "class "+name, fmt.Sprintf("Define class %s with a constructor and %s()", name, method))

	args := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		args[i] = strconv.Quote(p.Value)
	}
	call := fmt.Sprintf("new %s(%s)", name, strings.Join(args, ", "))
	t.push(LaneCallStack, "constructor")
	t.set(instance, name+" {}")
	t.emit(domain.PhaseCall, call, fmt.Sprintf("new creates an empty %s object and calls the constructor", name))

	for _, p := range s.Properties {
		t.set(instance+"."+p.Name, strconv.Quote(p.Value))
		t.emit(domain.PhaseCall, fmt.Sprintf("this.%s = %s", p.Name, p.Name), fmt.Sprintf("The constructor assigns this.%s = %q", p.Name, p.Value))
	}
	t.pop(LaneCallStack)
	t.emit(domain.PhaseCall, "const "+instance+" = "+call, fmt.Sprintf("The constructor returns and %s references the new instance", instance))

	t.push(LaneCallStack, method+"()")
	t.emit(domain.PhaseCall, fmt.Sprintf("%s.%s()", instance, method), fmt.Sprintf("Call %s() with this bound to %s", method, instance))
	msg := classMessage(name, method, s.Properties)
	t.print(msg)
	t.emit(domain.PhaseCall, "console.log", fmt.Sprintf("%s() prints %q", method, msg))
	t.pop(LaneCallStack)
	return t.done("Program finished")
}

// classMessage is what the called method prints: "<name> says <sound>" when
// the instance has both properties, otherwise a generic description.
func classMessage(class, method string, props []Property) string {
	var who, sound string
	for _, p := range props {
		switch p.Name {
		case "name":
			who = p.Value
		case "sound":
			sound = p.Value
		}
	}
	if who != "" && sound != "" {
		return who + " says " + sound
	}
	if who == "" {
		who = "A " + class
	}
	return fmt.Sprintf("%s ran %s()", who, method)
}
