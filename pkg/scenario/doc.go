// Package scenario generates the step sequences played back by stepper.
//
// Each supported construct (if/else, switch, for loop, event loop, async timeline,
// equality comparison, class instantiation) is a concrete type implementing Scenario.
// Generate has one arm per type and is a pure function: the same scenario value always
// yields the same sequence. Anything it does not recognise yields a single fallback step.
//
// Decode converts the serializable domain.ScenarioSpec (HTTP bodies, YAML files, lesson
// front matter) into a typed Scenario. It never fails: malformed parameters fall back to
// the kind's default and are reported through the logger.
package scenario
