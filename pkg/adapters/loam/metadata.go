package loam

// LessonMetadata is the front matter of a lesson file.
//
//	---
//	id: strict-vs-loose
//	title: Strict vs loose equality
//	kind: equality
//	params:
//	  left: "0"
//	  right: '""'
//	---
//	Notes shown next to the player.
type LessonMetadata struct {
	ID     string         `json:"id" mapstructure:"id"`
	Title  string         `json:"title" mapstructure:"title"`
	Kind   string         `json:"kind" mapstructure:"kind"`
	Params map[string]any `json:"params" mapstructure:"params"`
}
