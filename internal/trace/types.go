// Package trace provides types for collecting and annotating analysis
// events as the driver walks call sites: slice statistics, mock/hook hits,
// and <clinit> runs.
package trace

import "time"

// Tag represents a trace event category.
// Tags are stored without # prefix; the prefix is added on rendering.
type Tag string

// Standard tags for analysis trace events.
const (
	Invoke   Tag = "invoke"
	Clinit   Tag = "clinit"
	Mock     Tag = "mock"
	HookJS   Tag = "hook-js"
	Slice    Tag = "slice"
	Fallback Tag = "fallback"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

// Has returns true if the tag collection contains the given tag.
func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Add adds a tag if not already present.
func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// Strings returns tags as strings with # prefix for display.
func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

// Raw returns tags as strings without # prefix.
func (t Tags) Raw() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = string(tag)
	}
	return out
}

// Primary returns the first tag or empty string if none.
func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Annotations holds key-value metadata for trace events.
type Annotations map[string]string

// Set adds or updates an annotation.
func (a Annotations) Set(k, v string) {
	a[k] = v
}

// Get retrieves an annotation value.
func (a Annotations) Get(k string) string {
	return a[k]
}

// Has returns true if the annotation exists.
func (a Annotations) Has(k string) bool {
	_, ok := a[k]
	return ok
}

// Event represents one analysis-trace event: a <clinit> run, a mock/hook
// hit, or a slice-size statistic, tied to the caller method and PC it
// happened at.
type Event struct {
	PC          int         // program counter (16-bit code units) the event occurred at
	Tags        Tags        // multiple hashtags, first is primary
	Name        string      // method or class name (e.g. "Landroid/content/Context;->getPackageName")
	Detail      string      // additional detail (e.g. "args=2", "slice=7pcs")
	Annotations Annotations // key-value metadata
	Timestamp   time.Time   // when the event occurred
}

// NewEvent creates a new trace event with the given parameters.
func NewEvent(pc int, category Tag, name, detail string) *Event {
	return &Event{
		PC:          pc,
		Tags:        Tags{category},
		Name:        name,
		Detail:      detail,
		Annotations: make(Annotations),
		Timestamp:   time.Now(),
	}
}

// AddTag adds a tag to the event.
func (e *Event) AddTag(tag Tag) {
	e.Tags.Add(tag)
}

// Annotate sets an annotation on the event.
func (e *Event) Annotate(k, v string) {
	if e.Annotations == nil {
		e.Annotations = make(Annotations)
	}
	e.Annotations.Set(k, v)
}

// PrimaryTag returns the primary (first) tag with # prefix.
func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Enricher enriches trace events based on category and name.
type Enricher func(e *Event)

// DefaultEnricher adds a couple of secondary tags the primary category
// alone doesn't convey: a mock hit served by the JS hook table rather than
// the built-in framework catalogue, and a fallback (no hook, no
// bytecode) result.
func DefaultEnricher(e *Event) {
	if len(e.Tags) == 0 {
		return
	}
	switch e.Tags[0] {
	case Mock:
		if e.Annotations.Get("source") == "hook-js" {
			e.AddTag(HookJS)
		}
	case Invoke:
		if e.Annotations.Get("resolved") == "false" {
			e.AddTag(Fallback)
		}
	}
}
