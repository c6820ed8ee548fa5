package value

import "fmt"

// Object is a heap object: an immutable class descriptor, a string-keyed
// field map, and an opaque "internal value" slot used for built-in
// representations (a string's character buffer, a builder's append buffer,
// a signature's raw bytes). MockType is set when the object stands in for a
// framework class via internal/mock.
type Object struct {
	ClassName string
	Fields    map[string]Value
	// Internal holds a built-in representation, e.g. a Go string for
	// Ljava/lang/String; and Ljava/lang/StringBuilder;, or []byte for a raw
	// signature. nil means "no built-in backing value".
	Internal any
	MockType string
	// IterIndex backs java.util.Iterator emulation over ListData.
	IterIndex int
	// ListData backs java.util.List/ArrayList emulation.
	ListData []Value
}

// NewObject allocates a heap object of the given class descriptor.
func NewObject(className string) *Object {
	return &Object{ClassName: className, Fields: make(map[string]Value)}
}

// NewString allocates a java.lang.String-backed object with the given
// contents as its internal value.
func NewString(s string) *Object {
	o := NewObject("Ljava/lang/String;")
	o.Internal = s
	return o
}

// NewStringBuilder allocates an empty java.lang.StringBuilder.
func NewStringBuilder() *Object {
	o := NewObject("Ljava/lang/StringBuilder;")
	o.Internal = ""
	return o
}

// Text returns the object's internal string backing, if any, and whether
// one was present.
func (o *Object) Text() (string, bool) {
	if o == nil {
		return "", false
	}
	s, ok := o.Internal.(string)
	return s, ok
}

// GetField reads a named field, defaulting to the null value.
func (o *Object) GetField(name string) Value {
	if o == nil || o.Fields == nil {
		return Null()
	}
	if v, ok := o.Fields[name]; ok {
		return v
	}
	return Null()
}

// SetField writes a named field, allocating the field map if needed.
func (o *Object) SetField(name string, v Value) {
	if o.Fields == nil {
		o.Fields = make(map[string]Value)
	}
	o.Fields[name] = v
}

func (o *Object) String() string {
	if o == nil {
		return "null"
	}
	if s, ok := o.Text(); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("<%s>", o.ClassName)
}
