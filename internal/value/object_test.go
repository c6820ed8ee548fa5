package value

import "testing"

func TestObjectFieldDefaults(t *testing.T) {
	o := NewObject("Lcom/example/Foo;")
	if got := o.GetField("missing"); !got.IsNull() {
		t.Errorf("GetField on unset field = %v, want null", got)
	}
	o.SetField("count", Int(3))
	if got := o.GetField("count").Int32(); got != 3 {
		t.Errorf("GetField(count) = %d, want 3", got)
	}
}

func TestNewStringText(t *testing.T) {
	o := NewString("hello")
	s, ok := o.Text()
	if !ok || s != "hello" {
		t.Errorf("Text() = (%q, %v), want (hello, true)", s, ok)
	}
	if o.ClassName != "Ljava/lang/String;" {
		t.Errorf("ClassName = %q", o.ClassName)
	}
}

func TestObjectTextAbsentForPlainObject(t *testing.T) {
	o := NewObject("Ljava/lang/Object;")
	if _, ok := o.Text(); ok {
		t.Errorf("expected no text backing for a plain object")
	}
}

func TestNilObjectMethodsAreSafe(t *testing.T) {
	var o *Object
	if got := o.GetField("x"); !got.IsNull() {
		t.Errorf("nil Object.GetField = %v, want null", got)
	}
	if got := o.String(); got != "null" {
		t.Errorf("nil Object.String() = %q, want null", got)
	}
}
