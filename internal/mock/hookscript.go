package mock

import (
	"fmt"
	"os"

	"github.com/dop251/goja"

	"github.com/fatalsec/dalivm/internal/value"
)

// Script is a user-supplied JavaScript hook table, consulted before the
// framework catalogue on every invoke. It exposes one global object,
// `hooks`, keyed "LClass;->methodName" to a JS function `(args) => result`;
// args is a plain array of JS-native values (numbers, strings, null, or the
// value's debug string for anything without a scalar representation).
type Script struct {
	rt    *goja.Runtime
	hooks *goja.Object
}

// LoadScript compiles and runs path once, capturing its top-level `hooks`
// object. A script with no `hooks` object is valid; it simply never
// matches.
func LoadScript(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mock: read hook script: %w", err)
	}
	rt := goja.New()
	if _, err := rt.RunString(string(src)); err != nil {
		return nil, fmt.Errorf("mock: run hook script: %w", err)
	}
	s := &Script{rt: rt}
	if v := rt.Get("hooks"); v != nil && !goja.IsUndefined(v) && !goja.IsNull(v) {
		if obj, ok := v.(*goja.Object); ok {
			s.hooks = obj
		}
	}
	return s, nil
}

// Invoke looks up "class->method" in the hook table and calls it with args
// converted to JS-native values, reporting false if no such hook exists or
// it threw.
func (s *Script) Invoke(class, method string, args Args) (result value.Value, ok bool) {
	if s == nil || s.hooks == nil {
		return value.Null(), false
	}
	fnVal := s.hooks.Get(class + "->" + method)
	if fnVal == nil || goja.IsUndefined(fnVal) {
		return value.Null(), false
	}
	fn, isFunc := goja.AssertFunction(fnVal)
	if !isFunc {
		return value.Null(), false
	}
	jsArgs := make([]goja.Value, len(args))
	for i, a := range args {
		jsArgs[i] = s.rt.ToValue(toJS(a))
	}
	defer func() {
		if r := recover(); r != nil {
			result, ok = value.Null(), false
		}
	}()
	ret, err := fn(goja.Undefined(), jsArgs...)
	if err != nil {
		return value.Null(), false
	}
	if goja.IsUndefined(ret) || goja.IsNull(ret) {
		return value.Null(), true
	}
	return fromJS(ret.Export()), true
}

// toJS converts a register value into a JS-native form a hook script can
// act on: numbers and strings pass through, null becomes JS null, and
// everything else becomes its debug string (a reasonable default for a scripting bridge, since the
// script only needs to read/compare values, never mutate heap objects).
func toJS(v value.Value) interface{} {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindInt:
		return v.Int
	case value.KindLong:
		return v.Long
	case value.KindFloat:
		return v.Float
	case value.KindDouble:
		return v.Double
	case value.KindObject:
		if v.Obj != nil {
			if s, ok := v.Obj.Text(); ok {
				return s
			}
		}
		return v.String()
	default:
		return v.String()
	}
}

// fromJS converts a script's return value back into a register value.
func fromJS(exported interface{}) value.Value {
	switch n := exported.(type) {
	case nil:
		return value.Null()
	case int64:
		return value.Long(n)
	case float64:
		if n == float64(int32(n)) {
			return value.Int(int32(n))
		}
		return value.Double(n)
	case string:
		return value.FromObject(value.NewString(n))
	case bool:
		if n {
			return value.Int(1)
		}
		return value.Int(0)
	default:
		return value.Null()
	}
}
