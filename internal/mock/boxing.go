package mock

import (
	"math"

	"github.com/fatalsec/dalivm/internal/value"
)

func init() {
	Register(HookDef{Class: "Ljava/lang/Integer;", Method: "valueOf", Hook: integerValueOf})
	Register(HookDef{Class: "Ljava/lang/Integer;", Method: "intValue", Hook: integerIntValue})
	Register(HookDef{Class: "Ljava/lang/Integer;", Method: "parseInt", Hook: integerParseInt})
	Register(HookDef{Class: "Ljava/lang/Boolean;", Method: "valueOf", Hook: booleanValueOf})
	Register(HookDef{Class: "Ljava/lang/Boolean;", Method: "booleanValue", Hook: booleanBooleanValue})

	Register(HookDef{Class: "Ljava/lang/Math;", Method: "abs", Hook: mathAbs})
	Register(HookDef{Class: "Ljava/lang/Math;", Method: "max", Hook: mathMax})
	Register(HookDef{Class: "Ljava/lang/Math;", Method: "min", Hook: mathMin})

	Register(HookDef{Class: "Ljava/util/Arrays;", Method: "toString", Hook: arraysToString})
}

func boxedInt(v int32, className string) *value.Object {
	o := value.NewObject(className)
	o.Internal = v
	return o
}

func integerValueOf(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 {
		return value.Null(), false
	}
	return value.FromObject(boxedInt(args[0].Int32(), "Ljava/lang/Integer;")), true
}

func integerIntValue(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	if n, ok := o.Internal.(int32); ok {
		return value.Int(n), true
	}
	return value.Int(0), true
}

func integerParseInt(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 {
		return value.Null(), false
	}
	s := argText(args[0])
	var n int32
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		i = 1
	}
	for ; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return value.Int(0), false
		}
		n = n*10 + int32(s[i]-'0')
	}
	if neg {
		n = -n
	}
	return value.Int(n), true
}

func booleanValueOf(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 {
		return value.Null(), false
	}
	o := value.NewObject("Ljava/lang/Boolean;")
	o.Internal = args[0].IsTruthy()
	return value.FromObject(o), true
}

func booleanBooleanValue(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	if b, ok := o.Internal.(bool); ok && b {
		return value.Int(1), true
	}
	return value.Int(0), true
}

func mathAbs(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 {
		return value.Null(), false
	}
	switch args[0].Kind {
	case value.KindDouble:
		return value.Double(math.Abs(args[0].Double)), true
	case value.KindFloat:
		return value.Float(float32(math.Abs(float64(args[0].Float)))), true
	case value.KindLong:
		n := args[0].Long
		if n < 0 {
			n = -n
		}
		return value.Long(n), true
	default:
		n := args[0].Int32()
		if n < 0 {
			n = -n
		}
		return value.Int(n), true
	}
}

func mathMax(args Args, cfg *Config) (value.Value, bool) {
	if len(args) < 2 {
		return value.Null(), false
	}
	if args[0].Int64() >= args[1].Int64() {
		return args[0], true
	}
	return args[1], true
}

func mathMin(args Args, cfg *Config) (value.Value, bool) {
	if len(args) < 2 {
		return value.Null(), false
	}
	if args[0].Int64() <= args[1].Int64() {
		return args[0], true
	}
	return args[1], true
}

func arraysToString(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 || args[0].Kind != value.KindArray || args[0].Arr == nil {
		return value.FromObject(value.NewString("null")), true
	}
	s := "["
	for i := 0; i < args[0].Arr.Size; i++ {
		if i > 0 {
			s += ", "
		}
		v, _ := args[0].Arr.Get(i)
		s += v.String()
	}
	s += "]"
	return value.FromObject(value.NewString(s)), true
}
