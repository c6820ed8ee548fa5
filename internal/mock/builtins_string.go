package mock

import (
	"strings"
	"unicode/utf16"

	"github.com/fatalsec/dalivm/internal/value"
)

func init() {
	Register(HookDef{Class: "Ljava/lang/StringBuilder;", Method: "<init>", Hook: sbInit})
	Register(HookDef{Class: "Ljava/lang/StringBuilder;", Method: "append", Hook: sbAppend})
	Register(HookDef{Class: "Ljava/lang/StringBuilder;", Method: "toString", Hook: sbToString})

	Register(HookDef{Class: "Ljava/lang/String;", Method: "<init>", Hook: strInit})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "length", Hook: strLength})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "charAt", Hook: strCharAt})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "toCharArray", Hook: strToCharArray})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "getBytes", Hook: strGetBytes})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "intern", Hook: strIntern})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "valueOf", Hook: strValueOf})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "equals", Hook: strEquals})
	Register(HookDef{Class: "Ljava/lang/String;", Method: "concat", Hook: strConcat})
}

// argText renders whatever a StringBuilder.append overload was handed the
// way java.lang.StringBuilder does: strings pass through, objects carrying
// an internal string use it, everything else falls back to its register
// rendering (matching Object.toString's default for anything not modeled).
func argText(v value.Value) string {
	if v.Kind == value.KindObject && v.Obj != nil {
		if s, ok := v.Obj.Text(); ok {
			return s
		}
		return v.Obj.String()
	}
	return v.String()
}

func sbInit(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 || args[0].Kind != value.KindObject || args[0].Obj == nil {
		return value.Null(), false
	}
	text := ""
	if len(args) > 1 {
		text = argText(args[1])
	}
	args[0].Obj.ClassName = "Ljava/lang/StringBuilder;"
	args[0].Obj.Internal = text
	return value.Null(), true
}

func sbAppend(args Args, cfg *Config) (value.Value, bool) {
	if len(args) < 2 || args[0].Kind != value.KindObject || args[0].Obj == nil {
		return value.Null(), false
	}
	recv := args[0].Obj
	cur, _ := recv.Text()
	recv.Internal = cur + argText(args[1])
	return args[0], true
}

func sbToString(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 || args[0].Kind != value.KindObject || args[0].Obj == nil {
		return value.Null(), false
	}
	s, _ := args[0].Obj.Text()
	return value.FromObject(value.NewString(s)), true
}

func strInit(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 || args[0].Kind != value.KindObject || args[0].Obj == nil {
		return value.Null(), false
	}
	text := ""
	if len(args) > 1 {
		text = argText(args[1])
	}
	args[0].Obj.ClassName = "Ljava/lang/String;"
	args[0].Obj.Internal = text
	return value.Null(), true
}

func receiverText(args Args) (string, bool) {
	if len(args) == 0 || args[0].Kind != value.KindObject || args[0].Obj == nil {
		return "", false
	}
	return args[0].Obj.Text()
}

func strLength(args Args, cfg *Config) (value.Value, bool) {
	s, ok := receiverText(args)
	if !ok {
		return value.Null(), false
	}
	return value.Int(int32(len(utf16.Encode([]rune(s))))), true
}

func strCharAt(args Args, cfg *Config) (value.Value, bool) {
	s, ok := receiverText(args)
	if !ok || len(args) < 2 {
		return value.Null(), false
	}
	units := utf16.Encode([]rune(s))
	idx := int(args[1].Int32())
	if idx < 0 || idx >= len(units) {
		return value.Int(0), false
	}
	return value.Int(int32(units[idx])), true
}

func strToCharArray(args Args, cfg *Config) (value.Value, bool) {
	s, ok := receiverText(args)
	if !ok {
		return value.Null(), false
	}
	units := utf16.Encode([]rune(s))
	arr := value.NewArray("[C", len(units))
	for i, u := range units {
		arr.Set(i, value.Int(int32(u)))
	}
	return value.FromArray(arr), true
}

// strGetBytes encodes as UTF-16LE, the decoding convention this interpreter
// standardizes on for byte-level string inspection (matching how obfuscated
// code typically XORs/encrypts string byte arrays on Android).
func strGetBytes(args Args, cfg *Config) (value.Value, bool) {
	s, ok := receiverText(args)
	if !ok {
		return value.Null(), false
	}
	units := utf16.Encode([]rune(s))
	arr := value.NewArray("[B", len(units)*2)
	for i, u := range units {
		arr.Set(i*2, value.Int(int32(byte(u))))
		arr.Set(i*2+1, value.Int(int32(byte(u>>8))))
	}
	return value.FromArray(arr), true
}

func strIntern(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 {
		return value.Null(), false
	}
	return args[0], true
}

func strValueOf(args Args, cfg *Config) (value.Value, bool) {
	if len(args) == 0 {
		return value.Null(), false
	}
	// valueOf is static: args has no receiver.
	return value.FromObject(value.NewString(argText(args[0]))), true
}

func strEquals(args Args, cfg *Config) (value.Value, bool) {
	a, ok := receiverText(args)
	if !ok || len(args) < 2 {
		return value.Null(), false
	}
	b := argText(args[1])
	if a == b {
		return value.Int(1), true
	}
	return value.Int(0), true
}

func strConcat(args Args, cfg *Config) (value.Value, bool) {
	a, ok := receiverText(args)
	if !ok || len(args) < 2 {
		return value.Null(), false
	}
	return value.FromObject(value.NewString(strings.Join([]string{a, argText(args[1])}, ""))), true
}
