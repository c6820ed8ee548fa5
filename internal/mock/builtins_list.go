package mock

import "github.com/fatalsec/dalivm/internal/value"

func init() {
	for _, class := range []string{"Ljava/util/ArrayList;", "Ljava/util/List;", "Ljava/util/LinkedList;"} {
		Register(HookDef{Class: class, Method: "<init>", Hook: listInit})
		Register(HookDef{Class: class, Method: "add", Hook: listAdd})
		Register(HookDef{Class: class, Method: "get", Hook: listGet})
		Register(HookDef{Class: class, Method: "size", Hook: listSize})
		Register(HookDef{Class: class, Method: "iterator", Hook: listIterator})
	}
	Register(HookDef{Class: "Ljava/util/Iterator;", Method: "hasNext", Hook: iterHasNext})
	Register(HookDef{Class: "Ljava/util/Iterator;", Method: "next", Hook: iterNext})
}

func receiverObj(args Args) (*value.Object, bool) {
	if len(args) == 0 || args[0].Kind != value.KindObject || args[0].Obj == nil {
		return nil, false
	}
	return args[0].Obj, true
}

func listInit(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	o.ListData = nil
	return value.Null(), true
}

func listAdd(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok || len(args) < 2 {
		return value.Null(), false
	}
	o.ListData = append(o.ListData, args[1])
	return value.Int(1), true
}

func listGet(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok || len(args) < 2 {
		return value.Null(), false
	}
	idx := int(args[1].Int32())
	if idx < 0 || idx >= len(o.ListData) {
		return value.Null(), false
	}
	return o.ListData[idx], true
}

func listSize(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	return value.Int(int32(len(o.ListData))), true
}

// listIterator hands back the same object wearing an Iterator hat: no
// separate allocation is needed since this interpreter never aliases a list
// across two live iterators within one slice execution.
func listIterator(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	o.IterIndex = 0
	return args[0], true
}

func iterHasNext(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	if o.IterIndex < len(o.ListData) {
		return value.Int(1), true
	}
	return value.Int(0), true
}

func iterNext(args Args, cfg *Config) (value.Value, bool) {
	o, ok := receiverObj(args)
	if !ok {
		return value.Null(), false
	}
	if o.IterIndex >= len(o.ListData) {
		return value.Null(), false
	}
	v := o.ListData[o.IterIndex]
	o.IterIndex++
	return v, true
}
