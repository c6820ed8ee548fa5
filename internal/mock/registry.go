// Package mock implements the framework-API layer: a closed catalogue of
// Android/Java SDK classes whose methods are emulated directly instead of
// falling through to (nonexistent) bytecode, plus a goja-backed slot for a
// user-supplied JavaScript hook table consulted before the framework
// catalogue.
//
// Hooks self-register via package-level init() into a shared registry,
// queried later by the dispatcher on a class+method key.
package mock

import (
	"sync"

	"github.com/fatalsec/dalivm/internal/value"
)

// Args is the resolved argument list an invoke handler receives. Args[0] is
// the receiver for instance methods; it is absent for static methods.
type Args []value.Value

// HookFunc emulates one framework method call. cfg carries the
// per-analysis-run mock configuration (package name, signature bytes, SDK
// level); it is never a package-global, so concurrent analysis runs over
// different targets never see each other's configuration. ok is false when
// this particular overload/arg shape isn't modeled, letting the dispatcher
// fall through to the next stage rather than returning a wrong answer.
type HookFunc func(args Args, cfg *Config) (value.Value, bool)

// HookDef is one registered framework method.
type HookDef struct {
	Class    string // e.g. "Ljava/lang/StringBuilder;"
	Method   string // e.g. "append"
	Hook     HookFunc
}

// Registry maps (class, method) to its emulated behavior. Method overloads
// that differ only by parameter type share one HookDef; the hook itself
// switches on argument Kind, matching how the catalogue is described
// behaviorally rather than by per-overload signature.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string]*HookDef
}

func key(class, method string) string { return class + "->" + method }

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string]*HookDef)}
}

// Register adds a hook definition, called from each builtins_*.go file's
// init().
func (r *Registry) Register(def HookDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[key(def.Class, def.Method)] = &def
}

// Lookup finds a registered hook for (class, method), reporting whether one
// exists.
func (r *Registry) Lookup(class, method string) (HookFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.hooks[key(class, method)]
	if !ok {
		return nil, false
	}
	return d.Hook, true
}

// DefaultRegistry is the process-wide framework catalogue; every
// builtins_*.go file registers into it from init().
var DefaultRegistry = NewRegistry()

// Register adds a hook to the default registry.
func Register(def HookDef) { DefaultRegistry.Register(def) }
