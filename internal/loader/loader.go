// Package loader implements the class loader: lazy per-class <clinit>
// execution, cross-method invocation by constructing a child interpreter,
// and the invoke dispatch pipeline (user hook, framework mock, built-in
// emulation, bytecode, null) that backs every invoke-family opcode.
package loader

import (
	"strings"

	"github.com/fatalsec/dalivm/internal/dex"
	"github.com/fatalsec/dalivm/internal/disasm"
	"github.com/fatalsec/dalivm/internal/mock"
	"github.com/fatalsec/dalivm/internal/statics"
	"github.com/fatalsec/dalivm/internal/value"
	"github.com/fatalsec/dalivm/internal/vm"
)

// sdkPrefixes lists descriptor prefixes for classes that ship no bytecode
// in the archive (framework/SDK/third-party library classes); their static
// fields are never seeded from a (nonexistent) class definition.
var sdkPrefixes = []string{
	"Ljava/", "Ljavax/", "Landroid/", "Ldalvik/", "Lsun/",
	"Lorg/apache/", "Lorg/xml/", "Lorg/w3c/", "Lorg/json/", "Ljunit/",
}

func isSDKClass(class string) bool {
	for _, p := range sdkPrefixes {
		if strings.HasPrefix(class, p) {
			return true
		}
	}
	return false
}

// frameworkStaticFields seeds a handful of well-known SDK static fields a
// target commonly reads directly (version gates, build flags) the way the
// device would have them set, rather than leaving them at a zero default.
// EnsureInitialized replaces SDK_INT with the mock config's SDKInt.
var frameworkStaticFields = map[string]map[string]value.Value{
	"Landroid/os/Build$VERSION;": {
		"SDK_INT": value.Int(33),
	},
}

// Loader is the class-loading and dispatch context for one analysis run. It
// is a plain value, constructed per run and passed explicitly — never a
// package singleton — so concurrent analyses over different targets never
// share state.
type Loader struct {
	Program *dex.Program
	Statics *statics.Store
	Mocks   *mock.Registry
	Config  *mock.Config
	Hooks   *mock.Script // user-supplied hook script, nil if none configured

	// StepCap bounds a normal method execution; ClinitStepCap bounds
	// <clinit> execution. Both are configuration, not hard-coded constants.
	StepCap       int
	ClinitStepCap int

	// Silent is passed to vm.Options.Silent for nested runs (<clinit>
	// always runs silent regardless of this field). The interpreter emits
	// no per-step trace either way.
	Silent bool

	// traces caches each method's disassembled, pool-resolved trace map on
	// first request — the canonical representation the slicer and the
	// driver's call-site scan both consume, built at most once per method
	// per run regardless of how many call sites reference it.
	traces map[*dex.Method]map[int]disasm.Entry
}

// New returns a loader ready to drive one analysis run.
func New(prog *dex.Program, store *statics.Store) *Loader {
	return &Loader{
		Program:       prog,
		Statics:       store,
		Mocks:         mock.DefaultRegistry,
		Config:        mock.DefaultConfig(),
		StepCap:       5000,
		ClinitStepCap: 500,
	}
}

// EnsureInitialized implements vm.ClassHost: runs class's <clinit> if not
// already attempted this run. Idempotent per class per run; nested
// <clinit> triggers cannot recurse infinitely because the attempted bit is
// set before bytecode runs.
func (l *Loader) EnsureInitialized(class string) {
	if l.Statics.IsInitialized(class) {
		return
	}
	l.Statics.MarkInitialized(class)

	if seed, ok := frameworkStaticFields[class]; ok {
		for field, v := range seed {
			if class == "Landroid/os/Build$VERSION;" && field == "SDK_INT" && l.Config != nil {
				v = value.Int(l.Config.SDKInt)
			}
			l.Statics.Set(class, field, v)
		}
	}
	if isSDKClass(class) || !l.Program.HasClass(class) {
		return
	}

	fields, values := l.Program.StaticFieldInitializers(class)
	for i, f := range fields {
		if i < len(values) {
			l.Statics.Set(class, f.Name, values[i])
		}
	}

	clinit := l.findDeclaredMethod(class, "<clinit>")
	if clinit == nil {
		return
	}
	l.runSilent(clinit, nil, l.ClinitStepCap)
}

// IsInstance implements vm.ClassHost: walks actual's declared superclass
// chain looking for wanted. Any SDK class reachable up the chain (where
// this program has no declaration to keep walking) matches only by exact
// descriptor equality, short of modeling the full platform type lattice.
func (l *Loader) IsInstance(actual, wanted string) bool {
	if actual == "" {
		return false
	}
	if actual == wanted || wanted == "Ljava/lang/Object;" {
		return true
	}
	seen := map[string]bool{}
	class := actual
	for class != "" && !seen[class] {
		seen[class] = true
		if class == wanted {
			return true
		}
		class = l.Program.Superclass(class)
	}
	return false
}

// findDeclaredMethod finds a method in class by name only, the fallback
// find_method uses when no parameter signature is available to disambiguate
// overloads (class initializers and single-overload lookups never need it).
func (l *Loader) findDeclaredMethod(class, name string) *dex.Method {
	for _, m := range l.Program.MethodsOf(class) {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// FindMethodWithSignature finds a method by class, name, and declared
// parameter descriptors, disambiguating overloads.
func (l *Loader) FindMethodWithSignature(class, name string, paramDescs []string) *dex.Method {
	for _, m := range l.Program.MethodsOf(class) {
		if m.Name != name || len(m.ParamDescs) != len(paramDescs) {
			continue
		}
		match := true
		for i := range paramDescs {
			if m.ParamDescs[i] != paramDescs[i] {
				match = false
				break
			}
		}
		if match {
			return m
		}
	}
	return l.findDeclaredMethod(class, name)
}

// FrameOptions returns the vm.Options a fresh interpreter over m's bytecode
// needs: the same Invoker/Resolver/Classes/Statics wiring Execute uses,
// silenced, for the slicer to drive instruction-by-instruction rather than
// through Run's linear loop.
func (l *Loader) FrameOptions(m *dex.Method) vm.Options {
	return vm.Options{
		Silent:    true,
		StepLimit: l.StepCap,
		Invoker:   l,
		Resolver:  l.ResolverFor(m),
		Classes:   l,
		Statics:   l.Statics,
	}
}

// Execute implements the class loader's execute(method, arguments): builds
// a child interpreter sized to the method's register count, places args in
// the tail registers (receiver first for non-static methods), runs to
// completion or the configured step cap, and returns the last-result value.
func (l *Loader) Execute(m *dex.Method, args []value.Value) (value.Value, bool) {
	return l.run(m, args, l.StepCap, l.Silent)
}

func (l *Loader) runSilent(m *dex.Method, args []value.Value, stepCap int) (value.Value, bool) {
	return l.run(m, args, stepCap, true)
}

func (l *Loader) run(m *dex.Method, args []value.Value, stepCap int, silent bool) (value.Value, bool) {
	code, regSize, ok := m.Bytecode()
	if !ok {
		return value.Null(), false
	}
	container := l.Program.Containers[m.Container]
	opts := vm.Options{
		Silent:    silent,
		StepLimit: stepCap,
		Invoker:   l,
		Resolver:  &containerResolver{c: container},
		Classes:   l,
		Statics:   l.Statics,
	}
	interp := vm.New(code, regSize, opts)

	ins := m.InsSize()
	base := regSize - ins
	for i, a := range args {
		if i >= ins {
			break
		}
		interp.Registers().Set(base+i, a)
	}

	ret, has, err := interp.Run()
	if err != nil {
		return value.Null(), false
	}
	return ret, has
}

// Invoke implements vm.Invoker, wiring the redesigned dispatch order: user
// hook, framework mock, built-in emulation (both live in internal/mock, so
// the split is invisible here), class-loader cross-method execution, then
// a null last-result.
func (l *Loader) Invoke(kind vm.InvokeKind, ref vm.MethodRef, args []value.Value) (value.Value, bool) {
	if l.Hooks != nil {
		if v, ok := l.Hooks.Invoke(ref.Class, ref.Name, args); ok {
			return v, true
		}
	}
	if hook, ok := l.Mocks.Lookup(ref.Class, ref.Name); ok {
		if v, ok := hook(args, l.Config); ok {
			return v, true
		}
	}
	if target := l.FindMethodWithSignature(ref.Class, ref.Name, ref.ParamDescs); target != nil {
		l.EnsureInitialized(target.Class)
		return l.Execute(target, args)
	}
	return value.Null(), false
}

// ResolverFor returns the typed-operand resolver for m's owning container,
// the same one Execute wires into the interpreter that runs m. The slicer
// and the driver's call-site scan use it to build m's trace map without
// reaching into dex.Container internals themselves.
func (l *Loader) ResolverFor(m *dex.Method) vm.Resolver {
	return &containerResolver{c: l.Program.Containers[m.Container]}
}

// TraceOf returns m's disassembled, pool-resolved trace map, building and
// caching it on first request. A method with no bytecode yields an empty
// trace rather than an error: the driver and slicer both already treat "no
// entry at this PC" as "nothing to do" rather than a fault.
func (l *Loader) TraceOf(m *dex.Method) map[int]disasm.Entry {
	if l.traces == nil {
		l.traces = make(map[*dex.Method]map[int]disasm.Entry)
	}
	if t, ok := l.traces[m]; ok {
		return t
	}
	code, _, ok := m.Bytecode()
	if !ok {
		t := map[int]disasm.Entry{}
		l.traces[m] = t
		return t
	}
	entries := disasm.Build(code, l.ResolverFor(m))
	t := disasm.ByPC(entries)
	l.traces[m] = t
	return t
}

// containerResolver adapts one dex.Container to vm.Resolver.
type containerResolver struct {
	c *dex.Container
}

func (r *containerResolver) String(idx uint32) string { return r.c.ResolveString(idx) }
func (r *containerResolver) Type(idx uint32) string    { return r.c.ResolveType(idx) }

func (r *containerResolver) Field(idx uint32) vm.FieldRef {
	class, name, typeDesc := r.c.ResolveField(idx)
	return vm.FieldRef{Class: class, Name: name, TypeDesc: typeDesc}
}

func (r *containerResolver) Method(idx uint32) vm.MethodRef {
	class, name, paramDescs, returnDesc := r.c.ResolveMethod(idx)
	return vm.MethodRef{Class: class, Name: name, ParamDescs: paramDescs, ReturnDesc: returnDesc}
}
