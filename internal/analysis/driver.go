package analysis

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatalsec/dalivm/internal/dex"
	"github.com/fatalsec/dalivm/internal/log"
	"github.com/fatalsec/dalivm/internal/mock"
	"github.com/fatalsec/dalivm/internal/slicer"
	"github.com/fatalsec/dalivm/internal/value"
)

// CallResult is one call site's resolved arguments and the target's return
// value at that site.
type CallResult struct {
	Caller          string
	CallerPC        int
	Args            []value.Value
	ArgsFormatted   []string
	Return          value.Value
	ReturnFormatted string
	Resolved        bool
}

// Result is the full outcome of one target-method analysis run.
type Result struct {
	RunID     string
	Target    string
	CallSites []CallResult
}

var targetSpecPattern = regexp.MustCompile(`^(L[^;]+;)->(\S+)$`)

// FindTarget parses a "LClass;->name" target specification and locates the
// matching method record, failing fast if either the class or the method is
// absent from the archive. When a class declares more than one overload of
// name, the first one with bytecode is preferred, since a target method
// this tool can execute must have a body.
func FindTarget(prog *dex.Program, spec string) (*dex.Method, error) {
	m := targetSpecPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil, fmt.Errorf("analysis: malformed target spec %q (want LClass;->name)", spec)
	}
	class, name := m[1], m[2]
	if !prog.HasClass(class) {
		return nil, fmt.Errorf("analysis: class %s not found in archive", class)
	}
	var fallback *dex.Method
	for _, cand := range prog.MethodsOf(class) {
		if cand.Name != name {
			continue
		}
		if cand.HasBytecode() {
			return cand, nil
		}
		if fallback == nil {
			fallback = cand
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("analysis: method %s->%s not found", class, name)
}

// transitiveClasses recursively collects every class referenced by target's
// bytecode (classes whose statics are read/written, classes constructed,
// classes whose methods are called) plus every call site's caller class, so
// every class that could matter to initialization order gets its <clinit>
// run before any call site is resolved.
//
// Depth-capped to bound runaway mutual-reference cycles rather than
// tracking a full visited-edge set.
func (c *Context) transitiveClasses(target *dex.Method, sites []CallSite) []string {
	const maxDepth = 12
	seen := map[string]bool{}
	var order []string

	var visit func(class string, depth int)
	visit = func(class string, depth int) {
		if class == "" || seen[class] || depth > maxDepth {
			return
		}
		seen[class] = true
		order = append(order, class)
		if !c.Program.HasClass(class) {
			return
		}
		for _, m := range c.Program.MethodsOf(class) {
			if !m.HasBytecode() {
				continue
			}
			for _, e := range c.Loader.TraceOf(m) {
				if e.FieldRef.Class != "" {
					visit(e.FieldRef.Class, depth+1)
				}
				if e.MethodRef.Class != "" {
					visit(e.MethodRef.Class, depth+1)
				}
				if e.TypeRef != "" {
					visit(e.TypeRef, depth+1)
				}
			}
		}
	}

	visit(target.Class, 0)
	for _, s := range sites {
		visit(s.Caller.Class, 0)
	}
	return order
}

// Run executes the full §4.H driver loop against target: enumerate callers,
// initialize the transitively-referenced class set once, then per call
// site compute and execute the argument slice, inject mocks for any
// argument the slice left unresolved, reset statics and re-run the target
// class's <clinit> (so each call site's target execution starts from
// identical static state, matching the original's per-site reset), execute
// the target, and record the result.
func (c *Context) Run(target *dex.Method) *Result {
	sites := c.EnumerateCallSites(target)
	classes := c.transitiveClasses(target, sites)

	c.Loader.Statics.Reset()
	for _, class := range classes {
		ranBefore := c.Loader.Statics.IsInitialized(class)
		c.Loader.EnsureInitialized(class)
		if log.L != nil && !ranBefore {
			log.L.ClinitRun(class, c.Program.HasClass(class))
		}
	}

	result := &Result{RunID: c.RunID, Target: target.FullName()}
	for _, site := range sites {
		result.CallSites = append(result.CallSites, c.runCallSite(target, site))
	}
	return result
}

func (c *Context) runCallSite(target *dex.Method, site CallSite) CallResult {
	cr := CallResult{Caller: site.Caller.FullName(), CallerPC: site.PC}

	code, regSize, ok := site.Caller.Bytecode()
	if !ok {
		cr.Return = value.Null()
		cr.ReturnFormatted = FormatValue(cr.Return)
		return cr
	}

	trace := c.Loader.TraceOf(site.Caller)
	opts := c.Loader.FrameOptions(site.Caller)

	res := slicer.ResolveArgs(code, regSize, opts, trace, site.PC, site.ArgRegs)
	c.ActiveSlice = res.SlicePCs
	if log.L != nil {
		log.L.SliceStat(site.Caller.FullName(), site.PC, len(res.SlicePCs))
	}

	args := res.Args
	receiverOffset := 0
	if !target.IsStatic() {
		receiverOffset = 1
	}
	for i, unresolved := range res.Unresolved {
		if !unresolved {
			continue
		}
		pi := i - receiverOffset
		if pi < 0 || pi >= len(target.ParamDescs) {
			continue
		}
		if v, ok := mock.ForParamType(target.ParamDescs[pi], c.Loader.Config); ok {
			args[i] = v
		}
	}

	// Reset and re-run only the target's own class <clinit> before
	// executing it: each call site's target run must start from the same
	// static-field state, uncontaminated by whatever the previous site's
	// slice execution (or this one's) mutated in shared statics.
	c.Loader.Statics.Reset()
	c.Loader.EnsureInitialized(target.Class)
	ret, hasRet := c.Loader.Execute(target, args)
	if !hasRet {
		ret = value.Null()
	}
	c.ActiveSlice = nil

	cr.Args = args
	cr.ArgsFormatted = FormatArgs(args)
	cr.Return = ret
	cr.ReturnFormatted = FormatValue(ret)
	cr.Resolved = hasRet
	return cr
}

// Summary renders the terminal one-line-per-call-site report.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "target %s (%d call sites, run %s)\n", r.Target, len(r.CallSites), r.RunID)
	for _, cs := range r.CallSites {
		fmt.Fprintf(&b, "  %s @pc=%d args=(%s) -> %s\n",
			cs.Caller, cs.CallerPC, strings.Join(cs.ArgsFormatted, ", "), cs.ReturnFormatted)
	}
	return b.String()
}
