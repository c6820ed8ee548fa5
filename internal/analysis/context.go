// Package analysis implements the driver: the top-level analysis loop that,
// for a chosen target method, enumerates every call site in the program,
// computes and executes each call site's argument slice, executes the
// target with the resolved arguments, and records the return value.
package analysis

import (
	"github.com/fatalsec/dalivm/internal/dex"
	"github.com/fatalsec/dalivm/internal/loader"
	"github.com/fatalsec/dalivm/internal/log"
	"github.com/fatalsec/dalivm/internal/mock"
	"github.com/fatalsec/dalivm/internal/statics"
)

// Context carries every piece of state one analysis run threads through the
// loader, interpreter, and slicer — a plain value constructed once per run
// and passed explicitly, never a package singleton, so concurrent runs over
// different targets never share state.
type Context struct {
	Program *dex.Program
	Loader  *loader.Loader

	// CallSiteCap bounds how many call sites the driver will resolve for
	// one target, 0 meaning unbounded.
	CallSiteCap int

	// MaxErrorsPerSite holds the configured per-call-site error cap. No code
	// reads it: the slice executor skips an instruction whose handler panics
	// without logging or counting the panic.
	MaxErrorsPerSite int

	// ActiveSlice is the current call site's dependency PC set, set by the
	// driver while it resolves that site. warnIfOnSlice gates a warning on
	// it, but no missing-bytecode or missing-mock path calls warnIfOnSlice,
	// so no such warning is emitted.
	ActiveSlice map[int]bool

	RunID string
	Debug bool
}

// New builds a Context ready to drive one analysis run against prog, using
// cfg as the mock configuration and hooks (nil if none) as the optional
// user hook script.
func New(prog *dex.Program, cfg *mock.Config, hooks *mock.Script, stepCap, clinitStepCap int) *Context {
	store := statics.New()
	ld := loader.New(prog, store)
	ld.Config = cfg
	ld.Hooks = hooks
	if stepCap > 0 {
		ld.StepCap = stepCap
	}
	if clinitStepCap > 0 {
		ld.ClinitStepCap = clinitStepCap
	}
	return &Context{
		Program:          prog,
		Loader:           ld,
		MaxErrorsPerSite: 5,
		RunID:            NewRunID(),
	}
}

// onSlice reports whether pc is part of the currently-executing call
// site's dependency slice, for warning-suppression decisions.
func (c *Context) onSlice(pc int) bool {
	return c.ActiveSlice != nil && c.ActiveSlice[pc]
}

func (c *Context) warnIfOnSlice(pc int, msg string, fields ...interface{}) {
	if !c.onSlice(pc) {
		return
	}
	if log.L != nil {
		log.L.Sugar().Warnw(msg, fields...)
	}
}
