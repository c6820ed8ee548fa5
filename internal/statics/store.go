// Package statics implements the static-field store: a mapping from (class
// descriptor, field name) to a register value, plus the set of classes
// whose <clinit> has been attempted during the current run.
//
// Store is a plain value, not a package singleton: callers construct one per
// analysis run and pass it explicitly to the interpreter and class loader,
// so concurrent runs never share state and tests never need to reset a
// global.
package statics

import "github.com/fatalsec/dalivm/internal/value"

type key struct {
	class string
	field string
}

// Store holds every static field value observed or seeded during a run.
type Store struct {
	fields      map[key]value.Value
	initialized map[string]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		fields:      make(map[key]value.Value),
		initialized: make(map[string]bool),
	}
}

// Get reads (class, field), returning def if unset.
func (s *Store) Get(class, field string, def value.Value) value.Value {
	if v, ok := s.fields[key{class, field}]; ok {
		return v
	}
	return def
}

// Set writes (class, field).
func (s *Store) Set(class, field string, v value.Value) {
	s.fields[key{class, field}] = v
}

// IsInitialized reports whether class's <clinit> has been attempted.
func (s *Store) IsInitialized(class string) bool {
	return s.initialized[class]
}

// MarkInitialized records class's <clinit> as attempted, regardless of
// whether bytecode for it was found or it ran to completion. This is what
// prevents infinite re-entry on nested <clinit> triggers.
func (s *Store) MarkInitialized(class string) {
	s.initialized[class] = true
}

// Reset clears all fields and the attempted set. Called once at analysis
// start and again before executing the target at each call site, so every
// call site begins from identical static state.
func (s *Store) Reset() {
	s.fields = make(map[key]value.Value)
	s.initialized = make(map[string]bool)
}

// Dump returns a snapshot of all known fields, for debug logging.
func (s *Store) Dump() map[string]value.Value {
	out := make(map[string]value.Value, len(s.fields))
	for k, v := range s.fields {
		out[k.class+"->"+k.field] = v
	}
	return out
}
