package compiler

import (
	"fmt"

	"github.com/mna/qscript/lang/stringtable"
	"golang.org/x/exp/constraints"
)

// CompileError is a user-facing compile-time error, carrying the offending
// identifier's text (spec.md §4.2 "Error reporting").
type CompileError struct {
	Kind string
	Name string
}

func (e *CompileError) Error() string {
	if e.Name == "" {
		return e.Kind
	}
	return fmt.Sprintf("%s '%s'", e.Kind, e.Name)
}

func errUndefined(name string) error {
	return &CompileError{Kind: "Identifier not found in scope", Name: name}
}

func errRedefined(name string) error {
	return &CompileError{Kind: "Illegal redefinition of identifier", Name: name}
}

func errNotReversible(what string) error {
	return &CompileError{Kind: "Feature is not reversible", Name: what}
}

func genMax[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// localScope is one lexical nesting level's name→slot map.
type localScope struct {
	names map[stringtable.Token]int
	// base is the slot-allocation counter's value when this scope was
	// pushed, so popScope can roll allocation back to it.
	base int
}

// localEnv is a function's lexical stack of name→slot maps (spec.md §4.2
// "Local environment"). Adding a name allocates a new slot at the current
// high-water mark; popping a scope reclaims its slots for reuse by a
// sibling scope, but the high-water mark — the function's eventual
// `locals` count — only ever grows.
type localEnv struct {
	scopes    []localScope
	next      int
	highWater int
}

func newLocalEnv() *localEnv {
	e := &localEnv{}
	e.pushScope()
	return e
}

func (e *localEnv) pushScope() {
	e.scopes = append(e.scopes, localScope{names: make(map[stringtable.Token]int), base: e.next})
}

func (e *localEnv) popScope() {
	top := e.scopes[len(e.scopes)-1]
	e.scopes = e.scopes[:len(e.scopes)-1]
	e.next = top.base
}

// add allocates a new named slot in the current (innermost) scope. It
// returns errRedefined if name already has a binding in that scope —
// shadowing an outer scope's binding is fine, redefining within the same
// scope is not.
func (e *localEnv) add(name stringtable.Token, nameText string) (int, error) {
	cur := &e.scopes[len(e.scopes)-1]
	if _, ok := cur.names[name]; ok {
		return 0, errRedefined(nameText)
	}
	slot := e.alloc()
	cur.names[name] = slot
	return slot, nil
}

// addTemp allocates an unnamed slot in the current scope, for compiler-
// internal bookkeeping (e.g. the `ForEach`/`ForLoop` counter and iterable
// temporaries of spec.md §4.2).
func (e *localEnv) addTemp() int { return e.alloc() }

func (e *localEnv) alloc() int {
	slot := e.next
	e.next++
	e.highWater = genMax(e.highWater, e.next)
	return slot
}

// lookup searches scopes from innermost to outermost.
func (e *localEnv) lookup(name stringtable.Token) (int, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if slot, ok := e.scopes[i].names[name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// locals returns the function's total frame size, i.e. spec.md's `locals`
// field of a FunctionEntry.
func (e *localEnv) locals() int { return e.highWater }
